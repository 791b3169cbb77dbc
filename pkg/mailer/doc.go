// Package mailer is the adapter boundary between a framework's generic
// "send mail" call and the Postmark client.
//
// Frameworks and application code depend on the Sender interface and the
// provider-neutral Mail shape; the translation into a postmark.Message and the
// typed send outcome stay behind the interface. The dependency points one way
// only: adapters depend on pkg/postmark, never the reverse.
//
// Two implementations ship with the package:
//
//   - PostmarkSender delivers through a *postmark.Client and propagates the
//     client's typed errors unchanged, so callers can still switch on
//     postmark.ErrUnauthorized, *postmark.InactiveRecipientError and friends.
//
//   - DevSender writes the exact Postmark payload and the rendered bodies to
//     a local directory for inspection during development. No network, no
//     token.
package mailer
