// Package postmark is a client for the Postmark transactional email API.
//
// The package covers message construction and validation, single and batch
// sends, template-based sends, and a typed error taxonomy that lets callers
// distinguish configuration faults from per-message content errors and from
// transient infrastructure failures.
//
// # Architecture
//
// A Client is built from an explicit Config (dependency injection, no ambient
// globals) and exposes four send operations mapping onto Postmark's four
// endpoints:
//
//   - Send              -> POST /email
//   - SendBatch         -> POST /email/batch
//   - SendWithTemplate  -> POST /email/withTemplate
//   - SendBatchWithTemplates -> POST /email/batchWithTemplates
//
// Every send is one synchronous round trip: validate locally, serialize to the
// documented wire keys, POST, classify the response. The library never retries;
// sends are not idempotent on the server side, so retry policy belongs to the
// caller.
//
// # Test mode
//
// With Config.TestMode set no network I/O happens. Send operations return a
// dry-run Result carrying the exact payload that would have been transmitted,
// which makes the client usable in tests and local development without a
// server token.
//
// # Error handling
//
// Local validation failures surface as sentinel errors (ErrMissingSender,
// ErrMissingRecipient, ...) before any network activity. Remote failures
// surface as typed errors:
//
//	res, err := client.Send(ctx, msg)
//	switch {
//	case errors.Is(err, postmark.ErrUnauthorized):
//		// fix credentials, never retry as-is
//	case errors.As(err, new(*postmark.InactiveRecipientError)):
//		// log and continue, recipient is suppressed
//	case errors.As(err, new(*postmark.UnprocessableEntityError)):
//		// message content rejected, inspect server detail
//	case errors.As(err, new(*postmark.TransportError)):
//		// connectivity or timeout, retry at your discretion
//	}
//
// Batch sends return per-message results positionally aligned with the input.
// A single inactive recipient does not fail its siblings: the call returns the
// full result slice together with ErrPartialFailure.
//
// # Concurrency
//
// A Client is safe for concurrent use. Config is read-only after construction;
// mutating it while sends are in flight is unsupported.
package postmark
