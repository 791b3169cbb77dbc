// Package bounce queries delivery-bounce records from the Postmark API.
//
// This is a read-side companion to pkg/postmark: after a send, bounced
// deliveries show up here with a type, a timestamp and a human-readable
// description. The package also exposes the two write-ish operations Postmark
// offers on bounces: fetching the raw SMTP dump and reactivating a suppressed
// address.
//
// Usage:
//
//	client := bounce.MustNew(bounce.Config{ServerToken: token})
//	page, err := client.List(ctx, bounce.Filter{Type: bounce.TypeHardBounce, Count: 50})
//	for _, b := range page.Bounces {
//		// inspect b.Email, b.Description, b.Inactive
//	}
//
// Errors share the taxonomy of pkg/postmark: a rejected token surfaces as
// postmark.ErrUnauthorized, remote faults as *postmark.ServerError, and
// connectivity failures as *postmark.TransportError.
package bounce
