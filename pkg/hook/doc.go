// Package hook receives Postmark webhook callbacks.
//
// Postmark pushes bounce events to a configured HTTPS endpoint as JSON POST
// bodies whose shape matches the bounce read API. This package decodes them
// and hands each event to a caller-supplied function, keeping HTTP plumbing
// out of application code:
//
//	r := hook.NewRouter(log, func(ctx context.Context, b bounce.Bounce) error {
//		return store.MarkSuppressed(ctx, b.Email)
//	})
//	http.ListenAndServe(":8080", r)
//
// A malformed body answers 400 and a handler error 500, so Postmark's own
// retry machinery re-delivers failed events.
package hook
