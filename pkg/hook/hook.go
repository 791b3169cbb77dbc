package hook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veepionyc/postmark/pkg/bounce"
)

// maxBodySize bounds webhook request bodies; bounce events are small.
const maxBodySize = 256 * 1024

// BounceFunc handles one decoded bounce event. A non-nil error makes the
// endpoint answer 500, which triggers redelivery from the sender side, so
// implementations should be idempotent.
type BounceFunc func(ctx context.Context, b bounce.Bounce) error

// NewRouter mounts the webhook endpoints on a fresh chi router. Pass the
// router (or mount it into a larger one) wherever the process serves HTTP.
func NewRouter(log *slog.Logger, onBounce BounceFunc) chi.Router {
	r := chi.NewRouter()
	r.Post("/webhooks/bounce", Bounce(log, onBounce))
	return r
}

// Bounce returns the handler for Postmark's bounce webhook, usable directly
// when the caller prefers its own routing.
func Bounce(log *slog.Logger, onBounce BounceFunc) http.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			log.ErrorContext(r.Context(), "reading bounce webhook body", slog.Any("error", err))
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		var b bounce.Bounce
		if err := json.Unmarshal(body, &b); err != nil {
			log.WarnContext(r.Context(), "malformed bounce webhook payload", slog.Any("error", err))
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}

		if err := onBounce(r.Context(), b); err != nil {
			log.ErrorContext(r.Context(), "bounce handler failed",
				slog.Int64("bounce_id", b.ID),
				slog.String("email", b.Email),
				slog.Any("error", err))
			http.Error(w, "handler failure", http.StatusInternalServerError)
			return
		}

		log.InfoContext(r.Context(), "bounce processed",
			slog.Int64("bounce_id", b.ID),
			slog.String("type", string(b.Type)),
			slog.String("email", b.Email))
		w.WriteHeader(http.StatusOK)
	}
}
