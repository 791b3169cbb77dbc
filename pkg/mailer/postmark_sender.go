package mailer

import (
	"context"
	"fmt"

	"github.com/veepionyc/postmark/pkg/postmark"
)

// PostmarkSender implements Sender over a *postmark.Client.
type PostmarkSender struct {
	client *postmark.Client
}

// NewPostmarkSender wraps an already-configured client. The client carries the
// token, default sender and test-mode flag; the sender adds nothing on top.
func NewPostmarkSender(client *postmark.Client) (*PostmarkSender, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client is required", postmark.ErrInvalidConfig)
	}
	return &PostmarkSender{client: client}, nil
}

// SendMail translates the mail and sends it. Validation and error
// classification happen inside the client; the typed error passes through
// unchanged so callers keep the full taxonomy.
func (s *PostmarkSender) SendMail(ctx context.Context, mail Mail) error {
	_, err := s.client.Send(ctx, toMessage(mail))
	return err
}
