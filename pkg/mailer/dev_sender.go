package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/veepionyc/postmark/pkg/postmark"
)

// DevSender implements Sender for local development. Instead of delivering,
// it runs the mail through a test-mode Postmark client and writes the exact
// wire payload plus any HTML body to a directory, so what would have been
// sent can be inspected in a browser or diffed.
type DevSender struct {
	dir    string
	client *postmark.Client
}

// NewDevSender creates a development sender writing into dir. The directory
// is created on first send.
func NewDevSender(dir string) *DevSender {
	return &DevSender{
		dir: dir,
		client: postmark.MustNew(postmark.Config{
			TestMode:      true,
			DefaultSender: "dev@localhost",
		}),
	}
}

// SendMail validates and serializes the mail exactly like a real send would,
// then writes <timestamp>_<slug>.json with the payload and, when an HTML body
// is present, a sibling .html file.
func (d *DevSender) SendMail(ctx context.Context, mail Mail) error {
	res, err := d.client.Send(ctx, toMessage(mail))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	slug := mail.Tag
	if slug == "" {
		slug = mail.Subject
	}
	base := fmt.Sprintf("%s_%s", time.Now().Format("2006_01_02_150405"), slugify(slug))

	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), res.Payload, 0o644); err != nil {
		return fmt.Errorf("writing payload file: %w", err)
	}
	if mail.HTMLBody != "" {
		if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(mail.HTMLBody), 0o644); err != nil {
			return fmt.Errorf("writing html file: %w", err)
		}
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func slugify(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	const maxLen = 100
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	if s == "" {
		s = "mail"
	}
	return strings.ToLower(s)
}
