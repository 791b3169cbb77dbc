package postmark

import (
	"encoding/base64"
	"fmt"
)

// Header is one custom MIME header. Messages carry headers as an ordered slice
// rather than a map: duplicate names are legal (multiple References, for
// example) and the API preserves submission order.
type Header struct {
	Name  string
	Value string
}

// Attachment is a file attached to a message. Content holds the raw bytes;
// base64 encoding happens at serialization time.
type Attachment struct {
	Name        string
	Content     []byte
	ContentType string
}

// Message is one email to deliver. Zero values are omitted from the wire
// payload, so the zero Message is a valid starting point. A Message carries
// either subject/body content or a template reference, never both; Validate
// enforces this before any network call.
//
// Messages are value objects: the client never mutates one, and a Message must
// not be modified after a send attempt begins.
type Message struct {
	// From is the sender address, optionally in "Display Name <addr>" form.
	// When empty, the client's configured DefaultSender applies.
	From string

	To  []string
	Cc  []string
	Bcc []string

	Subject  string
	TextBody string
	HTMLBody string
	ReplyTo  string

	Headers     []Header
	Attachments []Attachment

	// Tag is an optional label for grouping statistics on the server side.
	Tag string

	// TrackOpens overrides the client-wide open-tracking default when non-nil.
	TrackOpens *bool

	// Metadata is arbitrary key/value data echoed back in delivery events.
	Metadata map[string]string

	// TemplateID and TemplateModel select server-side rendering. Setting
	// either puts the message in template mode, which excludes Subject,
	// TextBody and HTMLBody.
	TemplateID    int64
	TemplateModel map[string]any
}

func (m Message) hasContent() bool {
	return m.Subject != "" || m.TextBody != "" || m.HTMLBody != ""
}

func (m Message) hasTemplate() bool {
	return m.TemplateID != 0 || m.TemplateModel != nil
}

// ValidateOptions supplies the client-level context a Message cannot know on
// its own: the configured fallback sender and the attachment size ceiling.
type ValidateOptions struct {
	// DefaultSender satisfies the sender-present rule when Message.From is
	// empty.
	DefaultSender string

	// MaxAttachmentSize caps each attachment's base64-encoded size in bytes.
	// Zero means DefaultMaxAttachmentSize.
	MaxAttachmentSize int
}

// DefaultMaxAttachmentSize is the API's documented per-attachment ceiling.
const DefaultMaxAttachmentSize = 10 * 1024 * 1024

// Validate checks the message against the local sending rules, reporting the
// first violation encountered. It is a pure function: no network access, no
// side effects. Checks run in a fixed order: sender, recipients, content mode,
// mode-specific fields, attachment sizes.
func (m Message) Validate(opts ValidateOptions) error {
	if m.From == "" && opts.DefaultSender == "" {
		return ErrMissingSender
	}
	if len(m.To) == 0 {
		return ErrMissingRecipient
	}

	switch {
	case m.hasContent() && m.hasTemplate():
		return ErrAmbiguousContent
	case !m.hasContent() && !m.hasTemplate():
		return ErrMissingContent
	}

	if m.hasTemplate() {
		if m.TemplateID == 0 {
			return fmt.Errorf("%w: TemplateID is not set", ErrMissingTemplateID)
		}
		if m.TemplateModel == nil {
			return fmt.Errorf("%w: TemplateModel is nil (an empty model is allowed, a missing one is not)", ErrMissingTemplateID)
		}
	} else if m.TextBody == "" && m.HTMLBody == "" {
		return ErrMissingBody
	}

	limit := opts.MaxAttachmentSize
	if limit <= 0 {
		limit = DefaultMaxAttachmentSize
	}
	for _, a := range m.Attachments {
		if base64.StdEncoding.EncodedLen(len(a.Content)) > limit {
			return fmt.Errorf("%w: %q encodes to more than %d bytes", ErrAttachmentTooLarge, a.Name, limit)
		}
	}

	return nil
}
