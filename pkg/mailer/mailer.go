package mailer

import (
	"context"

	"github.com/veepionyc/postmark/pkg/postmark"
)

// Sender delivers one mail. Implementations translate Mail into their
// provider's shape and report the provider's typed error unchanged.
type Sender interface {
	SendMail(ctx context.Context, mail Mail) error
}

// Header is one custom header on a Mail, ordered and repeatable.
type Header struct {
	Name  string
	Value string
}

// Attachment is one file attached to a Mail.
type Attachment struct {
	Name        string
	Content     []byte
	ContentType string
}

// Mail is the provider-neutral message shape adapters produce from their
// framework's native send call. From may be empty when the sending client has
// a default sender configured.
type Mail struct {
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	TextBody    string
	HTMLBody    string
	Headers     []Header
	Attachments []Attachment
	Tag         string
}

// toMessage translates the neutral shape into the Postmark message object.
func toMessage(mail Mail) postmark.Message {
	m := postmark.Message{
		From:     mail.From,
		To:       mail.To,
		Cc:       mail.Cc,
		Bcc:      mail.Bcc,
		ReplyTo:  mail.ReplyTo,
		Subject:  mail.Subject,
		TextBody: mail.TextBody,
		HTMLBody: mail.HTMLBody,
		Tag:      mail.Tag,
	}
	for _, h := range mail.Headers {
		m.Headers = append(m.Headers, postmark.Header{Name: h.Name, Value: h.Value})
	}
	for _, a := range mail.Attachments {
		m.Attachments = append(m.Attachments, postmark.Attachment{
			Name:        a.Name,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}
	return m
}
