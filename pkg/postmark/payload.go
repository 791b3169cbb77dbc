package postmark

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire payloads use the API's documented field names exactly; the server
// dispatches on spelling and silently ignores anything it does not recognize.
// Content and template sends get separate payload structs so a template send
// can never emit Subject or body keys, even for a Message that slipped past
// validation with both set. TrackOpens never gets omitempty: an absent key
// makes the server fall back to its stream-level setting, which would swallow
// an explicit false.

type headerPayload struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

type attachmentPayload struct {
	Name        string `json:"Name"`
	Content     []byte `json:"Content"` // encoding/json emits []byte as base64
	ContentType string `json:"ContentType"`
}

type contentPayload struct {
	From        string              `json:"From"`
	To          string              `json:"To"`
	Cc          string              `json:"Cc,omitempty"`
	Bcc         string              `json:"Bcc,omitempty"`
	Subject     string              `json:"Subject,omitempty"`
	Tag         string              `json:"Tag,omitempty"`
	HTMLBody    string              `json:"HtmlBody,omitempty"`
	TextBody    string              `json:"TextBody,omitempty"`
	ReplyTo     string              `json:"ReplyTo,omitempty"`
	Headers     []headerPayload     `json:"Headers,omitempty"`
	TrackOpens  bool                `json:"TrackOpens"`
	Metadata    map[string]string   `json:"Metadata,omitempty"`
	Attachments []attachmentPayload `json:"Attachments,omitempty"`
}

type templatePayload struct {
	From          string              `json:"From"`
	To            string              `json:"To"`
	Cc            string              `json:"Cc,omitempty"`
	Bcc           string              `json:"Bcc,omitempty"`
	Tag           string              `json:"Tag,omitempty"`
	ReplyTo       string              `json:"ReplyTo,omitempty"`
	Headers       []headerPayload     `json:"Headers,omitempty"`
	TrackOpens    bool                `json:"TrackOpens"`
	Metadata      map[string]string   `json:"Metadata,omitempty"`
	Attachments   []attachmentPayload `json:"Attachments,omitempty"`
	TemplateID    int64               `json:"TemplateId"`
	TemplateModel map[string]any      `json:"TemplateModel"`
}

// payloadDefaults carries the client-level values folded into each payload.
type payloadDefaults struct {
	sender     string
	trackOpens bool
}

func joinAddrs(addrs []string) string {
	return strings.Join(addrs, ",")
}

func headerPayloads(hs []Header) []headerPayload {
	if len(hs) == 0 {
		return nil
	}
	out := make([]headerPayload, len(hs))
	for i, h := range hs {
		out[i] = headerPayload{Name: h.Name, Value: h.Value}
	}
	return out
}

func attachmentPayloads(as []Attachment) []attachmentPayload {
	if len(as) == 0 {
		return nil
	}
	out := make([]attachmentPayload, len(as))
	for i, a := range as {
		out[i] = attachmentPayload{Name: a.Name, Content: a.Content, ContentType: a.ContentType}
	}
	return out
}

// marshalMessage serializes one message according to its mode. Serialization
// is deterministic: struct fields marshal in declaration order and map keys
// sort, so the same Message always yields byte-identical output.
func marshalMessage(m Message, d payloadDefaults) (json.RawMessage, error) {
	from := m.From
	if from == "" {
		from = d.sender
	}
	trackOpens := d.trackOpens
	if m.TrackOpens != nil {
		trackOpens = *m.TrackOpens
	}

	var payload any
	if m.hasTemplate() {
		model := m.TemplateModel
		if model == nil {
			model = map[string]any{}
		}
		payload = templatePayload{
			From:          from,
			To:            joinAddrs(m.To),
			Cc:            joinAddrs(m.Cc),
			Bcc:           joinAddrs(m.Bcc),
			Tag:           m.Tag,
			ReplyTo:       m.ReplyTo,
			Headers:       headerPayloads(m.Headers),
			TrackOpens:    trackOpens,
			Metadata:      m.Metadata,
			Attachments:   attachmentPayloads(m.Attachments),
			TemplateID:    m.TemplateID,
			TemplateModel: model,
		}
	} else {
		payload = contentPayload{
			From:        from,
			To:          joinAddrs(m.To),
			Cc:          joinAddrs(m.Cc),
			Bcc:         joinAddrs(m.Bcc),
			Subject:     m.Subject,
			Tag:         m.Tag,
			HTMLBody:    m.HTMLBody,
			TextBody:    m.TextBody,
			ReplyTo:     m.ReplyTo,
			Headers:     headerPayloads(m.Headers),
			TrackOpens:  trackOpens,
			Metadata:    m.Metadata,
			Attachments: attachmentPayloads(m.Attachments),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling message payload: %w", err)
	}
	return body, nil
}

// marshalBatch serializes a raw-content batch. The batch endpoint expects a
// bare JSON array of message objects, not a wrapped envelope.
func marshalBatch(msgs []Message, d payloadDefaults) ([]byte, error) {
	elems := make([]json.RawMessage, len(msgs))
	for i, m := range msgs {
		body, err := marshalMessage(m, d)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		elems[i] = body
	}
	return json.Marshal(elems)
}

// marshalTemplateBatch serializes a template batch. Unlike the raw batch
// endpoint, batchWithTemplates wraps the array in a Messages envelope.
func marshalTemplateBatch(msgs []Message, d payloadDefaults) ([]byte, error) {
	elems := make([]json.RawMessage, len(msgs))
	for i, m := range msgs {
		body, err := marshalMessage(m, d)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		elems[i] = body
	}
	return json.Marshal(struct {
		Messages []json.RawMessage `json:"Messages"`
	}{Messages: elems})
}
