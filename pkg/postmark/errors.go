package postmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Validation errors are returned before any network activity and are
// deterministic for a given Message. They are never worth retrying.
var (
	ErrInvalidConfig      = errors.New("invalid client configuration")
	ErrMissingSender      = errors.New("message has no sender and no default sender is configured")
	ErrMissingRecipient   = errors.New("message has no recipients")
	ErrAmbiguousContent   = errors.New("message sets both subject/body content and a template reference")
	ErrMissingContent     = errors.New("message sets neither subject/body content nor a template reference")
	ErrMissingBody        = errors.New("message has neither a text body nor an HTML body")
	ErrMissingTemplateID  = errors.New("template send requires both a template id and a template model")
	ErrAttachmentTooLarge = errors.New("attachment exceeds the per-attachment size limit")
	ErrWrongSendMode      = errors.New("message mode does not match the send operation")
	ErrEmptyBatch         = errors.New("batch contains no messages")
	ErrMixedBatchModes    = errors.New("batch mixes template and raw-content messages")
)

// Remote outcome errors.
var (
	// ErrUnauthorized means the server token was rejected. Fix credentials;
	// retrying without intervention cannot succeed.
	ErrUnauthorized = errors.New("server token rejected by the API")

	// ErrPartialFailure accompanies batch results in which at least one
	// message failed while its siblings were accepted. The result slice is
	// always returned alongside it, aligned with the input order.
	ErrPartialFailure = errors.New("some messages in the batch were not accepted")
)

// TransportError reports that no usable HTTP response was obtained: connection
// failure, timeout, or an unreadable response body. The underlying cause is
// available via Unwrap.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// UnprocessableEntityError reports a 422 rejection: the server understood the
// request but refused the message, typically a sender-signature mismatch or a
// content rule violation. Not retryable without changing the message.
type UnprocessableEntityError struct {
	ErrorCode int    // Postmark API error code from the response body
	Message   string // server-provided detail
}

func (e *UnprocessableEntityError) Error() string {
	return fmt.Sprintf("unprocessable entity (api error %d): %s", e.ErrorCode, e.Message)
}

// InactiveRecipientError reports that the recipient address is suppressed on
// the server side (hard bounce or spam complaint). In a batch, siblings of an
// inactive recipient still succeed; safe to log and continue.
type InactiveRecipientError struct {
	Message string
}

func (e *InactiveRecipientError) Error() string {
	return fmt.Sprintf("inactive recipient: %s", e.Message)
}

// ServerError reports a remote-side fault (500) or any otherwise unclassified
// non-2xx status. It carries the raw status and body for diagnosis. Safe to
// retry with backoff at the caller's discretion; this library never retries.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Body)
}

// apiError is the JSON error envelope the API returns on 4xx responses and
// embeds in per-message batch results.
type apiError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// errorCodeInactiveRecipient is Postmark's per-message code for a suppressed
// address. It shows up both as a bare HTTP status and embedded in otherwise
// successful (200) batch responses.
const errorCodeInactiveRecipient = 406

// ClassifyStatus maps a non-2xx HTTP response to the error taxonomy. The body
// is consulted only for 422, where the API embeds a machine-readable code: a
// 422 carrying code 406 is an inactive recipient, not a content error.
// Exported so sibling clients of the same API (the bounce reader, custom
// integrations) can share the mapping.
func ClassifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusUnprocessableEntity:
		var detail apiError
		if err := json.Unmarshal(body, &detail); err == nil && detail.ErrorCode == errorCodeInactiveRecipient {
			return &InactiveRecipientError{Message: detail.Message}
		} else if err == nil {
			return &UnprocessableEntityError{ErrorCode: detail.ErrorCode, Message: detail.Message}
		}
		return &UnprocessableEntityError{Message: string(body)}
	case http.StatusNotAcceptable:
		var detail apiError
		_ = json.Unmarshal(body, &detail)
		return &InactiveRecipientError{Message: detail.Message}
	default:
		return &ServerError{StatusCode: status, Body: string(body)}
	}
}

// classifyCode maps a nonzero per-message error code from a 200 response
// (single or batch element) to the taxonomy.
func classifyCode(code int, message string) error {
	if code == errorCodeInactiveRecipient {
		return &InactiveRecipientError{Message: message}
	}
	return &UnprocessableEntityError{ErrorCode: code, Message: message}
}
