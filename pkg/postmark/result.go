package postmark

import "time"

// Status reports how a send attempt concluded.
type Status string

const (
	// StatusSent means the API accepted the message for delivery.
	StatusSent Status = "sent"
	// StatusDryRun means test mode was active and no network call happened.
	StatusDryRun Status = "dry-run"
)

// Result is the outcome of one accepted (or dry-run) message.
type Result struct {
	Status      Status
	MessageID   string    // remote-assigned id; synthetic uuid for dry runs
	To          string    // recipients as echoed by the API
	SubmittedAt time.Time // submission timestamp
	Payload     []byte    // exact serialized payload; populated for dry runs only
}

// MessageResult is one element of a batch outcome, positionally aligned with
// the submitted batch. Err is nil for accepted messages; an inactive recipient
// in one element leaves its siblings untouched.
type MessageResult struct {
	Result Result
	Err    error
}

// apiResult is the JSON result object the API returns for a single send and
// for each element of a batch response.
type apiResult struct {
	To          string    `json:"To"`
	SubmittedAt time.Time `json:"SubmittedAt"`
	MessageID   string    `json:"MessageID"`
	ErrorCode   int       `json:"ErrorCode"`
	Message     string    `json:"Message"`
}
