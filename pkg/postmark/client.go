package postmark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// API endpoint paths. The server dispatches solely by path, so these must
// match the documented routes exactly.
const (
	endpointEmail         = "/email"
	endpointBatch         = "/email/batch"
	endpointTemplate      = "/email/withTemplate"
	endpointTemplateBatch = "/email/batchWithTemplates"
)

const serverTokenHeader = "X-Postmark-Server-Token"

// maxResponseSize bounds how much of a response body is read for parsing and
// diagnostics.
const maxResponseSize = 1024 * 1024

// Config holds client configuration. ServerToken is required unless TestMode
// is set; everything else has a usable default.
type Config struct {
	ServerToken       string        `env:"POSTMARK_SERVER_TOKEN"`
	BaseURL           string        `env:"POSTMARK_BASE_URL" envDefault:"https://api.postmarkapp.com"`
	DefaultSender     string        `env:"POSTMARK_DEFAULT_SENDER"`
	TestMode          bool          `env:"POSTMARK_TEST_MODE" envDefault:"false"`
	TrackOpens        bool          `env:"POSTMARK_TRACK_OPENS" envDefault:"false"`
	RequestTimeout    time.Duration `env:"POSTMARK_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxBatchSize      int           `env:"POSTMARK_MAX_BATCH_SIZE" envDefault:"500"`
	MaxAttachmentSize int           `env:"POSTMARK_MAX_ATTACHMENT_SIZE" envDefault:"10485760"`
}

// HTTPDoer executes HTTP requests. *http.Client satisfies it; tests substitute
// their own.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, ignoring nil for safety.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// WithLogger sets the structured logger used for send diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client sends email through the Postmark API. Safe for concurrent use; the
// configuration is read-only after construction.
type Client struct {
	config Config
	client HTTPDoer
	log    *slog.Logger
}

// New creates a Client from the provided configuration. The server token is
// required unless test mode is active, since test mode performs no network
// I/O at all.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ServerToken == "" && !cfg.TestMode {
		return nil, fmt.Errorf("%w: ServerToken is required unless TestMode is set", ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.postmarkapp.com"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	if cfg.MaxAttachmentSize <= 0 {
		cfg.MaxAttachmentSize = DefaultMaxAttachmentSize
	}

	c := &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNew creates a Client that panics on invalid config. Fail fast during
// initialization rather than letting a broken client reach production traffic.
func MustNew(cfg Config, opts ...Option) *Client {
	c, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Client) validateOptions() ValidateOptions {
	return ValidateOptions{
		DefaultSender:     c.config.DefaultSender,
		MaxAttachmentSize: c.config.MaxAttachmentSize,
	}
}

func (c *Client) defaults() payloadDefaults {
	return payloadDefaults{sender: c.config.DefaultSender, trackOpens: c.config.TrackOpens}
}

// Send delivers one raw-content message. Messages carrying a template
// reference must go through SendWithTemplate instead; the API exposes disjoint
// endpoints for the two modes.
func (c *Client) Send(ctx context.Context, m Message) (*Result, error) {
	if err := m.Validate(c.validateOptions()); err != nil {
		return nil, err
	}
	if m.hasTemplate() {
		return nil, fmt.Errorf("%w: use SendWithTemplate for template messages", ErrWrongSendMode)
	}
	return c.sendSingle(ctx, endpointEmail, m)
}

// SendWithTemplate delivers one message rendered server-side from its
// TemplateID and TemplateModel.
func (c *Client) SendWithTemplate(ctx context.Context, m Message) (*Result, error) {
	if err := m.Validate(c.validateOptions()); err != nil {
		return nil, err
	}
	if !m.hasTemplate() {
		return nil, fmt.Errorf("%w: use Send for raw-content messages", ErrWrongSendMode)
	}
	return c.sendSingle(ctx, endpointTemplate, m)
}

func (c *Client) sendSingle(ctx context.Context, path string, m Message) (*Result, error) {
	body, err := marshalMessage(m, c.defaults())
	if err != nil {
		return nil, err
	}

	if c.config.TestMode {
		return c.dryRun(m, body), nil
	}

	status, respBody, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ClassifyStatus(status, respBody)
	}

	var res apiResult
	if err := json.Unmarshal(respBody, &res); err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("parsing response: %w", err)}
	}
	if res.ErrorCode != 0 {
		return nil, classifyCode(res.ErrorCode, res.Message)
	}

	c.log.DebugContext(ctx, "message accepted",
		slog.String("message_id", res.MessageID),
		slog.String("to", res.To))

	return &Result{
		Status:      StatusSent,
		MessageID:   res.MessageID,
		To:          res.To,
		SubmittedAt: res.SubmittedAt,
	}, nil
}

// SendBatch delivers up to MaxBatchSize raw-content messages in one request.
// Larger batches are chunked sequentially in submission order; results are
// concatenated so index i always corresponds to msgs[i]. When individual
// messages fail (an inactive recipient, a per-message validation rejection)
// the full result slice is returned together with ErrPartialFailure; siblings
// of a failed message are unaffected. When a chunk fails outright, the results
// collected so far are returned alongside the classified error.
func (c *Client) SendBatch(ctx context.Context, msgs []Message) ([]MessageResult, error) {
	return c.sendBatch(ctx, endpointBatch, msgs, false)
}

// SendBatchWithTemplates delivers a batch of template messages. Batch
// semantics are identical to SendBatch; only the endpoint and envelope differ.
func (c *Client) SendBatchWithTemplates(ctx context.Context, msgs []Message) ([]MessageResult, error) {
	return c.sendBatch(ctx, endpointTemplateBatch, msgs, true)
}

func (c *Client) sendBatch(ctx context.Context, path string, msgs []Message, templated bool) ([]MessageResult, error) {
	if len(msgs) == 0 {
		return nil, ErrEmptyBatch
	}
	for i, m := range msgs {
		if err := m.Validate(c.validateOptions()); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if m.hasTemplate() != templated {
			return nil, fmt.Errorf("message %d: %w", i, ErrMixedBatchModes)
		}
	}

	results := make([]MessageResult, 0, len(msgs))
	for start := 0; start < len(msgs); start += c.config.MaxBatchSize {
		end := min(start+c.config.MaxBatchSize, len(msgs))
		chunk, err := c.sendChunk(ctx, path, msgs[start:end], templated)
		results = append(results, chunk...)
		if err != nil {
			return results, err
		}
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d failed", ErrPartialFailure, failed, len(results))
	}
	return results, nil
}

// sendChunk issues one batch request. The batch endpoint answers 200 even when
// individual messages are rejected; per-message error codes are classified
// into each element's Err.
func (c *Client) sendChunk(ctx context.Context, path string, msgs []Message, templated bool) ([]MessageResult, error) {
	if c.config.TestMode {
		results := make([]MessageResult, len(msgs))
		for i, m := range msgs {
			payload, err := marshalMessage(m, c.defaults())
			if err != nil {
				return nil, err
			}
			results[i] = MessageResult{Result: *c.dryRun(m, payload)}
		}
		return results, nil
	}

	var body []byte
	var err error
	if templated {
		body, err = marshalTemplateBatch(msgs, c.defaults())
	} else {
		body, err = marshalBatch(msgs, c.defaults())
	}
	if err != nil {
		return nil, err
	}

	status, respBody, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ClassifyStatus(status, respBody)
	}

	var elems []apiResult
	if err := json.Unmarshal(respBody, &elems); err != nil {
		return nil, &TransportError{Cause: fmt.Errorf("parsing batch response: %w", err)}
	}
	if len(elems) != len(msgs) {
		return nil, &TransportError{Cause: fmt.Errorf("batch response has %d results for %d messages", len(elems), len(msgs))}
	}

	results := make([]MessageResult, len(elems))
	for i, e := range elems {
		if e.ErrorCode != 0 {
			results[i] = MessageResult{Err: classifyCode(e.ErrorCode, e.Message)}
			continue
		}
		results[i] = MessageResult{Result: Result{
			Status:      StatusSent,
			MessageID:   e.MessageID,
			To:          e.To,
			SubmittedAt: e.SubmittedAt,
		}}
	}
	return results, nil
}

// post issues one synchronous request. Any failure to obtain and read a
// response surfaces as a TransportError; HTTP-level outcomes are left to the
// caller to classify.
func (c *Client) post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, &TransportError{Cause: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(serverTokenHeader, c.config.ServerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, &TransportError{Cause: fmt.Errorf("reading response: %w", err)}
	}
	return resp.StatusCode, respBody, nil
}

// dryRun fabricates a local result carrying the exact payload that would have
// been transmitted, so callers can inspect the wire format without a token.
func (c *Client) dryRun(m Message, payload []byte) *Result {
	return &Result{
		Status:      StatusDryRun,
		MessageID:   uuid.NewString(),
		To:          joinAddrs(m.To),
		SubmittedAt: time.Now().UTC(),
		Payload:     payload,
	}
}
