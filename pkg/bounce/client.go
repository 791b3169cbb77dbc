package bounce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/veepionyc/postmark/pkg/postmark"
)

const serverTokenHeader = "X-Postmark-Server-Token"

const maxResponseSize = 1024 * 1024

// Config holds the bounce client configuration. The token authorizes the same
// server as the send client; reuse the value from postmark.Config.
type Config struct {
	ServerToken    string        `env:"POSTMARK_SERVER_TOKEN,required"`
	BaseURL        string        `env:"POSTMARK_BASE_URL" envDefault:"https://api.postmarkapp.com"`
	RequestTimeout time.Duration `env:"POSTMARK_REQUEST_TIMEOUT" envDefault:"30s"`
}

// Option configures optional Client collaborators.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, ignoring nil for safety.
func WithHTTPClient(doer postmark.HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.client = doer
		}
	}
}

// Client reads bounce records. Safe for concurrent use.
type Client struct {
	config Config
	client postmark.HTTPDoer
}

// New creates a bounce client from the provided configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", postmark.ErrInvalidConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.postmarkapp.com"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	c := &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNew creates a bounce client that panics on invalid config.
func MustNew(cfg Config, opts ...Option) *Client {
	c, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// List returns one page of bounce records matching the filter, newest first.
func (c *Client) List(ctx context.Context, f Filter) (*Page, error) {
	params := url.Values{}
	if f.Type != "" {
		params.Set("type", string(f.Type))
	}
	if f.Inactive != nil {
		params.Set("inactive", strconv.FormatBool(*f.Inactive))
	}
	if f.EmailFilter != "" {
		params.Set("emailFilter", f.EmailFilter)
	}
	if f.MessageID != "" {
		params.Set("messageID", f.MessageID)
	}
	if f.Tag != "" {
		params.Set("tag", f.Tag)
	}
	if f.Count > 0 {
		params.Set("count", strconv.Itoa(f.Count))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/bounces", params)
	if err != nil {
		return nil, fmt.Errorf("listing bounces: %w", err)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("parsing bounce list: %w", err)
	}
	return &page, nil
}

// Get returns a single bounce by id.
func (c *Client) Get(ctx context.Context, id int64) (*Bounce, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/bounces/%d", id), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching bounce %d: %w", id, err)
	}

	var b Bounce
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("parsing bounce %d: %w", id, err)
	}
	return &b, nil
}

// Dump returns the raw SMTP transcript for a bounce, when the server kept one
// (Bounce.DumpAvailable).
func (c *Client) Dump(ctx context.Context, id int64) (string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/bounces/%d/dump", id), nil)
	if err != nil {
		return "", fmt.Errorf("fetching bounce dump %d: %w", id, err)
	}

	var dump struct {
		Body string `json:"Body"`
	}
	if err := json.Unmarshal(body, &dump); err != nil {
		return "", fmt.Errorf("parsing bounce dump %d: %w", id, err)
	}
	return dump.Body, nil
}

// Tags returns the distinct send tags that appear on recorded bounces.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/bounces/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching bounce tags: %w", err)
	}

	var tags []string
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("parsing bounce tags: %w", err)
	}
	return tags, nil
}

// Activate reactivates the address behind a bounce so future sends to it are
// accepted again. Only bounces with CanActivate set can be reactivated.
func (c *Client) Activate(ctx context.Context, id int64) (*Bounce, error) {
	body, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/bounces/%d/activate", id), nil)
	if err != nil {
		return nil, fmt.Errorf("activating bounce %d: %w", id, err)
	}

	var res struct {
		Message string `json:"Message"`
		Bounce  Bounce `json:"Bounce"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("parsing activation result %d: %w", id, err)
	}
	return &res.Bounce, nil
}

// doRequest issues one authenticated request and returns the response body.
// Non-200 responses classify through the shared postmark taxonomy.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	fullURL := c.config.BaseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, &postmark.TransportError{Cause: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(serverTokenHeader, c.config.ServerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &postmark.TransportError{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &postmark.TransportError{Cause: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, postmark.ClassifyStatus(resp.StatusCode, body)
	}
	return body, nil
}
