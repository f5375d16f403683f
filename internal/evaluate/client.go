package evaluate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultEndpoint is used when no endpoint is configured.
	DefaultEndpoint = "http://localhost:8900"
	// DefaultTimeout bounds a single HTTP attempt.
	DefaultTimeout = 30 * time.Second

	calculatePath = "/calculate"
	maxBodyBytes  = 4 << 20
)

// Client posts canvas snapshots to the evaluation service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	retries    int
	maxUpload  int
	backoff    func(attempt int) time.Duration
}

// Option modifies a Client during creation.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithTimeout sets the per-attempt timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRetries sets how many extra attempts follow a transient failure.
func WithRetries(n int) Option { return func(c *Client) { c.retries = n } }

// WithMaxUpload caps the longest side of the uploaded image in pixels.
func WithMaxUpload(px int) Option { return func(c *Client) { c.maxUpload = px } }

// WithBackoff replaces the delay between attempts.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

// NewClient creates a Client for the service at endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * 250 * time.Millisecond
		},
	}
	for _, o := range opts {
		o(c)
	}
	if c.retries < 0 {
		c.retries = 0
	}
	return c
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

// Evaluate uploads img together with vars and returns the recognised
// entries in response order.
func (c *Client) Evaluate(ctx context.Context, img image.Image, vars map[string]string) ([]Entry, error) {
	uri, err := EncodeDataURI(img, c.maxUpload)
	if err != nil {
		return nil, err
	}
	if vars == nil {
		vars = map[string]string{}
	}
	body, err := json.Marshal(Request{Image: uri, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		entries, err := c.post(ctx, body)
		if err == nil {
			return entries, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
		log.Printf("evaluate: attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("evaluate failed after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+calculatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}
	return ParseResponse(data)
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func retryable(err error) bool {
	if errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
