// Package httpapi holds the JSON-over-HTTP plumbing shared by the embedding
// and LLM provider adapters: base URL joining, auth headers, rate limiting and
// provider error decoding.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ratelimit"
)

// DefaultTimeout applies when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Options configures a Client.
type Options struct {
	// Provider prefixes error messages, e.g. "openai".
	Provider string
	BaseURL  string
	Timeout  time.Duration
	// Header is sent on every request, including probes.
	Header http.Header
	// Limiter throttles PostJSON. Nil means unlimited.
	Limiter *ratelimit.Limiter
}

// Client talks to one provider endpoint.
type Client struct {
	provider string
	baseURL  string
	header   http.Header
	http     *http.Client
	limiter  *ratelimit.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	header := opts.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		provider: opts.Provider,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		header:   header,
		http:     &http.Client{Timeout: opts.Timeout},
		limiter:  opts.Limiter,
	}
}

// BaseURL returns the endpoint root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StatusError is a non-success reply from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimited reports whether the provider rejected the call with 429.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// PostJSON sends in as a JSON body to path and decodes the reply into out.
// Calls wait on the limiter first, and a 429 reply extends its backoff.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	c.limiter.Observe(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if msg, ok := envelopeError(body); ok {
		code := resp.StatusCode
		if code == http.StatusOK {
			code = 0
		}
		return &StatusError{Provider: c.provider, StatusCode: code, Message: msg}
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Probe issues an unthrottled GET to path and expects 200.
// Health checks use it against a listing endpoint so no inference runs.
func (c *Client) Probe(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Message: "unreadable body"}
	}
	msg, ok := envelopeError(body)
	if !ok {
		msg = strings.TrimSpace(string(body))
	}
	return &StatusError{Provider: c.provider, StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// envelopeError extracts the message from an {"error": ...} body. OpenAI and
// Anthropic send an object with a message field; Ollama sends a bare string.
func envelopeError(body []byte) (string, bool) {
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil || len(env.Error) == 0 || string(env.Error) == "null" {
		return "", false
	}

	var text string
	if json.Unmarshal(env.Error, &text) == nil && text != "" {
		return text, true
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(env.Error, &obj) == nil && obj.Message != "" {
		return obj.Message, true
	}
	return "", false
}
