// Package transport is the shared HTTP layer under every vendor adapter. It
// issues authenticated JSON or form requests with a bounded timeout, converts
// non-2xx responses into typed errors, and emits observe events per call.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/driveloop/fleetlink/fleet"
	"github.com/driveloop/fleetlink/observe"
)

const defaultTimeout = 30 * time.Second

// Client issues requests on behalf of one provider.
type Client struct {
	provider   fleet.ProviderType
	httpClient *http.Client
	retry      RetryPolicy
	sink       observe.Sink
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = normalizeRetryPolicy(p) }
}

func WithSink(sink observe.Sink) Option {
	return func(c *Client) {
		if sink != nil {
			c.sink = sink
		}
	}
}

func New(provider fleet.ProviderType, opts ...Option) *Client {
	c := &Client{
		provider: provider,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		retry: normalizeRetryPolicy(RetryPolicy{}),
		sink:  observe.NoopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one provider call. Body is JSON-encoded when set; Form
// wins over Body and is sent urlencoded. Bearer sets the Authorization
// header; BasicUser/BasicPass set basic auth; Headers are applied last.
type Request struct {
	Method    string
	URL       string
	Query     url.Values
	Headers   map[string]string
	Bearer    string
	BasicUser string
	BasicPass string
	Body      any
	Form      url.Values
}

// Do issues the request and returns the raw response body. Non-2xx responses
// yield a *fleet.RequestError carrying the status and body. Network errors
// and 5xx responses are retried per the client's policy; 4xx never is.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retry.backoffForAttempt(attempt - 1)):
			}
		}

		body, retryable, err := c.doOnce(ctx, req)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// DoJSON issues the request and decodes the JSON response into out. A body
// that fails to decode is a malformed provider response.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", fleet.ErrMalformedResponse, c.provider, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, req Request) (body []byte, retryable bool, err error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.emit(ctx, req, 0, start, err)
		return nil, true, fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		c.emit(ctx, req, resp.StatusCode, start, err)
		return nil, true, fmt.Errorf("failed to read %s response: %w", c.provider, err)
	}

	if resp.StatusCode >= 300 {
		reqErr := &fleet.RequestError{
			Provider: c.provider,
			Status:   resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
		c.emit(ctx, req, resp.StatusCode, start, reqErr)
		return nil, resp.StatusCode >= 500, reqErr
	}

	c.emit(ctx, req, resp.StatusCode, start, nil)
	return body, false, nil
}

func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var reader io.Reader
	contentType := ""
	switch {
	case len(req.Form) > 0:
		reader = strings.NewReader(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request body: %w", c.provider, err)
		}
		reader = bytes.NewReader(raw)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", c.provider, err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}
	if req.BasicUser != "" || req.BasicPass != "" {
		httpReq.SetBasicAuth(req.BasicUser, req.BasicPass)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// emit reports the call without its query string: webfleet-style vendors put
// credentials in query parameters.
func (c *Client) emit(ctx context.Context, req Request, status int, start time.Time, callErr error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	event := observe.Event{
		Provider:   string(c.provider),
		Kind:       observe.KindRequest,
		Status:     observe.StatusCompleted,
		Name:       method + " " + pathOnly(req.URL),
		DurationMs: time.Since(start).Milliseconds(),
		Attributes: map[string]any{},
	}
	if status > 0 {
		event.Attributes["status"] = status
	}
	if callErr != nil {
		event.Status = observe.StatusFailed
		event.Error = callErr.Error()
	}
	_ = c.sink.Emit(ctx, event)
}

func pathOnly(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
