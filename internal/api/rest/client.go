// Package rest talks to the consumption backend over its JSON REST API.
//
// Every response is an envelope {success, data?, message?, count?}. A
// success:false envelope becomes an *api.Error carrying the server message; a
// failed call or a body that is not JSON becomes an api.ErrTransport.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"xiaofei/internal/api"
	"xiaofei/internal/core"
)

// DefaultBaseURL is the backend every call is prefixed with unless overridden.
const DefaultBaseURL = "http://localhost:3000/api"

const maxBodyBytes = 4 << 20

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Count   *int            `json:"count,omitempty"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

var _ api.Backend = (*Client)(nil)

// New returns a client for baseURL. An empty baseURL uses DefaultBaseURL; a
// zero timeout leaves only the per-request context deadline.
func New(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, http: newHTTPClient(timeout)}
}

// NewWithHTTPClient is New with a caller-supplied HTTP client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL, 0)
	if hc != nil {
		c.http = hc
	}
	return c
}

// BaseURL returns the address calls are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

func (c *Client) Create(ctx context.Context, nc core.NewConsumption) error {
	_, err := c.do(ctx, http.MethodPost, "/consumption", nil, nc)
	return err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return core.ErrEmptyID
	}
	_, err := c.do(ctx, http.MethodDelete, "/consumption/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *Client) Update(ctx context.Context, id string, p core.Patch) error {
	if strings.TrimSpace(id) == "" {
		return core.ErrEmptyID
	}
	_, err := c.do(ctx, http.MethodPut, "/consumption/"+url.PathEscape(id), nil, p)
	return err
}

func (c *Client) List(ctx context.Context, f core.ListFilter) ([]core.Consumption, error) {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("endDate", f.EndDate)
	}
	env, err := c.do(ctx, http.MethodGet, "/consumption", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]core.Consumption](env)
}

func (c *Client) ListBySubType(ctx context.Context, subType string) ([]core.Consumption, error) {
	if strings.TrimSpace(subType) == "" {
		return nil, core.ErrEmptySubType
	}
	env, err := c.do(ctx, http.MethodGet, "/consumption/type/"+url.PathEscape(subType), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]core.Consumption](env)
}

func (c *Client) ListByTag(ctx context.Context, tag core.Tag) ([]core.Consumption, error) {
	env, err := c.do(ctx, http.MethodGet, "/consumption/tag/"+url.PathEscape(string(tag)), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]core.Consumption](env)
}

func (c *Client) ListPending(ctx context.Context) ([]core.Consumption, error) {
	env, err := c.do(ctx, http.MethodGet, "/consumption/pending", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]core.Consumption](env)
}

func (c *Client) PendingCount(ctx context.Context) (int, error) {
	env, err := c.do(ctx, http.MethodGet, "/consumption/pending", nil, nil)
	if err != nil {
		return 0, err
	}
	if env.Count == nil {
		return 0, nil
	}
	return *env.Count, nil
}

func (c *Client) Channels(ctx context.Context) ([]core.Lookup, error) {
	return c.lookups(ctx, "/channel")
}

func (c *Client) MainTypes(ctx context.Context) ([]core.Lookup, error) {
	return c.lookups(ctx, "/main-type")
}

func (c *Client) SubTypes(ctx context.Context) ([]core.Lookup, error) {
	return c.lookups(ctx, "/sub-type")
}

func (c *Client) lookups(ctx context.Context, path string) ([]core.Lookup, error) {
	env, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]core.Lookup](env)
}

func (c *Client) Statistics(ctx context.Context, startDate, endDate string) (core.Statistics, error) {
	q := url.Values{}
	q.Set("startDate", startDate)
	q.Set("endDate", endDate)
	env, err := c.do(ctx, http.MethodGet, "/consumption/statistics", q, nil)
	if err != nil {
		return core.Statistics{}, err
	}
	return decodeData[core.Statistics](env)
}

// do sends one request and returns the envelope when success is true.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (envelope, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return envelope{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, api.Transport(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return envelope{}, api.Transport(fmt.Errorf("read %s %s: %w", method, path, err))
	}

	slog.DebugContext(ctx, "Backend call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, api.Transport(fmt.Errorf("decode %s %s (status %d): %w", method, path, resp.StatusCode, err))
	}
	if !env.Success {
		return env, &api.Error{Status: resp.StatusCode, Message: env.Message}
	}
	return env, nil
}

func decodeData[T any](env envelope) (T, error) {
	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, api.Transport(fmt.Errorf("decode data: %w", err))
	}
	return out, nil
}
