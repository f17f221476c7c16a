// Package api is a typed client for the Realms admin REST API.
//
// Each exported method maps one HTTP call onto one typed result. There are no
// retries, no batching and no caching: a failed call returns its error and the
// caller decides what to show. Identical GETs that are in flight at the same
// time share one round trip.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCookieName is the session cookie issued by the Realms web login.
	DefaultCookieName = "realms_session"
	// UserHeader must carry the id of the logged-in user on every API call.
	UserHeader = "Realms-User"
	// RequestIDHeader correlates client and server logs.
	RequestIDHeader = "X-Request-Id"

	defaultTimeout  = 30 * time.Second
	maxErrorSnippet = 200
)

// Envelope is the response wrapper used by every endpoint.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	UserID        int64
	SessionCookie string
	CookieName    string
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client talks to one Realms deployment on behalf of one admin session.
type Client struct {
	baseURL    *url.URL
	userID     int64
	session    string
	cookieName string
	http       *http.Client
	log        *slog.Logger
	gets       singleflight.Group
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, &ValidationError{Field: "base_url", Reason: "is required"}
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &ValidationError{Field: "base_url", Reason: fmt.Sprintf("is not an absolute URL: %q", raw)}
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	cookieName := opts.CookieName
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    base,
		userID:     opts.UserID,
		session:    opts.SessionCookie,
		cookieName: cookieName,
		http:       hc,
		log:        logger,
	}, nil
}

// BaseURL returns the deployment root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type rawResponse struct {
	status int
	body   []byte
}

// payload is a request body with its content type already decided.
type payload struct {
	contentType string
	body        []byte
}

func jsonPayload(v any) (*payload, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return &payload{contentType: "application/json", body: b}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPost, path, nil, p, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	p, err := jsonPayload(body)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, path, nil, p, out)
}

func (c *Client) delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body *payload, out any) error {
	// path is already escaped by the caller (main group names go through url.PathEscape).
	full := c.baseURL.String() + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var (
		resp *rawResponse
		err  error
	)
	if method == http.MethodGet && body == nil {
		// The shared round trip outlives any one caller's cancellation and is
		// bounded by the http.Client timeout; each caller waits on its own ctx.
		shareCtx := context.WithoutCancel(ctx)
		ch := c.gets.DoChan(full, func() (any, error) {
			return c.roundTrip(shareCtx, method, path, full, nil)
		})
		select {
		case r := <-ch:
			if r.Shared {
				c.log.Debug("api call shared", "method", method, "path", path)
			}
			err = r.Err
			if r.Val != nil {
				resp = r.Val.(*rawResponse)
			}
		case <-ctx.Done():
			return &TransportError{Method: method, Path: path, Err: ctx.Err()}
		}
	} else {
		resp, err = c.roundTrip(ctx, method, path, full, body)
	}
	if err != nil {
		return err
	}
	return decodeEnvelope(method, path, resp, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path, full string, body *payload) (*rawResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.body)
	}
	req, err := http.NewRequestWithContext(ctx, method, full, reader)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if c.userID > 0 {
		req.Header.Set(UserHeader, strconv.FormatInt(c.userID, 10))
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.session})
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api call failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug("api call",
		"method", method,
		"path", path,
		"status", res.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &rawResponse{status: res.StatusCode, body: data}, nil
}

func decodeEnvelope(method, path string, resp *rawResponse, out any) error {
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(resp.body, &env); err != nil {
		if resp.status < 200 || resp.status >= 300 {
			return &Error{Status: resp.status, Method: method, Path: path, Message: errorSnippet(resp)}
		}
		return &Error{Status: resp.status, Method: method, Path: path, Message: "malformed response: " + err.Error()}
	}
	if !env.Success || resp.status < 200 || resp.status >= 300 {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = errorSnippet(resp)
		}
		return &Error{Status: resp.status, Method: method, Path: path, Message: msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Status: resp.status, Method: method, Path: path, Message: "malformed response data: " + err.Error()}
	}
	return nil
}

func errorSnippet(resp *rawResponse) string {
	text := strings.TrimSpace(string(resp.body))
	if text == "" {
		if t := http.StatusText(resp.status); t != "" {
			return t
		}
		return "request failed"
	}
	if len(text) > maxErrorSnippet {
		text = text[:maxErrorSnippet] + "..."
	}
	return text
}

func idPath(format string, ids ...int64) string {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(format, args...)
}
