// Package memberapi is the HTTP client of the member backend endpoints used
// by the account page.
package memberapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dangun/myaccount/internal/domain"
)

// Endpoint paths of the member backend.
const (
	PathMyInfo        = "/members/my-info"
	PathUpdateInfo    = "/members/my-info-update"
	PathUpdateAddress = "/members/my-address-update"
	PathDeleteInfo    = "/members/my-info-delete"
	PathLogout        = "/auth/logout"
)

// StatusError is returned when the backend answers with a non-2xx status on
// an endpoint whose status is checked.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.StatusCode)
}

// Unwrap classifies every status failure as a transport failure.
func (e *StatusError) Unwrap() error {
	return domain.ErrTransport
}

// Client talks to the member backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero, the default, leaves requests
// unbounded apart from the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MyInfo fetches the current member. The body is decoded whatever the status.
func (c *Client) MyInfo(ctx context.Context, h http.Header) (*domain.ServerResponse, error) {
	return c.call(ctx, http.MethodGet, PathMyInfo, h, nil, false)
}

// UpdateInfo changes the member's nickname.
func (c *Client) UpdateInfo(ctx context.Context, h http.Header, req domain.ProfileUpdate) (*domain.ServerResponse, error) {
	return c.call(ctx, http.MethodPut, PathUpdateInfo, h, req, true)
}

// UpdateAddress changes the member's address.
func (c *Client) UpdateAddress(ctx context.Context, h http.Header, req domain.AddressUpdate) (*domain.ServerResponse, error) {
	return c.call(ctx, http.MethodPut, PathUpdateAddress, h, req, true)
}

// DeleteInfo deletes the member. The body is decoded whatever the status.
func (c *Client) DeleteInfo(ctx context.Context, h http.Header) (*domain.ServerResponse, error) {
	return c.call(ctx, http.MethodDelete, PathDeleteInfo, h, nil, false)
}

// Logout ends the member's server-side session. Only the status matters.
func (c *Client) Logout(ctx context.Context, h http.Header) error {
	resp, err := c.send(ctx, http.MethodPost, PathLogout, h, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: http.MethodPost, Path: PathLogout, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, h http.Header, body any, checkStatus bool) (*domain.ServerResponse, error) {
	resp, err := c.send(ctx, method, path, h, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if checkStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", domain.ErrTransport, method, path, err)
	}

	var out domain.ServerResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrMalformedResponse, method, path, err)
	}

	slog.DebugContext(ctx, "member backend responded",
		"method", method, "path", path, "status", resp.StatusCode, "code", out.Code)
	return &out, nil
}

func (c *Client) send(ctx context.Context, method, path string, h http.Header, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		// The body is read by the caller, so cancel once it is closed.
		resp, err := c.do(ctx, method, path, h, reader)
		if err != nil {
			cancel()
			return nil, err
		}
		resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		return resp, nil
	}
	return c.do(ctx, method, path, h, reader)
}

func (c *Client) do(ctx context.Context, method, path string, h http.Header, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	for k, vs := range h {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", domain.ErrTransport, method, path, err)
	}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
