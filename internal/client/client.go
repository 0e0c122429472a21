// Package client is a Go client for the DeviceLink API. Besides the raw
// endpoint calls it carries the browse and admin console state a front end
// needs: listings are always re-fetched after a change and replaced wholesale.
package client

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
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx answer from the server. Action names what failed, in
// the words a user would see ("issue warning", "update listing").
type APIError struct {
	Action string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = http.StatusText(e.Status)
	}
	return fmt.Sprintf("failed to %s: %s (%d)", e.Action, detail, e.Status)
}

type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	username string
	isAdmin  bool
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a 15s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession restores a previous login.
func WithSession(s Session) Option {
	return func(c *Client) {
		c.token = s.Token
		c.username = s.Username
		c.isAdmin = s.IsAdmin
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session is the state of the logged in user.
func (c *Client) Session() Session {
	return Session{Token: c.token, Username: c.username, IsAdmin: c.isAdmin}
}

func (c *Client) LoggedIn() bool { return c.token != "" }

func (c *Client) do(ctx context.Context, action, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", action, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Action: action, Status: resp.StatusCode, Detail: errorDetail(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", action, err)
	}
	return nil
}

func errorDetail(data []byte) string {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Message
}
