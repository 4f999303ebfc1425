// Package client is a thin HTTP client for the gophfiles API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnavailable wraps transport failures (connection refused, timeouts).
var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-200 answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

type Client struct {
	base *url.URL
	http *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = u.Path + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query, form url.Values) ([]byte, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	}
	return data, nil
}

// List returns the names of all stored files.
func (c *Client) List(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, "/getFiles", nil, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode file list: %w", err)
	}
	return names, nil
}

func (c *Client) Get(ctx context.Context, filename, password string) ([]byte, error) {
	q := url.Values{"filename": {filename}, "password": {password}}
	return c.do(ctx, http.MethodGet, "/getFile", q, nil)
}

// Create, Update and Delete return the server's confirmation message.

func (c *Client) Create(ctx context.Context, filename string, content []byte, password string) (string, error) {
	form := url.Values{"filename": {filename}, "content": {string(content)}, "password": {password}}
	data, err := c.do(ctx, http.MethodPost, "/createFile", nil, form)
	return string(data), err
}

func (c *Client) Update(ctx context.Context, filename string, content []byte, password string) (string, error) {
	form := url.Values{"filename": {filename}, "content": {string(content)}, "password": {password}}
	data, err := c.do(ctx, http.MethodPut, "/updateFile", nil, form)
	return string(data), err
}

func (c *Client) Delete(ctx context.Context, filename, password string) (string, error) {
	form := url.Values{"filename": {filename}, "password": {password}}
	data, err := c.do(ctx, http.MethodDelete, "/deleteFile", nil, form)
	return string(data), err
}
