package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client performs authenticated calls against the repository hosting API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether a token is available.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// Response is an upstream answer, relayed as is. The caller must close Body.
type Response struct {
	StatusCode    int
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Do sends one call. Any HTTP status is a successful relay; only transport
// failures return an error. The body is streamed, never buffered or cut.
func (c *Client) Do(ctx context.Context, call Call, body io.Reader) (*Response, error) {
	if !call.Body {
		body = nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, call.Method, c.baseURL+call.Path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)
	httpReq.Header.Set("Accept", "application/vnd.github+json")
	httpReq.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	httpReq.Header.Set("User-Agent", "weddingsite-repo-proxy")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", call.Method, call.Action, err)
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
