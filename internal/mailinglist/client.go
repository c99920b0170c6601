package mailinglist

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
)

// Client talks to the mailing-list provider's REST API. A client without a
// base URL runs in dry-run mode: calls are logged and succeed.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Enabled reports whether a provider is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Contact is the body for POST /contacts.
type Contact struct {
	Email      string            `json:"email"`
	FirstName  string            `json:"firstName,omitempty"`
	Source     string            `json:"source"`
	Subscribed bool              `json:"subscribed"`
	Tags       []string          `json:"tags,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Event is the body for POST /events.
type Event struct {
	Name       string            `json:"eventName"`
	Email      string            `json:"email"`
	Properties map[string]string `json:"eventProperties,omitempty"`
}

// UpstreamError is a failed provider call. Its message is for logs only.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("mailing list %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Subscribe adds or updates a contact. An already subscribed contact is not
// an error.
func (c *Client) Subscribe(ctx context.Context, contact Contact) error {
	contact.Subscribed = true
	return c.post(ctx, "subscribe", "/contacts", contact)
}

// SendEvent records an event against a contact, creating it if needed.
func (c *Client) SendEvent(ctx context.Context, ev Event) error {
	return c.post(ctx, "event "+ev.Name, "/events", ev)
}

func (c *Client) post(ctx context.Context, op, path string, payload any) error {
	if !c.Enabled() {
		c.log.Info("mailing list not configured, skipping", "op", op)
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mailing list %s: %w", op, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299, resp.StatusCode == http.StatusConflict:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
