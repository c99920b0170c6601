package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// StatusError is a non-2xx answer from a sink endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// CollectorSink posts urlencoded fields with a form-name discriminant to a
// static form collector.
type CollectorSink struct {
	endpoint   string
	httpClient *http.Client
}

func NewCollectorSink(endpoint string, client *http.Client) *CollectorSink {
	return &CollectorSink{endpoint: endpoint, httpClient: newHTTPClient(client)}
}

func (s *CollectorSink) Send(ctx context.Context, sub Submission) error {
	values := sub.Values()
	values.Set("form-name", sub.FormName())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(s.httpClient, req, sub.FormName())
}

// mutationPaths maps form names to the server's JSON endpoints.
var mutationPaths = map[string]string{
	FormHeroSignup:  "/api/newsletter/hero",
	FormNewsletter:  "/api/newsletter/signup",
	FormPartnership: "/api/partnership/inquiry",
}

// MutationSink posts JSON bodies to the server's mutation endpoints.
type MutationSink struct {
	baseURL    string
	httpClient *http.Client
}

func NewMutationSink(baseURL string, client *http.Client) *MutationSink {
	return &MutationSink{baseURL: strings.TrimRight(baseURL, "/"), httpClient: newHTTPClient(client)}
}

func (s *MutationSink) Send(ctx context.Context, sub Submission) error {
	path, ok := mutationPaths[sub.FormName()]
	if !ok {
		return fmt.Errorf("no mutation endpoint for form %q", sub.FormName())
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", sub.FormName(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(s.httpClient, req, sub.FormName())
}

func do(client *http.Client, req *http.Request, form string) error {
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("submit %s: %w", form, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
