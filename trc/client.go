// Package trc is a client for the Test Result Coordinator, the service that
// collects send- and receive-side results and compares them.
package trc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/miladsoleymani/mqtttester/core"
)

const resultPath = "/api/TestOperationResult"

var _ core.Reporter = (*Client)(nil)

// Client reports test results over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a Client for the coordinator at baseURL.
func New(baseURL string, fns ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range fns {
		fn(c)
	}
	return c
}

type resultRequest struct {
	Source    string `json:"source"`
	Result    string `json:"result"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
}

// ReportResult posts a single result. Any non-2xx response is an error.
func (c *Client) ReportResult(ctx context.Context, source string, result core.TestResult, testType core.TestType, createdAt time.Time) error {
	body, err := json.Marshal(resultRequest{
		Source:    source,
		Result:    result.String(),
		Type:      string(testType),
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("trc: encode result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+resultPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("trc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trc: post result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("trc: post result: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
