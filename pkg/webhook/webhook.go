// Package webhook provides an HTTP client for sending scan summaries to
// webhook endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxTitles caps the critical titles carried in a summary.
const maxTitles = 20

// ScanSummary is the JSON payload posted after a scan.
type ScanSummary struct {
	Paths          []string             `json:"paths"`
	FilesScanned   int                  `json:"files_scanned"`
	Total          int                  `json:"total"`
	BySeverity     map[bug.Severity]int `json:"by_severity"`
	CriticalTitles []string             `json:"critical_titles"`
	ScannedAt      time.Time            `json:"scanned_at"`
}

// NewScanSummary summarises the records a scan of paths produced.
func NewScanSummary(paths []string, filesScanned int, bugs []*bug.Bug) *ScanSummary {
	s := &ScanSummary{
		Paths:          paths,
		FilesScanned:   filesScanned,
		Total:          len(bugs),
		BySeverity:     make(map[bug.Severity]int, len(bug.Severities)),
		CriticalTitles: []string{},
		ScannedAt:      time.Now(),
	}
	for _, sev := range bug.Severities {
		s.BySeverity[sev] = 0
	}
	for _, b := range bugs {
		s.BySeverity[b.Severity]++
		if b.Severity == bug.SeverityCritical && len(s.CriticalTitles) < maxTitles {
			s.CriticalTitles = append(s.CriticalTitles, fmt.Sprintf("%s (%s)", b.Title, b.Location))
		}
	}
	return s
}

// Trigger values, matching the config file.
const (
	TriggerOnFindings = "on_findings"
	TriggerAlways     = "always"
	TriggerNever      = "never"
)

// ShouldSend reports whether a webhook with the given trigger fires for s.
// An empty trigger behaves as on_findings.
func ShouldSend(trigger string, s *ScanSummary) bool {
	switch trigger {
	case TriggerAlways:
		return true
	case TriggerNever:
		return false
	default:
		return s.Total > 0
	}
}

// Client sends scan summaries to webhook endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new webhook client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

// SendOptions configures a webhook request.
type SendOptions struct {
	URL     string
	Token   string        // Bearer token (optional)
	Timeout time.Duration // Request timeout (uses DefaultTimeout if zero)
}

// Response contains the result of a webhook request.
type Response struct {
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success returns true if the webhook was sent successfully (2xx status).
func (r *Response) Success() bool {
	return r.Error == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts a scan summary to a webhook endpoint. Failures are returned in
// the Response, never as a panic or a separate error.
func (c *Client) Send(ctx context.Context, summary *ScanSummary, opts SendOptions) *Response {
	start := time.Now()
	resp := &Response{}
	fail := func(err error) *Response {
		resp.Error = err
		resp.Duration = time.Since(start)
		return resp
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal summary: %w", err))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.URL, bytes.NewReader(payload))
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "buginspector-webhook")
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("request failed: %w", err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1024*1024)) // Limit to 1MB
	if err != nil {
		return fail(fmt.Errorf("failed to read response: %w", err))
	}

	resp.StatusCode = httpResp.StatusCode
	resp.Body = string(body)
	resp.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		resp.Error = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return resp
}
