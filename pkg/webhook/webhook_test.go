package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

func newTestSummary() *ScanSummary {
	bugs := []*bug.Bug{
		bug.MustNew("Security Vulnerability detected", "Use of eval() can be dangerous",
			bug.TypeSecurityVulnerability, bug.At("app.py", 5)),
		bug.MustNew("Logic Error detected", "Bare except clause",
			bug.TypeLogicError, bug.At("app.py", 9)),
	}
	return NewScanSummary([]string{"src"}, 3, bugs)
}

func TestNewScanSummary(t *testing.T) {
	s := newTestSummary()

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 3, s.FilesScanned)
	assert.Equal(t, 1, s.BySeverity[bug.SeverityCritical])
	assert.Equal(t, 1, s.BySeverity[bug.SeverityMedium])
	assert.Len(t, s.BySeverity, len(bug.Severities), "BySeverity should hold every severity")
	assert.Equal(t, []string{"Security Vulnerability detected (app.py:5)"}, s.CriticalTitles)
}

func TestShouldSend(t *testing.T) {
	empty := NewScanSummary(nil, 1, nil)
	found := newTestSummary()

	tests := []struct {
		trigger string
		summary *ScanSummary
		want    bool
	}{
		{"", empty, false},
		{"", found, true},
		{TriggerOnFindings, empty, false},
		{TriggerOnFindings, found, true},
		{TriggerAlways, empty, true},
		{TriggerNever, found, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldSend(tt.trigger, tt.summary), "ShouldSend(%q, total=%d)", tt.trigger, tt.summary.Total)
	}
}

func TestClient_Send_Success(t *testing.T) {
	var receivedBody []byte
	var receivedContentType string
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		receivedAuth = r.Header.Get("Authorization")
		receivedBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(), SendOptions{
		URL: server.URL,
	})

	require.True(t, resp.Success(), "expected success, got error: %v", resp.Error)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"status":"ok"}`, resp.Body)
	assert.Equal(t, "application/json", receivedContentType)
	assert.Empty(t, receivedAuth)

	var payload ScanSummary
	require.NoError(t, json.Unmarshal(receivedBody, &payload))
	assert.Equal(t, 2, payload.Total)
	assert.Equal(t, 1, payload.BySeverity[bug.SeverityCritical])
}

func TestClient_Send_WithBearerToken(t *testing.T) {
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(), SendOptions{
		URL:   server.URL,
		Token: "secret-token-123",
	})

	assert.True(t, resp.Success(), "expected success, got error: %v", resp.Error)
	assert.Equal(t, "Bearer secret-token-123", receivedAuth)
}

func TestClient_Send_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(), SendOptions{
		URL: server.URL,
	})

	assert.False(t, resp.Success())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Error(t, resp.Error)
}

func TestClient_Send_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp := NewClient().Send(context.Background(), newTestSummary(), SendOptions{
		URL:     server.URL,
		Timeout: 50 * time.Millisecond,
	})

	assert.False(t, resp.Success(), "expected failure due to timeout")
	assert.Error(t, resp.Error)
}

func TestClient_Send_InvalidURL(t *testing.T) {
	resp := NewClient().Send(context.Background(), newTestSummary(), SendOptions{
		URL: "://invalid-url",
	})

	assert.False(t, resp.Success())
	assert.Error(t, resp.Error)
}

func TestResponse_Success(t *testing.T) {
	tests := []struct {
		name        string
		resp        Response
		wantSuccess bool
	}{
		{"200 OK", Response{StatusCode: 200}, true},
		{"204 No Content", Response{StatusCode: 204}, true},
		{"400 Bad Request", Response{StatusCode: 400}, false},
		{"500 Server Error", Response{StatusCode: 500}, false},
		{"With Error", Response{StatusCode: 200, Error: io.EOF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSuccess, tt.resp.Success())
		})
	}
}
