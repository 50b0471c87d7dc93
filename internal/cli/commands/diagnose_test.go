package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/buginspector/pkg/config"
)

func TestNewDiagnoseCommand(t *testing.T) {
	cmd := NewDiagnoseCommand(&GlobalOptions{})

	assert.Equal(t, "diagnose [config-file]", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("verbose"))
}

func TestCheckConfigExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("storage_path: bugs.json\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		status  string
		message string
	}{
		{"missing", filepath.Join(dir, "nope.yaml"), "error", "not found"},
		{"directory", dir, "error", "directory"},
		{"found", file, "ok", "Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkConfigExists(tt.path)
			assert.Equal(t, tt.status, result.Status)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}

func TestCheckConfigParseable_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_path: [unclosed\n"), 0o644))

	cfg, result := checkConfigParseable(context.Background(), path)
	assert.Nil(t, cfg)
	assert.Equal(t, "error", result.Status)
	assert.NotEmpty(t, result.Suggests, "expected a YAML hint")
}

func TestCheckStorage(t *testing.T) {
	dir := t.TempDir()

	missing := checkStorage(filepath.Join(dir, "none.json"))
	assert.Equal(t, "ok", missing.Status, "missing store")

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))
	assert.Equal(t, "warning", checkStorage(corrupt).Status, "corrupt store")

	partial := filepath.Join(dir, "partial.json")
	content := `[{"id":"a1","title":"t","bug_type":"logic_error","severity":"medium","status":"open"}, 42]`
	require.NoError(t, os.WriteFile(partial, []byte(content), 0o644))
	r := checkStorage(partial)
	assert.Equal(t, "warning", r.Status)
	assert.Contains(t, r.Message, "1 unreadable")
}

func TestCheckRulesAndParser(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, config.Validate(cfg))

	r := checkRules(cfg)
	assert.Equal(t, "ok", r.Status, r.Message)

	p := checkParser(context.Background())
	assert.Equal(t, "ok", p.Status, p.Message)
	assert.NotEmpty(t, p.Details, "expected structural checks in parser details")
}

func TestCheckWebhooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Webhooks = []config.WebhookConfig{
		{Name: "ci", URL: server.URL, Trigger: config.WebhookTriggerAlways},
		{URL: server.URL, Trigger: config.WebhookTriggerNever},
	}

	quiet := checkWebhooks(context.Background(), cfg, &DiagnoseOptions{})
	require.Len(t, quiet, 2, "results without -v")
	assert.Equal(t, "ok", quiet[0].Status)
	assert.Equal(t, "Webhook: ci", quiet[0].Check)
	assert.Equal(t, "warning", quiet[1].Status, "never trigger should warn")

	verbose := checkWebhooks(context.Background(), cfg, &DiagnoseOptions{Verbose: true})
	require.Len(t, verbose, 4, "results with -v")
	assert.Contains(t, verbose[2].Message, "Reachable")

	assert.Empty(t, checkWebhooks(context.Background(), config.DefaultConfig(), &DiagnoseOptions{}))
}

func TestRunDiagnose_Defaults(t *testing.T) {
	var buf bytes.Buffer
	storage := filepath.Join(t.TempDir(), "bugs.json")

	require.NoError(t, runDiagnose(context.Background(), &buf, "", storage, &DiagnoseOptions{}))

	out := buf.String()
	for _, want := range []string{"buginspector Diagnostics", "using defaults", "Bug Store", "Python Parser", "Summary:", "Setup looks good!"} {
		assert.Contains(t, out, want)
	}
}

func TestRunDiagnose_MissingConfigStops(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, runDiagnose(context.Background(), &buf, "/nonexistent/config.yaml", "", &DiagnoseOptions{}))

	out := buf.String()
	assert.Contains(t, out, "[FAIL] Config File")
	assert.NotContains(t, out, "Python Parser", "checks should stop after a missing config")
}
