package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
storage_path: /tmp/bugs.json
logging:
  level: debug
  format: json
extensions:
  - .ts
disabled_rules:
  - Debug statement left in code
rules:
  - family: python
    concern: security
    patterns:
      - pattern: 'yaml\.load\('
        type: security_vulnerability
        message: Unsafe yaml.load
`
	path := writeTempFile(t, "config.yaml", content)
	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/bugs.json", cfg.StoragePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	set := cfg.RuleSet()
	require.NotNil(t, set, "RuleSet() after Load")
	assert.True(t, set.Supports("app.ts"), "extra extension .ts not supported")
	assert.True(t, set.Supports("app.py"), "built-in extension .py dropped")

	var messages []string
	for _, g := range set.Groups() {
		for _, r := range g.Rules {
			messages = append(messages, r.Message)
		}
	}
	assert.Contains(t, messages, "Unsafe yaml.load")
	assert.NotContains(t, messages, "Debug statement left in code")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(context.Background(), "/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTempFile(t, "invalid.yaml", `invalid: yaml: content: [`)
	_, err := Load(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadOrDefault_NoPath(t *testing.T) {
	t.Setenv(EnvStorage, "")
	cfg, err := LoadOrDefault(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultStoragePath, cfg.StoragePath)
	require.NotNil(t, cfg.RuleSet())
	assert.NotZero(t, cfg.RuleSet().Len())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvStorage, "/data/bugs.json")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvLogFormat, "json")

	cfg, err := LoadOrDefault(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "/data/bugs.json", cfg.StoragePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty storage", func(c *Config) { c.StoragePath = " " }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad family", func(c *Config) {
			c.Rules = []RuleGroupConfig{{Family: "cobol", Patterns: []PatternConfig{{Pattern: "x", Type: "logic_error"}}}}
		}},
		{"no patterns", func(c *Config) {
			c.Rules = []RuleGroupConfig{{Family: "python"}}
		}},
		{"empty pattern", func(c *Config) {
			c.Rules = []RuleGroupConfig{{Family: "python", Patterns: []PatternConfig{{Type: "logic_error"}}}}
		}},
		{"bad type", func(c *Config) {
			c.Rules = []RuleGroupConfig{{Family: "python", Patterns: []PatternConfig{{Pattern: "x", Type: "oops"}}}}
		}},
		{"bad regex", func(c *Config) {
			c.Rules = []RuleGroupConfig{{Family: "general", Patterns: []PatternConfig{{Pattern: "(", Type: "logic_error"}}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidate_CustomRuleDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = []RuleGroupConfig{{
		Family:   "general",
		Patterns: []PatternConfig{{Pattern: `XXX`, Type: "code_quality"}},
	}}
	require.NoError(t, Validate(cfg))

	groups := cfg.RuleSet().Groups()
	last := groups[len(groups)-1]
	assert.EqualValues(t, "custom", last.Concern)
	assert.Equal(t, "XXX", last.Rules[0].Message, "message defaults to the pattern")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultStoragePath, cfg.StoragePath)
	assert.Equal(t, DefaultExcludeDirs, cfg.ExcludeDirs)

	cfg.ExcludeDirs[0] = "changed"
	assert.NotEqual(t, "changed", DefaultExcludeDirs[0], "DefaultConfig shares ExcludeDirs with the package default")
}

// ============================================================================
// Webhook Validation Tests
// ============================================================================

func TestValidate_Webhook(t *testing.T) {
	tests := []struct {
		name    string
		webhook WebhookConfig
		wantErr bool
	}{
		{"https", WebhookConfig{Name: "w", URL: "https://example.com/webhook", Trigger: WebhookTriggerOnFindings}, false},
		{"http", WebhookConfig{URL: "http://localhost:8080/webhook"}, false},
		{"missing url", WebhookConfig{Name: "no-url"}, true},
		{"ftp scheme", WebhookConfig{URL: "ftp://example.com/webhook"}, true},
		{"no host", WebhookConfig{URL: "https:///path"}, true},
		{"bad trigger", WebhookConfig{URL: "https://example.com", Trigger: "on_issues"}, true},
		{"always", WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerAlways}, false},
		{"never", WebhookConfig{URL: "https://example.com", Trigger: WebhookTriggerNever}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Webhooks = []WebhookConfig{tt.webhook}
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_Webhook_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Webhooks = []WebhookConfig{{URL: "https://example.com/webhook"}}
	require.NoError(t, Validate(cfg))

	assert.Equal(t, WebhookTriggerOnFindings, cfg.Webhooks[0].Trigger)
	assert.Equal(t, DefaultWebhookTimeout, cfg.Webhooks[0].Timeout)
}

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TEST_WEBHOOK_TOKEN", "secret-value")

	tests := []struct {
		input string
		want  string
	}{
		{"${TEST_WEBHOOK_TOKEN}", "secret-value"},
		{"$TEST_WEBHOOK_TOKEN", "secret-value"},
		{"plain-value", "plain-value"},
		{"", ""},
		{"${NONEXISTENT_VAR}", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvVar(tt.input), "expandEnvVar(%q)", tt.input)
	}
}

func TestLoad_WithWebhooks(t *testing.T) {
	content := `
webhooks:
  - name: team-chat
    url: "https://example.com/webhook"
    trigger: on_findings
    timeout: 30s
  - url: "https://backup.example.com/webhook"
    trigger: always
`
	path := writeTempFile(t, "config-with-webhooks.yaml", content)
	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, cfg.Webhooks, 2)
	assert.Equal(t, 30*time.Second, cfg.Webhooks[0].Timeout)
	assert.Equal(t, WebhookTriggerAlways, cfg.Webhooks[1].Trigger)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
