// Package config provides configuration loading and validation for buginspector.
package config

import (
	"time"

	"github.com/ccollicutt/buginspector/pkg/rules"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// StoragePath is the JSON file the bug store persists to.
	StoragePath string `yaml:"storage_path"`

	Logging LoggingConfig `yaml:"logging"`

	// Extensions are scanned in addition to the built-in extensions.
	Extensions []string `yaml:"extensions,omitempty"`

	// DisabledRules lists built-in rule messages that should not run.
	DisabledRules []string `yaml:"disabled_rules,omitempty"`

	// ExcludeDirs overrides the directory names skipped during directory scans.
	ExcludeDirs []string `yaml:"exclude_dirs,omitempty"`

	// Rules are appended after the built-in rule groups.
	Rules []RuleGroupConfig `yaml:"rules,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`

	// ruleSet is the compiled rule table (populated during validation).
	ruleSet *rules.Set
}

// RuleSet returns the compiled rule table.
func (c *Config) RuleSet() *rules.Set {
	return c.ruleSet
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// RuleGroupConfig is a user-defined group of line patterns.
type RuleGroupConfig struct {
	// Family is python, javascript or general.
	Family string `yaml:"family"`
	// Concern is a free-form label, "custom" when empty.
	Concern  string          `yaml:"concern,omitempty"`
	Patterns []PatternConfig `yaml:"patterns"`
}

// PatternConfig is one user-defined line pattern.
type PatternConfig struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
	Message string `yaml:"message"`
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFindings fires only when a scan produced findings (default).
	WebhookTriggerOnFindings WebhookTrigger = "on_findings"
	// WebhookTriggerAlways fires after every scan.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for scan summaries.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token, ${VAR} and $VAR are expanded.
	Token string `yaml:"token,omitempty"`

	// Trigger defaults to "on_findings".
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout defaults to 10s.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
