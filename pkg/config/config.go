package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/rules"
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, or returns the validated defaults when path is
// empty.
func LoadOrDefault(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return Load(ctx, path)
	}
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for errors and compiles the rule table.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.StoragePath) == "" {
		return errors.New("storage_path: must not be empty")
	}

	if err := validateLogging(&cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	groups := rules.WithoutMessages(rules.DefaultGroups(), cfg.DisabledRules)
	for i := range cfg.Rules {
		g, err := buildGroup(&cfg.Rules[i])
		if err != nil {
			return fmt.Errorf("rules[%d] (%s): %w", i, cfg.Rules[i].Family, err)
		}
		groups = append(groups, g)
	}

	extensions := append(append([]string(nil), rules.DefaultExtensions...), cfg.Extensions...)
	set, err := rules.NewSet(extensions, groups...)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	cfg.ruleSet = set

	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateLogging(lc *LoggingConfig) error {
	lc.Level = strings.ToLower(lc.Level)
	switch lc.Level {
	case "":
		lc.Level = DefaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level %q (must be debug, info, warn, or error)", lc.Level)
	}

	lc.Format = strings.ToLower(lc.Format)
	switch lc.Format {
	case "":
		lc.Format = DefaultLogFormat
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q (must be text or json)", lc.Format)
	}
	return nil
}

func buildGroup(gc *RuleGroupConfig) (rules.Group, error) {
	family, err := rules.ParseFamily(gc.Family)
	if err != nil {
		return rules.Group{}, err
	}
	if len(gc.Patterns) == 0 {
		return rules.Group{}, errors.New("at least one pattern is required")
	}

	concern := rules.Concern(gc.Concern)
	if concern == "" {
		concern = rules.ConcernCustom
	}

	g := rules.Group{Family: family, Concern: concern}
	for i, pc := range gc.Patterns {
		if pc.Pattern == "" {
			return rules.Group{}, fmt.Errorf("patterns[%d]: pattern is required", i)
		}
		typ, err := bug.ParseClassification(pc.Type)
		if err != nil {
			return rules.Group{}, fmt.Errorf("patterns[%d]: %w", i, err)
		}
		msg := pc.Message
		if msg == "" {
			msg = pc.Pattern
		}
		g.Rules = append(g.Rules, rules.Rule{Pattern: pc.Pattern, Type: typ, Message: msg})
	}
	return g, nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	switch wh.Trigger {
	case "":
		wh.Trigger = WebhookTriggerOnFindings
	case WebhookTriggerOnFindings, WebhookTriggerAlways, WebhookTriggerNever:
	default:
		return fmt.Errorf("invalid trigger %q (must be on_findings, always, or never)", wh.Trigger)
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}
	return s
}
