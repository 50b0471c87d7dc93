package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/config"
	"github.com/ccollicutt/buginspector/pkg/detector"
	"github.com/ccollicutt/buginspector/pkg/parser"
	"github.com/ccollicutt/buginspector/pkg/webhook"
)

// failNone disables the findings exit code.
const failNone = "none"

// ScanOptions holds command-line options for the scan command.
type ScanOptions struct {
	Recursive  bool
	Output     string
	OutputFile string
	DryRun     bool
	FailOn     string
	Quiet      bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewScanCommand creates the scan command.
func NewScanCommand(g *GlobalOptions) *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Scan files or directories for bugs",
		Long: `Scan source files for suspicious patterns and record the findings.

Each path may be a file, a directory or a glob pattern such as 'src/*.py'.
Paths are scanned in sorted order and directories are walked in lexical
order, skipping the configured exclude_dirs. Findings are added to the bug
store unless --dry-run is given.

Detects:
  - Line patterns (security, logic, style, performance) per language
  - Python syntax errors
  - Python structure issues (missing docstrings, bare except, eval/exec)

Exit codes:
  0 - No findings at or above --fail-on
  1 - Findings at or above --fail-on
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, g, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Recursive, "recursive", "r", true, "Descend into subdirectories")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.OutputFile, "output-file", "", "Also write the findings to this JSON file")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report findings without storing them")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", string(bug.SeverityInfo), "Exit 1 when a finding has this severity or higher (none to disable)")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", webhook.TriggerOnFindings, "When to fire webhook (on_findings|always|never)")

	return cmd
}

func runScan(cmd *cobra.Command, g *GlobalOptions, paths []string, opts *ScanOptions) error {
	ExitCode = 0

	failOn, err := parseFailOn(opts.FailOn)
	if err != nil {
		return err
	}
	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	paths, err = parser.ExpandGlobs(paths)
	if err != nil {
		return err
	}

	env, err := g.Setup(cmd)
	if err != nil {
		return err
	}
	ctx := contextOf(cmd)

	d := detector.New(env.Config.RuleSet(),
		detector.WithLogger(env.Logger),
		detector.WithExcludeDirs(env.Config.ExcludeDirs))

	res := d.ScanPaths(ctx, paths, opts.Recursive)
	for _, p := range res.Missing {
		env.Logger.Warn("path does not exist", "path", p)
	}
	if len(res.Missing) == len(paths) {
		return fmt.Errorf("no such file or directory: %s", strings.Join(paths, ", "))
	}

	if !opts.DryRun {
		for _, b := range res.Bugs {
			env.Store.Add(b)
		}
		if err := env.saved(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if err := printScan(out, res, opts); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.OutputFile != "" {
		if err := writeFindings(opts.OutputFile, res.Bugs); err != nil {
			return err
		}
	}

	// Webhook failures are logged but don't fail the scan
	sendWebhooks(ctx, env.Logger, env.Config, opts, webhook.NewScanSummary(paths, res.FilesScanned, res.Bugs))

	if failOn != "" && hasSeverity(res.Bugs, failOn) {
		ExitCode = 1
	}
	return nil
}

func parseFailOn(s string) (bug.Severity, error) {
	if strings.EqualFold(s, failNone) {
		return "", nil
	}
	sev, err := bug.ParseSeverity(strings.ToLower(s))
	if err != nil {
		return "", fmt.Errorf("--fail-on: %w", err)
	}
	return sev, nil
}

func hasSeverity(bugs []*bug.Bug, min bug.Severity) bool {
	for _, b := range bugs {
		if b.Severity.AtLeast(min) {
			return true
		}
	}
	return false
}

func printScan(w io.Writer, res *detector.Result, opts *ScanOptions) error {
	if opts.Output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		bugs := res.Bugs
		if bugs == nil {
			bugs = []*bug.Bug{}
		}
		return enc.Encode(struct {
			FilesScanned int        `json:"files_scanned"`
			Missing      []string   `json:"missing,omitempty"`
			Bugs         []*bug.Bug `json:"bugs"`
		}{res.FilesScanned, res.Missing, bugs})
	}

	if !opts.Quiet {
		for _, b := range res.Bugs {
			printBugLine(w, b)
		}
		if len(res.Bugs) > 0 {
			fmt.Fprintln(w)
		}
	}

	counts := make(map[bug.Severity]int)
	for _, b := range res.Bugs {
		counts[b.Severity]++
	}
	parts := make([]string, 0, len(bug.Severities))
	for _, sev := range bug.Severities {
		if n := counts[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	summary := fmt.Sprintf("Scanned %d file(s), found %d bug(s)", res.FilesScanned, len(res.Bugs))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	if opts.DryRun {
		summary += " [dry run, not stored]"
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func writeFindings(path string, bugs []*bug.Bug) error {
	if bugs == nil {
		bugs = []*bug.Bug{}
	}
	data, err := json.MarshalIndent(bugs, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- reports are meant to be shared
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// sendWebhooks posts the scan summary to all configured webhooks.
// Errors are logged but don't fail the scan.
func sendWebhooks(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts *ScanOptions, summary *webhook.ScanSummary) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !webhook.ShouldSend(string(wh.Trigger), summary) {
			continue
		}

		resp := client.Send(ctx, summary, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			logger.Info("webhook sent", "webhook", name, "status", resp.StatusCode, "duration", resp.Duration)
		} else {
			logger.Error("webhook failed", "webhook", name, "error", resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ScanOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnFindings
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}
