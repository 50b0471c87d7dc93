package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/analyzer"
	"github.com/ccollicutt/buginspector/pkg/config"
	"github.com/ccollicutt/buginspector/pkg/parser"
	"github.com/ccollicutt/buginspector/pkg/rules"
	"github.com/ccollicutt/buginspector/pkg/store"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [config-file]",
		Short: "Diagnose common setup issues",
		Long: `Diagnose common setup issues.

This command checks:
- Config file syntax and structure (when a config file is given)
- Bug store readability
- Rule table compilation
- The Python syntax tree parser
- Webhook configuration, and reachability with -v

Example:
  buginspector diagnose
  buginspector diagnose -v buginspector.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.ConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			return runDiagnose(contextOf(cmd), cmd.OutOrStdout(), path, g.StoragePath, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath, storagePath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	var cfg *config.Config
	if configPath == "" {
		cfg = config.DefaultConfig()
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("validating default config: %w", err)
		}
		results = append(results, DiagnosticResult{
			Check:   "Config File",
			Status:  "ok",
			Message: "No config file given, using defaults",
		})
	} else {
		result := checkConfigExists(configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}

		cfg, result = checkConfigParseable(ctx, configPath)
		results = append(results, result)
		if result.Status == "error" {
			printDiagnostics(w, results, opts)
			return nil
		}
	}
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}

	results = append(results, checkStorage(cfg.StoragePath))
	results = append(results, checkRules(cfg))
	results = append(results, checkParser(ctx))
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Run without a config file to use the defaults",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		}
		if strings.Contains(err.Error(), "pattern") {
			result.Suggests = append(result.Suggests, "Custom rule patterns use Go regular expression syntax")
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Storage: %s", cfg.StoragePath),
		fmt.Sprintf("Custom rule groups: %d", len(cfg.Rules)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkStorage(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: fmt.Sprintf("Bug Store: %s", path),
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided storage path is expected
	if errors.Is(err, os.ErrNotExist) {
		result.Status = "ok"
		result.Message = "Does not exist yet, it is created on the first change"
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read bug store: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Not a JSON array of bugs: %v", err)
		result.Suggests = []string{
			"The store is treated as empty and overwritten on the next change",
			"Move the file aside to keep its contents",
		}
		return result
	}

	s := store.Open(path, store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if skipped := len(raw) - s.Len(); skipped > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d bug(s), %d unreadable record(s) skipped", s.Len(), skipped)
		result.Suggests = []string{"Unreadable records are dropped on the next change"}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d bug(s)", s.Len())
	return result
}

func checkRules(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Rules",
	}

	set := cfg.RuleSet()
	if set == nil || set.Len() == 0 {
		result.Status = "warning"
		result.Message = "No detection rules are active"
		result.Suggests = []string{
			"Check disabled_rules in your config",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d rule(s) in %d group(s)", set.Len(), len(set.Groups()))
	for _, f := range []rules.Family{rules.FamilyPython, rules.FamilyJavaScript, rules.FamilyGeneral} {
		n := 0
		for _, grp := range set.Applicable(f) {
			n += len(grp.Rules)
		}
		result.Details = append(result.Details, fmt.Sprintf("%s files: %d rule(s)", f, n))
	}
	result.Details = append(result.Details, "Extensions: "+strings.Join(set.Extensions(), " "))
	return result
}

// checkParser parses a valid and an invalid sample so a broken parser build
// shows up before a scan silently reports nothing.
func checkParser(ctx context.Context) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Python Parser",
	}

	py := parser.ForFamily(rules.FamilyPython)
	good, _ := parser.DecodeSource("sample.py", []byte("def f():\n    return 1\n"))
	tree, err := py.Parse(ctx, good)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Valid sample failed to parse: %v", err)
		return result
	}
	tree.Close()

	bad, _ := parser.DecodeSource("sample.py", []byte("def f(:\n"))
	_, err = py.Parse(ctx, bad)
	var serr *parser.SyntaxError
	if !errors.As(err, &serr) {
		result.Status = "error"
		result.Message = "Invalid sample was not reported as a syntax error"
		return result
	}

	result.Status = "ok"
	result.Message = "tree-sitter Python grammar loaded"
	for _, c := range analyzer.DefaultChecks() {
		result.Details = append(result.Details, "Check: "+c.Name())
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== buginspector Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before scanning.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nSetup is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nSetup looks good!")
	}
}

func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Webhook: %s", webhookName(wh)),
		}

		if wh.Trigger == config.WebhookTriggerNever {
			result.Status = "warning"
			result.Message = "Trigger is never, the webhook is disabled"
		} else {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Trigger: %s", wh.Trigger)
		}
		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}

		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(ctx, wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may only accept POST, which is what scans send",
			"Check authentication if using a token",
		}
	}

	return result
}
