package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/internal/logging"
	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/config"
	"github.com/ccollicutt/buginspector/pkg/store"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent root flags.
type GlobalOptions struct {
	ConfigPath  string
	StoragePath string
	LogLevel    string
	LogFormat   string
}

// AddFlags registers the persistent flags on the root command.
func (g *GlobalOptions) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file (YAML)")
	flags.StringVarP(&g.StoragePath, "storage", "s", "", "Bug store file (default from config, "+config.DefaultStoragePath+")")
	flags.StringVar(&g.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.StringVar(&g.LogFormat, "log-format", "", "Log format (text|json)")
}

// Env is what a command needs to run: validated configuration, a logger
// and, for store commands, the opened store.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Store  *store.Store
}

// LoadConfig loads the configuration named by --config, or the defaults,
// applies flag overrides and installs the logger.
func (g *GlobalOptions) LoadConfig(cmd *cobra.Command) (*Env, error) {
	cfg, err := config.LoadOrDefault(contextOf(cmd), g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.StoragePath != "" {
		cfg.StoragePath = g.StoragePath
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}

	logger := logging.Init(cfg.Logging.Format, cfg.Logging.Level, cmd.ErrOrStderr())
	return &Env{Config: cfg, Logger: logger}, nil
}

// Setup is LoadConfig plus opening the store.
func (g *GlobalOptions) Setup(cmd *cobra.Command) (*Env, error) {
	env, err := g.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	env.Store = store.Open(env.Config.StoragePath, store.WithLogger(env.Logger))
	return env, nil
}

// saved converts a failed store write into a command error.
func (e *Env) saved() error {
	if err := e.Store.Err(); err != nil {
		return fmt.Errorf("saving %s: %w", e.Store.Path(), err)
	}
	return nil
}

// NewCommands returns every subcommand bound to g.
func NewCommands(g *GlobalOptions) []*cobra.Command {
	return []*cobra.Command{
		NewScanCommand(g),
		NewListCommand(g),
		NewSearchCommand(g),
		NewShowCommand(g),
		NewUpdateCommand(g),
		NewCloseCommand(g),
		NewReopenCommand(g),
		NewAssignCommand(g),
		NewTagCommand(g),
		NewSetStatusCommand(g),
		NewRemoveCommand(g),
		NewClearCommand(g),
		NewStatsCommand(g),
		NewReportCommand(g),
		NewExportCommand(g),
		NewImportCommand(g),
		NewRulesCommand(g),
		NewValidateCommand(),
		NewDiagnoseCommand(g),
		NewVersionCommand(),
	}
}

var errNotFound = errors.New("bug not found")

// resolveID maps an identity or a unique identity prefix, such as the short
// form printed by list, to a stored identity.
func resolveID(s *store.Store, arg string) (string, error) {
	if s.Contains(arg) {
		return arg, nil
	}
	var match string
	for _, b := range s.All() {
		if !strings.HasPrefix(b.ID, arg) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%q matches more than one bug", arg)
		}
		match = b.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", errNotFound, arg)
	}
	return match, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

var severityColors = map[bug.Severity]*color.Color{
	bug.SeverityCritical: color.New(color.FgRed, color.Bold),
	bug.SeverityHigh:     color.New(color.FgRed),
	bug.SeverityMedium:   color.New(color.FgYellow),
	bug.SeverityLow:      color.New(color.FgGreen),
	bug.SeverityInfo:     color.New(color.FgCyan),
}

// printBugLine writes the one-line form used by list, search and scan.
func printBugLine(w io.Writer, b *bug.Bug) {
	sev := fmt.Sprintf("%-8s", strings.ToUpper(string(b.Severity)))
	if c, ok := severityColors[b.Severity]; ok {
		sev = c.Sprint(sev)
	}
	fmt.Fprintf(w, "%s  %s  %-11s  %s", b.ShortID(), sev, b.Status, b.Title)
	if b.FilePath != "" {
		fmt.Fprintf(w, "  (%s)", b.Location)
	}
	fmt.Fprintln(w)
}

// printBug writes every field of b.
func printBug(w io.Writer, b *bug.Bug) {
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprint(b.Title))
	fmt.Fprintf(w, "  %s %s\n", gray("ID:         "), b.ID)
	fmt.Fprintf(w, "  %s %s\n", gray("Type:       "), bug.DisplayName(b.Type))
	fmt.Fprintf(w, "  %s %s\n", gray("Severity:   "), bug.DisplayName(b.Severity))
	fmt.Fprintf(w, "  %s %s\n", gray("Status:     "), bug.DisplayName(b.Status))
	if b.FilePath != "" {
		fmt.Fprintf(w, "  %s %s\n", gray("Location:   "), b.Location)
	}
	if b.Assignee != "" {
		fmt.Fprintf(w, "  %s %s\n", gray("Assigned to:"), b.Assignee)
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(w, "  %s %s\n", gray("Tags:       "), strings.Join(b.Tags, ", "))
	}
	fmt.Fprintf(w, "  %s %s\n", gray("Created:    "), b.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  %s %s\n", gray("Updated:    "), b.UpdatedAt.Format("2006-01-02 15:04:05"))
	if b.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", b.Description)
	}
	if b.Snippet != "" {
		fmt.Fprintf(w, "\n  > %s\n", b.Snippet)
	}
}
