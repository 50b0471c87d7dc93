package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/output"
	"github.com/ccollicutt/buginspector/pkg/store"
)

// StatsOptions holds command-line options for the stats command.
type StatsOptions struct {
	Trend  int
	Output string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(g *GlobalOptions) *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show bug counts",
		Long: `Show counts by status, severity and type, the files with the most
bugs and the average bug age. With --trend N, also show the number of bugs
created on each of the last N days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.Setup(cmd)
			if err != nil {
				return err
			}
			st := env.Store.Statistics()
			var trend *store.Trend
			if opts.Trend > 0 {
				tr := env.Store.Trend(opts.Trend)
				trend = &tr
			}

			w := cmd.OutOrStdout()
			switch opts.Output {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					store.Statistics
					Trend *store.Trend `json:"trend,omitempty"`
				}{st, trend})
			case "text":
				printStats(w, st, trend)
				return nil
			default:
				return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
			}
		},
	}

	cmd.Flags().IntVar(&opts.Trend, "trend", 0, "Show daily creation counts for the last N days")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	return cmd
}

func printStats(w io.Writer, st store.Statistics, trend *store.Trend) {
	fmt.Fprintf(w, "Total bugs: %d\n", st.Total)
	fmt.Fprintf(w, "Average age: %.1f days\n\n", st.AverageAgeDays)

	fmt.Fprintln(w, "By status:")
	for _, s := range bug.Statuses {
		fmt.Fprintf(w, "  %-12s %d\n", s, st.ByStatus[s])
	}
	fmt.Fprintln(w, "\nBy severity:")
	for _, s := range bug.Severities {
		fmt.Fprintf(w, "  %-12s %d\n", s, st.BySeverity[s])
	}
	fmt.Fprintln(w, "\nBy type:")
	for _, c := range bug.Classifications {
		if n := st.ByType[c]; n > 0 {
			fmt.Fprintf(w, "  %-24s %d\n", c, n)
		}
	}
	if len(st.ByFile) > 0 {
		fmt.Fprintln(w, "\nTop files:")
		for _, fc := range st.ByFile {
			fmt.Fprintf(w, "  %-30s %d\n", fc.File, fc.Count)
		}
	}

	if trend != nil {
		fmt.Fprintln(w, "\nCreated per day:")
		for i, d := range trend.Dates {
			fmt.Fprintf(w, "  %s %3d %s\n", d, trend.Total[i], strings.Repeat("#", trend.Total[i]))
		}
	}
}

// ReportOptions holds command-line options for the report command.
type ReportOptions struct {
	Detailed      bool
	IncludeClosed bool
	Quiet         bool
	HTML          string
	JSON          bool
	File          string
}

// NewReportCommand creates the report command.
func NewReportCommand(g *GlobalOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate a bug report",
		Long: `Generate a summary report of the bug store.

Output:
  (default)   Text summary with breakdowns, top files and recommendations
  --detailed  Adds every open bug (every bug with --include-closed)
  --json      The report as JSON
  --html F    Writes a standalone HTML page to F
  --file P    Lists the bugs of one source file by line`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Detailed, "detailed", "d", false, "Include per-bug details")
	cmd.Flags().BoolVar(&opts.IncludeClosed, "include-closed", false, "Include bugs that are not open")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary line only")
	cmd.Flags().StringVar(&opts.HTML, "html", "", "Write an HTML report to this file")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&opts.File, "file", "", "Report on one source file")

	return cmd
}

func runReport(cmd *cobra.Command, g *GlobalOptions, opts *ReportOptions) error {
	env, err := g.Setup(cmd)
	if err != nil {
		return err
	}

	var report *output.Report
	if opts.File != "" {
		report = output.NewFileReport(env.Store, opts.File)
	} else {
		report = output.NewSummary(env.Store, opts.IncludeClosed)
	}
	report.Metadata.Storage = env.Store.Path()

	formatOpts := output.FormatOptions{Verbose: opts.Detailed, Quiet: opts.Quiet}
	ctx := contextOf(cmd)

	if opts.HTML != "" {
		f, err := os.Create(opts.HTML) // #nosec G304 -- user-provided report path is expected
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.HTML, err)
		}
		defer f.Close()
		if err := output.NewHTMLFormatter(formatOpts).Format(ctx, report, f); err != nil {
			return fmt.Errorf("writing %s: %w", opts.HTML, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "HTML report written to %s\n", opts.HTML)
		return nil
	}

	name := "text"
	if opts.JSON {
		name = "json"
	}
	formatter, err := output.New(name, formatOpts)
	if err != nil {
		return err
	}
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}
