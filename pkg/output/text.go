package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

const (
	ruleWide   = 60
	ruleNarrow = 20
	titleWidth = 50
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts   FormatOptions
	colors map[bug.Severity]*color.Color
	bold   *color.Color
}

// NewTextFormatter creates a new text formatter with the given options.
// Colors follow fatih/color, which turns them off when stdout is not a
// terminal.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	f := &TextFormatter{
		opts: opts,
		colors: map[bug.Severity]*color.Color{
			bug.SeverityCritical: color.New(color.FgRed, color.Bold),
			bug.SeverityHigh:     color.New(color.FgRed),
			bug.SeverityMedium:   color.New(color.FgYellow),
			bug.SeverityLow:      color.New(color.FgGreen),
			bug.SeverityInfo:     color.New(color.FgCyan),
		},
		bold: color.New(color.Bold),
	}
	if opts.NoColor {
		for _, c := range f.colors {
			c.DisableColor()
		}
		f.bold.DisableColor()
	}
	return f
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	switch {
	case f.opts.Quiet:
		return f.formatQuiet(report, w)
	case report.Metadata.File != "":
		return f.formatFile(report, w)
	}
	if err := f.formatSummary(report, w); err != nil {
		return err
	}
	if f.opts.Verbose {
		return f.formatDetailed(report, w)
	}
	return nil
}

// severity renders a severity tag in its color.
func (f *TextFormatter) severity(s bug.Severity) string {
	c, ok := f.colors[s]
	if !ok {
		return strings.ToUpper(string(s))
	}
	return c.Sprint(strings.ToUpper(string(s)))
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	st := report.Statistics
	_, err := fmt.Fprintf(w, "BugInspector: %d bugs, %d open, %d critical, %d high\n",
		st.Total,
		st.ByStatus[bug.StatusOpen],
		st.BySeverity[bug.SeverityCritical],
		st.BySeverity[bug.SeverityHigh])
	return err
}

func (f *TextFormatter) formatSummary(report *Report, w io.Writer) error {
	st := report.Statistics

	fmt.Fprintln(w, strings.Repeat("=", ruleWide))
	fmt.Fprintln(w, f.bold.Sprint("BUG INSPECTION SUMMARY REPORT"))
	fmt.Fprintln(w, strings.Repeat("=", ruleWide))
	fmt.Fprintf(w, "Generated on: %s\n", report.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total Bugs: %d\n\n", st.Total)

	section(w, "STATUS BREAKDOWN:")
	for _, s := range bug.Statuses {
		if n := st.ByStatus[s]; n > 0 {
			label := strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
			fmt.Fprintf(w, "  %-15s: %3d (%5.1f%%)\n", label, n, percent(n, st.Total))
		}
	}
	fmt.Fprintln(w)

	section(w, "SEVERITY BREAKDOWN:")
	for _, s := range bug.Severities {
		if n := st.BySeverity[s]; n > 0 {
			// Pad before coloring so escape codes do not skew the columns.
			label := fmt.Sprintf("%-15s", strings.ToUpper(string(s)))
			fmt.Fprintf(w, "  %s: %3d (%5.1f%%)\n", f.paint(s, label), n, percent(n, st.Total))
		}
	}
	fmt.Fprintln(w)

	section(w, "BUG TYPE BREAKDOWN:")
	for _, c := range bug.Classifications {
		if n := st.ByType[c]; n > 0 {
			fmt.Fprintf(w, "  %-20s: %3d (%5.1f%%)\n", bug.DisplayName(c), n, percent(n, st.Total))
		}
	}
	fmt.Fprintln(w)

	if len(st.ByFile) > 0 {
		section(w, "TOP FILES WITH BUGS:")
		for i, fc := range st.ByFile {
			if i == highlightLimit {
				break
			}
			fmt.Fprintf(w, "  %-30s: %3d bugs\n", fc.File, fc.Count)
		}
		fmt.Fprintln(w)
	}

	f.formatHighlights(w, "CRITICAL BUGS:", report.Critical)
	f.formatHighlights(w, "HIGH PRIORITY BUGS:", report.High)

	section(w, "RECOMMENDATIONS:")
	if len(report.Recommendations) == 0 {
		fmt.Fprintln(w, "  None")
	}
	for _, r := range report.Recommendations {
		fmt.Fprintf(w, "  - %s\n", r)
	}
	fmt.Fprintln(w)
	_, err := fmt.Fprintln(w, strings.Repeat("=", ruleWide))
	return err
}

func (f *TextFormatter) formatHighlights(w io.Writer, title string, bugs []*bug.Bug) {
	if len(bugs) == 0 {
		return
	}
	section(w, title)
	for _, b := range bugs {
		marker := " "
		if b.Status == bug.StatusOpen {
			marker = f.paint(b.Severity, "*")
		}
		fmt.Fprintf(w, "  %s %s\n", marker, truncate(b.Title, titleWidth))
		if b.FilePath != "" {
			fmt.Fprintf(w, "    %s:%s\n", b.FileName(), lineOrUnknown(b))
		}
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatDetailed(report *Report, w io.Writer) error {
	fmt.Fprintln(w)
	fmt.Fprintln(w, f.bold.Sprint("DETAILED BUG REPORT"))
	fmt.Fprintf(w, "Total bugs: %d\n", len(report.Bugs))
	if !report.HasBugs() {
		_, err := fmt.Fprintln(w, "No bugs found matching the criteria.")
		return err
	}
	for _, b := range report.Bugs {
		fmt.Fprintln(w, strings.Repeat("-", ruleWide))
		f.formatBug(w, b)
	}
	_, err := fmt.Fprintln(w, strings.Repeat("-", ruleWide))
	return err
}

func (f *TextFormatter) formatBug(w io.Writer, b *bug.Bug) {
	fmt.Fprintf(w, "[%s] %s %s\n", b.ShortID(), f.severity(b.Severity), b.Title)
	fmt.Fprintf(w, "  Type: %s\n", bug.DisplayName(b.Type))
	fmt.Fprintf(w, "  Status: %s\n", bug.DisplayName(b.Status))
	fmt.Fprintf(w, "  Created: %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Updated: %s\n", b.UpdatedAt.Format("2006-01-02 15:04:05"))
	if b.Assignee != "" {
		fmt.Fprintf(w, "  Assigned to: %s\n", b.Assignee)
	}
	if b.FilePath != "" {
		fmt.Fprintf(w, "  Location: %s\n", b.Location)
	}
	if len(b.Tags) > 0 {
		fmt.Fprintf(w, "  Tags: %s\n", strings.Join(b.Tags, ", "))
	}
	fmt.Fprintf(w, "  Description: %s\n", b.Description)
	if b.Snippet != "" {
		fmt.Fprintf(w, "  Code: > %s\n", b.Snippet)
	}
}

func (f *TextFormatter) formatFile(report *Report, w io.Writer) error {
	fmt.Fprintln(w, strings.Repeat("=", ruleWide))
	fmt.Fprintf(w, "BUG REPORT FOR: %s\n", report.Metadata.File)
	fmt.Fprintln(w, strings.Repeat("=", ruleWide))
	if !report.HasBugs() {
		_, err := fmt.Fprintf(w, "No bugs found in file: %s\n", report.Metadata.File)
		return err
	}
	fmt.Fprintf(w, "Total bugs in file: %d\n\n", len(report.Bugs))
	for _, b := range report.Bugs {
		line := "Unknown line"
		if b.Line != nil {
			line = fmt.Sprintf("Line %d", *b.Line)
		}
		fmt.Fprintf(w, "%s %s: %s\n", f.severity(b.Severity), line, b.Title)
		fmt.Fprintf(w, "   Type: %s\n", strings.ReplaceAll(string(b.Type), "_", " "))
		fmt.Fprintf(w, "   Status: %s\n", b.Status)
		fmt.Fprintf(w, "   Description: %s\n", b.Description)
		if b.Snippet != "" {
			fmt.Fprintf(w, "   Code: %s\n", b.Snippet)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (f *TextFormatter) paint(s bug.Severity, text string) string {
	if c, ok := f.colors[s]; ok {
		return c.Sprint(text)
	}
	return text
}

func section(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", ruleNarrow))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func lineOrUnknown(b *bug.Bug) string {
	if b.Line == nil {
		return "?"
	}
	return fmt.Sprint(*b.Line)
}
