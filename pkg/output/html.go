package output

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

const htmlStyle = `<style>
body{font-family:system-ui,Arial,sans-serif;margin:20px;line-height:1.4}
.header{background:#f0f0f0;padding:20px;border-radius:5px}
.stats{display:flex;gap:20px;margin:20px 0}
.stat{background:#e8f4fd;padding:15px;border-radius:5px;text-align:center}
table{border-collapse:collapse;margin:8px 0}
td,th{border:1px solid #ddd;padding:6px;text-align:left}
.bug{border:1px solid #ddd;margin:10px 0;padding:15px;border-radius:5px}
.critical{border-left:5px solid #ff0000}
.high{border-left:5px solid #ff8800}
.medium{border-left:5px solid #ffaa00}
.low{border-left:5px solid #00aa00}
.info{border-left:5px solid #0088ff}
.title{font-weight:bold;font-size:1.1em}
.meta{color:#666;font-size:0.9em;margin:5px 0}
.code{background:#f5f5f5;padding:10px;font-family:ui-monospace,Menlo,Consolas,monospace;border-radius:3px}
.tag{background:#e0e0e0;padding:2px 8px;border-radius:12px;font-size:0.8em;margin-right:5px}
</style>`

// HTMLFormatter renders a report as a standalone HTML page.
type HTMLFormatter struct {
	opts FormatOptions
}

// NewHTMLFormatter creates a new HTML formatter with the given options.
func NewHTMLFormatter(opts FormatOptions) *HTMLFormatter {
	return &HTMLFormatter{opts: opts}
}

// Name returns the format name.
func (f *HTMLFormatter) Name() string {
	return "html"
}

// Format renders the report as HTML. Every record field is escaped.
func (f *HTMLFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	st := report.Statistics
	esc := html.EscapeString

	fmt.Fprint(w, "<!doctype html><html><head><meta charset='utf-8'><title>Bug Inspection Report</title>")
	fmt.Fprint(w, htmlStyle)
	fmt.Fprint(w, "</head><body>")

	fmt.Fprint(w, "<div class='header'><h1>Bug Inspection Report</h1>")
	fmt.Fprintf(w, "<p>Generated on: %s</p>", report.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "<p>Total bugs: %d</p></div>", st.Total)

	fmt.Fprint(w, "<div class='stats'>")
	for _, s := range bug.Severities {
		fmt.Fprintf(w, "<div class='stat'><h3>%s</h3><div>%d</div></div>",
			esc(bug.DisplayName(s)), st.BySeverity[s])
	}
	fmt.Fprint(w, "</div>")

	if !f.opts.Quiet {
		fmt.Fprint(w, "<h2>By Status</h2><table><tr><th>Status</th><th>Count</th></tr>")
		for _, s := range bug.Statuses {
			fmt.Fprintf(w, "<tr><td>%s</td><td>%d</td></tr>", esc(bug.DisplayName(s)), st.ByStatus[s])
		}
		fmt.Fprint(w, "</table>")

		if len(st.ByFile) > 0 {
			fmt.Fprint(w, "<h2>Top Files</h2><table><tr><th>File</th><th>Bugs</th></tr>")
			for _, fc := range st.ByFile {
				fmt.Fprintf(w, "<tr><td>%s</td><td>%d</td></tr>", esc(fc.File), fc.Count)
			}
			fmt.Fprint(w, "</table>")
		}

		fmt.Fprint(w, "<h2>Bug Details</h2>")
		if !report.HasBugs() {
			fmt.Fprint(w, "<p>No bugs found matching the criteria.</p>")
		}
		for _, b := range report.Bugs {
			writeHTMLBug(w, b)
		}
	}

	_, err := fmt.Fprint(w, "</body></html>\n")
	return err
}

func writeHTMLBug(w io.Writer, b *bug.Bug) {
	esc := html.EscapeString

	fmt.Fprintf(w, "<div class='bug %s'>", esc(string(b.Severity)))
	fmt.Fprintf(w, "<div class='title'>%s</div>", esc(b.Title))

	fmt.Fprintf(w, "<div class='meta'><strong>Type:</strong> %s | <strong>Severity:</strong> %s | <strong>Status:</strong> %s",
		esc(bug.DisplayName(b.Type)), esc(bug.DisplayName(b.Severity)), esc(bug.DisplayName(b.Status)))
	if b.FilePath != "" {
		loc := b.FileName()
		if b.Line != nil {
			loc = fmt.Sprintf("%s:%d", loc, *b.Line)
		}
		fmt.Fprintf(w, " | <strong>Location:</strong> %s", esc(loc))
	}
	fmt.Fprint(w, "</div>")

	fmt.Fprintf(w, "<div class='meta'><strong>Created:</strong> %s | <strong>Updated:</strong> %s",
		b.CreatedAt.Format("2006-01-02 15:04"), b.UpdatedAt.Format("2006-01-02 15:04"))
	if b.Assignee != "" {
		fmt.Fprintf(w, " | <strong>Assigned to:</strong> %s", esc(b.Assignee))
	}
	fmt.Fprint(w, "</div>")

	fmt.Fprintf(w, "<p>%s</p>", esc(b.Description))
	if b.Snippet != "" {
		fmt.Fprintf(w, "<div class='code'>%s</div>", esc(b.Snippet))
	}
	if len(b.Tags) > 0 {
		var tags strings.Builder
		for _, t := range b.Tags {
			fmt.Fprintf(&tags, "<span class='tag'>%s</span>", esc(t))
		}
		fmt.Fprintf(w, "<div class='tags'>%s</div>", tags.String())
	}
	fmt.Fprint(w, "</div>")
}
