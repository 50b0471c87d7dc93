// Package output provides formatting and output generation for bug reports.
package output

import (
	"cmp"
	"slices"
	"time"

	"github.com/ccollicutt/buginspector/pkg/bug"
	"github.com/ccollicutt/buginspector/pkg/store"
)

// highlightLimit caps the critical and high lists of a summary report.
const highlightLimit = 5

// staleAgeDays is the average age past which a report recommends triage.
const staleAgeDays = 30

// Source is the part of the store a report reads.
type Source interface {
	Statistics() store.Statistics
	List(f store.Filter) []*bug.Bug
	ByFile(path string) []*bug.Bug
}

// Report is the complete reporting output.
type Report struct {
	// Statistics are the store-wide counts.
	Statistics store.Statistics `json:"statistics"`

	// Metrics are derived figures for dashboards.
	Metrics Metrics `json:"metrics"`

	// Critical and High hold the first few records of those severities.
	Critical []*bug.Bug `json:"critical"`
	High     []*bug.Bug `json:"high"`

	// Bugs are the records listed in detail, most severe and newest first.
	// For a file report they are ordered by line instead.
	Bugs []*bug.Bug `json:"bugs"`

	// Recommendations are short action items derived from the counts.
	Recommendations []string `json:"recommendations"`

	// Metadata provides context about the report.
	Metadata Metadata `json:"metadata"`
}

// Metrics summarises resolution progress.
type Metrics struct {
	OpenBugs       int     `json:"open_bugs"`
	ClosedBugs     int     `json:"closed_bugs"`
	ResolutionRate float64 `json:"resolution_rate"`
	CriticalOpen   int     `json:"critical_open"`
	HighOpen       int     `json:"high_open"`
}

// Metadata provides context about the report.
type Metadata struct {
	// Storage is the store file the report was built from.
	Storage string `json:"storage,omitempty"`

	// File is set for a report restricted to one source file.
	File string `json:"file,omitempty"`

	// IncludeClosed reports whether closed records are in Bugs.
	IncludeClosed bool `json:"include_closed"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`
}

// NewSummary builds a report over the whole store. Bugs holds the open
// records, or every record when includeClosed is set.
func NewSummary(src Source, includeClosed bool) *Report {
	st := src.Statistics()

	critical := src.List(store.Filter{Severity: bug.SeverityCritical})
	high := src.List(store.Filter{Severity: bug.SeverityHigh})

	filter := store.Filter{Status: bug.StatusOpen}
	if includeClosed {
		filter = store.Filter{}
	}
	bugs := src.List(filter)
	slices.SortStableFunc(bugs, func(a, b *bug.Bug) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	r := &Report{
		Statistics: st,
		Metrics:    newMetrics(st, critical, high),
		Critical:   head(critical, highlightLimit),
		High:       head(high, highlightLimit),
		Bugs:       nonNil(bugs),
		Metadata: Metadata{
			IncludeClosed: includeClosed,
			GeneratedAt:   time.Now(),
		},
	}
	r.Recommendations = recommend(st, r.Metrics, src.List(store.Filter{
		Type:   bug.TypeSecurityVulnerability,
		Status: bug.StatusOpen,
	}))
	return r
}

// NewFileReport builds a report over the records of one file, ordered by
// line. Records without a line sort first.
func NewFileReport(src Source, path string) *Report {
	bugs := src.ByFile(path)
	slices.SortStableFunc(bugs, func(a, b *bug.Bug) int {
		return cmp.Compare(lineOf(a), lineOf(b))
	})
	return &Report{
		Statistics:      src.Statistics(),
		Critical:        []*bug.Bug{},
		High:            []*bug.Bug{},
		Bugs:            nonNil(bugs),
		Recommendations: []string{},
		Metadata: Metadata{
			File:          path,
			IncludeClosed: true,
			GeneratedAt:   time.Now(),
		},
	}
}

// HasBugs returns true if the report lists any records in detail.
func (r *Report) HasBugs() bool {
	return len(r.Bugs) > 0
}

func newMetrics(st store.Statistics, critical, high []*bug.Bug) Metrics {
	m := Metrics{
		OpenBugs:   st.ByStatus[bug.StatusOpen],
		ClosedBugs: st.ByStatus[bug.StatusClosed] + st.ByStatus[bug.StatusFixed],
	}
	if st.Total > 0 {
		m.ResolutionRate = float64(m.ClosedBugs) / float64(st.Total) * 100
	}
	m.CriticalOpen = countStatus(critical, bug.StatusOpen)
	m.HighOpen = countStatus(high, bug.StatusOpen)
	return m
}

func recommend(st store.Statistics, m Metrics, openSecurity []*bug.Bug) []string {
	out := []string{}
	if m.CriticalOpen > 0 {
		out = append(out, pluralf(m.CriticalOpen, "CRITICAL bug needs", "CRITICAL bugs need")+" immediate attention")
	}
	if m.HighOpen > 0 {
		out = append(out, pluralf(m.HighOpen, "HIGH priority bug", "HIGH priority bugs")+" should be addressed soon")
	}
	if st.AverageAgeDays > staleAgeDays {
		out = append(out, "Average bug age is "+formatFloat(st.AverageAgeDays)+" days; consider triage")
	}
	if n := len(openSecurity); n > 0 {
		out = append(out, pluralf(n, "security vulnerability requires", "security vulnerabilities require")+" urgent review")
	}
	return out
}

func countStatus(bugs []*bug.Bug, status bug.Status) int {
	n := 0
	for _, b := range bugs {
		if b.Status == status {
			n++
		}
	}
	return n
}

func lineOf(b *bug.Bug) int {
	if b.Line == nil {
		return 0
	}
	return *b.Line
}

func head(bugs []*bug.Bug, n int) []*bug.Bug {
	if len(bugs) > n {
		bugs = bugs[:n]
	}
	return nonNil(bugs)
}

func nonNil(bugs []*bug.Bug) []*bug.Bug {
	if bugs == nil {
		return []*bug.Bug{}
	}
	return bugs
}
