package store

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Filter selects records for List. Zero-valued fields do not filter; set
// fields must all match.
type Filter struct {
	Status   bug.Status
	Severity bug.Severity
	Type     bug.Classification
	Assignee string

	// FilePath matches records whose file path contains it.
	FilePath string

	// Tags matches records carrying at least one of them.
	Tags []string
}

// Match reports whether b satisfies every set field of f.
func (f Filter) Match(b *bug.Bug) bool {
	switch {
	case f.Status != "" && b.Status != f.Status:
		return false
	case f.Severity != "" && b.Severity != f.Severity:
		return false
	case f.Type != "" && b.Type != f.Type:
		return false
	case f.Assignee != "" && b.Assignee != f.Assignee:
		return false
	case f.FilePath != "" && !strings.Contains(b.FilePath, f.FilePath):
		return false
	case len(f.Tags) > 0 && !b.HasAnyTag(f.Tags):
		return false
	}
	return true
}

// List returns copies of the records matching f in insertion order.
func (s *Store) List(f Filter) []*bug.Bug {
	var out []*bug.Bug
	for _, b := range s.list() {
		if f.Match(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}

// OpenCritical returns the open records with critical severity.
func (s *Store) OpenCritical() []*bug.Bug {
	return s.List(Filter{Status: bug.StatusOpen, Severity: bug.SeverityCritical})
}

// ByFile returns the records whose file path equals path exactly.
func (s *Store) ByFile(path string) []*bug.Bug {
	var out []*bug.Bug
	for _, b := range s.list() {
		if b.FilePath == path {
			out = append(out, b.Clone())
		}
	}
	return out
}

// Searchable field names.
const (
	SearchTitle       = "title"
	SearchDescription = "description"
	SearchFilePath    = "file_path"
	SearchSnippet     = "code_snippet"
	SearchAssignee    = "assigned_to"
)

// DefaultSearchFields are searched when Search is given no fields.
var DefaultSearchFields = []string{SearchTitle, SearchDescription, SearchFilePath}

// Search returns the records where any of fields contains query, ignoring
// case. Unknown field names never match. Each record appears once.
func (s *Store) Search(query string, fields ...string) []*bug.Bug {
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}
	q := strings.ToLower(query)

	var out []*bug.Bug
	for _, b := range s.list() {
		for _, f := range fields {
			v, ok := searchField(b, f)
			if ok && strings.Contains(strings.ToLower(v), q) {
				out = append(out, b.Clone())
				break
			}
		}
	}
	return out
}

func searchField(b *bug.Bug, field string) (string, bool) {
	switch field {
	case SearchTitle:
		return b.Title, true
	case SearchDescription:
		return b.Description, true
	case SearchFilePath:
		return b.FilePath, true
	case SearchSnippet:
		return b.Snippet, true
	case SearchAssignee:
		return b.Assignee, true
	}
	return "", false
}

// titles adapts records to fuzzy.Source.
type titles []*bug.Bug

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// FuzzySearch ranks records by how well their title fuzzy-matches query,
// best first. Records that do not match are left out.
func (s *Store) FuzzySearch(query string) []*bug.Bug {
	all := titles(s.list())
	matches := fuzzy.FindFrom(query, all)

	out := make([]*bug.Bug, 0, len(matches))
	for _, m := range matches {
		out = append(out, all[m.Index].Clone())
	}
	return out
}
