package bug

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Location points at the code a finding refers to.
type Location struct {
	FilePath string `json:"file_path"`
	Line     *int   `json:"line_number"`
	Column   *int   `json:"column_number"`
	Snippet  string `json:"code_snippet"`
}

// At returns a location for path at the given 1-based line.
func At(path string, line int) Location {
	return Location{FilePath: path, Line: &line}
}

// WithColumn returns a copy of l carrying the given 1-based column.
func (l Location) WithColumn(col int) Location {
	l.Column = &col
	return l
}

// WithSnippet returns a copy of l carrying a one-line code excerpt.
func (l Location) WithSnippet(s string) Location {
	l.Snippet = s
	return l
}

// String renders the location as path:line[:col].
func (l Location) String() string {
	if l.Line == nil {
		return l.FilePath
	}
	if l.Column == nil {
		return fmt.Sprintf("%s:%d", l.FilePath, *l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.FilePath, *l.Line, *l.Column)
}

// Bug is a single detected or manually entered finding.
type Bug struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        Classification `json:"bug_type"`
	Severity    Severity       `json:"severity"`
	Status      Status         `json:"status"`
	Location
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Assignee  string         `json:"assigned_to"`
	Tags      []string       `json:"tags"`
	Metadata  map[string]any `json:"metadata"`
}

// ValidationError reports a field value rejected when a Bug is constructed.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// now is replaceable so tests can control timestamps.
var now = time.Now

// New creates an open finding with a fresh identity. The severity is derived
// from the classification.
func New(title, description string, typ Classification, loc Location) (*Bug, error) {
	if !typ.Valid() {
		return nil, &ValidationError{Field: "bug_type", Value: string(typ)}
	}
	ts := now()
	return &Bug{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Type:        typ,
		Severity:    typ.DefaultSeverity(),
		Status:      StatusOpen,
		Location:    loc,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Tags:        []string{},
		Metadata:    map[string]any{},
	}, nil
}

// MustNew is New for classifications known to be valid at compile time.
func MustNew(title, description string, typ Classification, loc Location) *Bug {
	b, err := New(title, description, typ, loc)
	if err != nil {
		panic(err)
	}
	return b
}

// Validate checks the fields a persisted record must satisfy.
func (b *Bug) Validate() error {
	if b.ID == "" {
		return &ValidationError{Field: "id", Value: b.ID}
	}
	if !b.Type.Valid() {
		return &ValidationError{Field: "bug_type", Value: string(b.Type)}
	}
	if !b.Severity.Valid() {
		return &ValidationError{Field: "severity", Value: string(b.Severity)}
	}
	if !b.Status.Valid() {
		return &ValidationError{Field: "status", Value: string(b.Status)}
	}
	if b.UpdatedAt.Before(b.CreatedAt) {
		return fmt.Errorf("updated_at %s is before created_at %s",
			b.UpdatedAt.Format(time.RFC3339), b.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// Touch advances UpdatedAt to the current time, never moving it backwards.
func (b *Bug) Touch() {
	ts := now()
	if ts.Before(b.CreatedAt) {
		ts = b.CreatedAt
	}
	if ts.After(b.UpdatedAt) {
		b.UpdatedAt = ts
	}
}

// SetStatus changes the status and, when assignee is non-empty, the assignee.
func (b *Bug) SetStatus(status Status, assignee string) {
	b.Status = status
	if assignee != "" {
		b.Assignee = assignee
	}
	b.Touch()
}

// AddTag appends tag unless it is already present. Returns true if added.
func (b *Bug) AddTag(tag string) bool {
	if slices.Contains(b.Tags, tag) {
		return false
	}
	b.Tags = append(b.Tags, tag)
	b.Touch()
	return true
}

// RemoveTag deletes tag if present. Returns true if removed.
func (b *Bug) RemoveTag(tag string) bool {
	i := slices.Index(b.Tags, tag)
	if i < 0 {
		return false
	}
	b.Tags = slices.Delete(b.Tags, i, i+1)
	b.Touch()
	return true
}

// HasAnyTag reports whether b carries at least one of tags.
func (b *Bug) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if slices.Contains(b.Tags, t) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of b.
func (b *Bug) Clone() *Bug {
	c := *b
	if b.Line != nil {
		line := *b.Line
		c.Line = &line
	}
	if b.Column != nil {
		col := *b.Column
		c.Column = &col
	}
	c.Tags = slices.Clone(b.Tags)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	c.Metadata = make(map[string]any, len(b.Metadata))
	for k, v := range b.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

// FileName returns the base name of the finding's file, or "" if none.
func (b *Bug) FileName() string {
	if b.FilePath == "" {
		return ""
	}
	return filepath.Base(b.FilePath)
}

// ShortID returns the first eight characters of the identity.
func (b *Bug) ShortID() string {
	if len(b.ID) <= 8 {
		return b.ID
	}
	return b.ID[:8]
}

// String renders a one-line summary.
func (b *Bug) String() string {
	return fmt.Sprintf("Bug %s: %s [%s/%s]", b.ShortID(), b.Title, b.Severity, b.Status)
}

// DisplayName renders a string tag such as "security_vulnerability" as
// "Security Vulnerability".
func DisplayName[T ~string](tag T) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(tag), "_", " "))
}
