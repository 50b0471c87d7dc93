package bug

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the layout timestamps are written with.
const TimeLayout = time.RFC3339Nano

// timeLayouts are tried in order when reading timestamps. The zone-less
// variants accept files written by Python's datetime.isoformat().
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a persisted timestamp. Zone-less values are read in local
// time.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: no known layout matched", s)
}

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// wireBug mirrors Bug with loosely typed fields so that a partly damaged or
// older record can still be read.
type wireBug struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        string         `json:"bug_type"`
	Severity    string         `json:"severity"`
	Status      string         `json:"status"`
	FilePath    string         `json:"file_path"`
	Line        *int           `json:"line_number"`
	Column      *int           `json:"column_number"`
	Snippet     string         `json:"code_snippet"`
	CreatedAt   string         `json:"created_at"`
	UpdatedAt   string         `json:"updated_at"`
	Assignee    *string        `json:"assigned_to"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
}

// MarshalJSON writes timestamps in TimeLayout.
func (b *Bug) MarshalJSON() ([]byte, error) {
	w := wireBug{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Type:        string(b.Type),
		Severity:    string(b.Severity),
		Status:      string(b.Status),
		FilePath:    b.FilePath,
		Line:        b.Line,
		Column:      b.Column,
		Snippet:     b.Snippet,
		CreatedAt:   FormatTime(b.CreatedAt),
		UpdatedAt:   FormatTime(b.UpdatedAt),
		Tags:        b.Tags,
		Metadata:    b.Metadata,
	}
	if b.Assignee != "" {
		w.Assignee = &b.Assignee
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	if w.Metadata == nil {
		w.Metadata = map[string]any{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads a record, substituting defaults for missing or
// unrecognised values: a fresh id, the current time, logic_error, medium
// and open.
func (b *Bug) UnmarshalJSON(data []byte) error {
	var w wireBug
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Bug{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Type:        Classification(w.Type),
		Severity:    Severity(w.Severity),
		Status:      Status(w.Status),
		Location: Location{
			FilePath: w.FilePath,
			Line:     w.Line,
			Column:   w.Column,
			Snippet:  w.Snippet,
		},
		Tags:     w.Tags,
		Metadata: w.Metadata,
	}
	if w.Assignee != nil {
		b.Assignee = *w.Assignee
	}
	b.CreatedAt = parseOrNow(w.CreatedAt)
	b.UpdatedAt = parseOrNow(w.UpdatedAt)
	b.Normalize()
	return nil
}

func parseOrNow(s string) time.Time {
	if s == "" {
		return now()
	}
	t, err := ParseTime(s)
	if err != nil {
		slog.Warn("unreadable timestamp, using current time", "value", s)
		return now()
	}
	return t
}

// Normalize repairs a record so that it satisfies Validate: a missing id,
// classification, severity or status gets its default, unknown values are
// replaced with a warning, a zero CreatedAt becomes now, UpdatedAt is
// clamped to CreatedAt, duplicate tags are dropped and nil tags or metadata
// become empty.
func (b *Bug) Normalize() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Type == "" {
		b.Type = TypeLogicError
	} else if !b.Type.Valid() {
		slog.Warn("unknown bug type, using default", "id", b.ID, "value", b.Type)
		b.Type = TypeLogicError
	}
	if b.Severity == "" {
		b.Severity = SeverityMedium
	} else if !b.Severity.Valid() {
		slog.Warn("unknown severity, using default", "id", b.ID, "value", b.Severity)
		b.Severity = SeverityMedium
	}
	if b.Status == "" {
		b.Status = StatusOpen
	} else if !b.Status.Valid() {
		slog.Warn("unknown status, using default", "id", b.ID, "value", b.Status)
		b.Status = StatusOpen
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now()
	}
	if b.UpdatedAt.Before(b.CreatedAt) {
		b.UpdatedAt = b.CreatedAt
	}
	b.Tags = dedupe(b.Tags)
	if b.Metadata == nil {
		b.Metadata = map[string]any{}
	}
}

func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
