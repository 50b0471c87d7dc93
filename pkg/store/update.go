package store

import (
	"slices"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Field names accepted by Update.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldSeverity    = "severity"
	FieldStatus      = "status"
	FieldAssignee    = "assigned_to"
	FieldTags        = "tags"
	FieldMetadata    = "metadata"
)

// Update applies fields to the record with the given identity and advances
// its UpdatedAt. Only the Field* keys are applied; other keys are ignored.
// Severity and status may be given as their enum types or as strings, the
// assignee as a string or nil to clear it.
//
// Update returns false, changing nothing, when the identity is unknown or a
// value has the wrong type or is not a valid enum member.
func (s *Store) Update(id string, fields map[string]any) bool {
	b, ok := s.byID[id]
	if !ok {
		return false
	}

	next := b.Clone()
	for key, value := range fields {
		if !apply(next, key, value) {
			s.logger.Warn("rejected update", "id", id, "field", key, "value", value)
			return false
		}
	}
	next.Touch()

	s.byID[id] = next
	s.persist()
	return true
}

// apply sets one field on b. It reports false for an invalid value.
func apply(b *bug.Bug, key string, value any) bool {
	switch key {
	case FieldTitle:
		v, ok := value.(string)
		if ok {
			b.Title = v
		}
		return ok
	case FieldDescription:
		v, ok := value.(string)
		if ok {
			b.Description = v
		}
		return ok
	case FieldSeverity:
		sev, ok := toSeverity(value)
		if ok {
			b.Severity = sev
		}
		return ok
	case FieldStatus:
		st, ok := toStatus(value)
		if ok {
			b.Status = st
		}
		return ok
	case FieldAssignee:
		switch v := value.(type) {
		case nil:
			b.Assignee = ""
		case string:
			b.Assignee = v
		default:
			return false
		}
		return true
	case FieldTags:
		tags, ok := toStrings(value)
		if ok {
			b.Tags = make([]string, 0, len(tags))
			for _, t := range tags {
				if !slices.Contains(b.Tags, t) {
					b.Tags = append(b.Tags, t)
				}
			}
		}
		return ok
	case FieldMetadata:
		switch v := value.(type) {
		case nil:
			b.Metadata = map[string]any{}
		case map[string]any:
			b.Metadata = make(map[string]any, len(v))
			for k, val := range v {
				b.Metadata[k] = val
			}
		default:
			return false
		}
		return true
	default:
		return true
	}
}

func toSeverity(v any) (bug.Severity, bool) {
	var sev bug.Severity
	switch t := v.(type) {
	case bug.Severity:
		sev = t
	case string:
		sev = bug.Severity(t)
	default:
		return "", false
	}
	return sev, sev.Valid()
}

func toStatus(v any) (bug.Status, bool) {
	var st bug.Status
	switch t := v.(type) {
	case bug.Status:
		st = t
	case string:
		st = bug.Status(t)
	default:
		return "", false
	}
	return st, st.Valid()
}

func toStrings(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Close sets the status to closed and, when assignee is non-empty, the
// assignee.
func (s *Store) Close(id, assignee string) bool {
	fields := map[string]any{FieldStatus: bug.StatusClosed}
	if assignee != "" {
		fields[FieldAssignee] = assignee
	}
	return s.Update(id, fields)
}

// Reopen sets the status back to open.
func (s *Store) Reopen(id string) bool {
	return s.Update(id, map[string]any{FieldStatus: bug.StatusOpen})
}

// Assign sets the assignee and moves the record to in_progress.
func (s *Store) Assign(id, assignee string) bool {
	return s.Update(id, map[string]any{
		FieldAssignee: assignee,
		FieldStatus:   bug.StatusInProgress,
	})
}

// BulkUpdateStatus sets status on each known identity and returns how many
// records were updated. Unknown identities are skipped.
func (s *Store) BulkUpdateStatus(ids []string, status bug.Status) int {
	if !status.Valid() {
		return 0
	}
	n := 0
	for _, id := range ids {
		if s.Update(id, map[string]any{FieldStatus: status}) {
			n++
		}
	}
	return n
}

// AddTag appends tag to the record. It returns false if the identity is
// unknown or the tag is already present.
func (s *Store) AddTag(id, tag string) bool {
	b, ok := s.byID[id]
	if !ok || tag == "" {
		return false
	}
	next := b.Clone()
	if !next.AddTag(tag) {
		return false
	}
	s.byID[id] = next
	s.persist()
	return true
}

// RemoveTag deletes tag from the record. It returns false if the identity
// is unknown or the tag is absent.
func (s *Store) RemoveTag(id, tag string) bool {
	b, ok := s.byID[id]
	if !ok {
		return false
	}
	next := b.Clone()
	if !next.RemoveTag(tag) {
		return false
	}
	s.byID[id] = next
	s.persist()
	return true
}
