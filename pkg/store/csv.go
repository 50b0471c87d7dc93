package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// row renders b as one value per entry of Columns. Tags and metadata are
// JSON encoded; absent line and column numbers are empty.
func row(b *bug.Bug) ([]string, error) {
	tags, err := json.Marshal(nonNilTags(b.Tags))
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(nonNilMeta(b.Metadata))
	if err != nil {
		return nil, err
	}
	return []string{
		b.ID,
		b.Title,
		b.Description,
		string(b.Type),
		string(b.Severity),
		string(b.Status),
		b.FilePath,
		optInt(b.Line),
		optInt(b.Column),
		b.Snippet,
		bug.FormatTime(b.CreatedAt),
		bug.FormatTime(b.UpdatedAt),
		b.Assignee,
		string(tags),
		string(meta),
	}, nil
}

// fromRow decodes the cells named by header into a record. Missing columns
// and unreadable cells fall back to the record defaults.
func fromRow(header, cells []string) (*bug.Bug, error) {
	doc := make(map[string]any, len(header))
	for i, name := range header {
		if i >= len(cells) {
			break
		}
		v := cells[i]
		switch name {
		case "line_number", "column_number":
			if n, err := strconv.Atoi(v); err == nil {
				doc[name] = n
			}
		case "tags":
			var tags []string
			if json.Unmarshal([]byte(v), &tags) == nil {
				doc[name] = tags
			}
		case "metadata":
			var meta map[string]any
			if json.Unmarshal([]byte(v), &meta) == nil {
				doc[name] = meta
			}
		case "assigned_to":
			if v != "" {
				doc[name] = v
			}
		default:
			doc[name] = v
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var b bug.Bug
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func writeCSV(path string, bugs []*bug.Bug) (err error) {
	f, err := os.Create(path) // #nosec G304 -- user-provided export path is expected
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, b := range bugs {
		r, err := row(b)
		if err != nil {
			return fmt.Errorf("record %s: %w", b.ID, err)
		}
		if err := w.Write(r); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readCSV(path string) ([]*bug.Bug, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided import path is expected
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var out []*bug.Bug
	for {
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		b, err := fromRow(header, cells)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func nonNilTags(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

func nonNilMeta(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
