package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Format is an export and import file format.
type Format string

const (
	// FormatJSON is an indented JSON array, the same layout as the store file.
	FormatJSON Format = "json"
	// FormatCSV is one row per record with a header row naming every field.
	FormatCSV Format = "csv"
	// FormatSQLite is a SQLite database with one row per record in table bugs.
	FormatSQLite Format = "sqlite"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatSQLite}

// ErrUnknownFormat is returned for a format name that is not supported.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatSQLite:
		return f, nil
	}
	return "", fmt.Errorf("%w %q (must be json, csv, or sqlite)", ErrUnknownFormat, s)
}

// FormatForPath picks a format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Columns is the field list of the tabular formats, in column order.
var Columns = []string{
	"id", "title", "description", "bug_type", "severity", "status",
	"file_path", "line_number", "column_number", "code_snippet",
	"created_at", "updated_at", "assigned_to", "tags", "metadata",
}

// ExportTo writes every record to path in format, replacing the file.
func (s *Store) ExportTo(path string, format Format) error {
	bugs := s.list()

	var err error
	switch format {
	case FormatJSON:
		var data []byte
		data, err = encodeJSON(bugs)
		if err == nil {
			err = os.WriteFile(path, data, 0o644) // #nosec G306 -- exports are meant to be shared
		}
	case FormatCSV:
		err = writeCSV(path, bugs)
	case FormatSQLite:
		err = writeSQLite(path, bugs)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	s.logger.Info("exported records", "path", path, "format", format, "records", len(bugs))
	return nil
}

// ImportFrom reads records from path, picking the format from its extension.
// See ImportFormat.
func (s *Store) ImportFrom(path string, merge bool) (int, error) {
	return s.ImportFormat(path, FormatForPath(path), merge)
}

// ImportFormat reads records from path in format and returns how many were
// inserted or replaced. With merge, an existing record is only replaced by
// an incoming one with a strictly newer UpdatedAt. Without merge, incoming
// records always replace existing ones. Records not in the file are kept
// either way.
func (s *Store) ImportFormat(path string, format Format, merge bool) (int, error) {
	var (
		incoming []*bug.Bug
		err      error
	)
	switch format {
	case FormatJSON:
		var data []byte
		data, err = os.ReadFile(path) // #nosec G304 -- user-provided import path is expected
		if err == nil {
			incoming, err = decodeJSON(data, s.logger)
		}
	case FormatCSV:
		incoming, err = readCSV(path)
	case FormatSQLite:
		incoming, err = readSQLite(path)
	default:
		return 0, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return 0, fmt.Errorf("importing from %s: %w", path, err)
	}

	n := 0
	for _, b := range incoming {
		if existing, ok := s.byID[b.ID]; ok && merge && !b.UpdatedAt.After(existing.UpdatedAt) {
			continue
		}
		s.put(b)
		n++
	}
	if n > 0 {
		s.persist()
	}
	s.logger.Info("imported records", "path", path, "format", format, "read", len(incoming), "applied", n)
	return n, nil
}
