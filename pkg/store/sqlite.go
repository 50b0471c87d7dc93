package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// sqliteTable holds one row per record. Cells use the CSV encoding so both
// tabular formats share a decoder; position keeps insertion order.
const sqliteTable = "bugs"

func sqliteSchema() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE " + sqliteTable + " (\n  position INTEGER PRIMARY KEY")
	for _, c := range Columns {
		b.WriteString(",\n  " + c + " TEXT")
	}
	b.WriteString("\n)")
	return b.String()
}

// uriPath escapes the characters that end the path part of a file: URI.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

func openSQLite(path string) (*sql.DB, error) {
	return sql.Open("sqlite", "file:"+uriPath.Replace(path)+"?_pragma=busy_timeout(5000)")
}

// writeSQLite replaces path with a new database holding bugs.
func writeSQLite(path string, bugs []*bug.Bug) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema()); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(Columns)+1), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (position, %s) VALUES (%s)",
		sqliteTable, strings.Join(Columns, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range bugs {
		cells, err := row(b)
		if err != nil {
			return fmt.Errorf("record %s: %w", b.ID, err)
		}
		args := make([]any, 0, len(cells)+1)
		args = append(args, i)
		for _, c := range cells {
			args = append(args, c)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

// readSQLite returns the records in the bugs table of the database at path.
func readSQLite(path string) ([]*bug.Bug, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY position",
		strings.Join(Columns, ", "), sqliteTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*bug.Bug
	for rows.Next() {
		raw := make([]sql.NullString, len(Columns))
		dest := make([]any, len(raw))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		cells := make([]string, len(raw))
		for i, v := range raw {
			cells[i] = v.String
		}
		b, err := fromRow(Columns, cells)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
