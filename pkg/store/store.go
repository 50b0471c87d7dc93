// Package store keeps bug records in memory and persists them to a single
// JSON file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/buginspector/pkg/bug"
)

// Store is a keyed collection of records that preserves insertion order.
// Every mutation rewrites the backing file before returning.
//
// A Store is not safe for concurrent use, and two processes sharing a path
// can lose each other's updates.
type Store struct {
	path  string
	order []string
	byID  map[string]*bug.Bug

	logger *slog.Logger
	now    func() time.Time

	lastErr error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the time source used for ages and trends.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a Store backed by path. A missing file gives an empty store;
// an unreadable or corrupt one also gives an empty store and logs a warning.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		byID:   make(map[string]*bug.Bug),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Err returns the error from the most recent failed write, or nil if the
// last write succeeded.
func (s *Store) Err() error {
	return s.lastErr
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("could not read bug store, starting empty", "path", s.path, "error", err)
		}
		return
	}

	bugs, err := decodeJSON(data, s.logger)
	if err != nil {
		s.logger.Warn("corrupt bug store, starting empty", "path", s.path, "error", err)
		return
	}
	for _, b := range bugs {
		s.put(b)
	}
	s.logger.Debug("loaded bug store", "path", s.path, "records", len(s.order))
}

// persist writes the whole collection to a temporary file and renames it
// over the store path.
func (s *Store) persist() {
	s.lastErr = s.writeFile()
	if s.lastErr != nil {
		s.logger.Error("could not save bug store", "path", s.path, "error", s.lastErr)
	}
}

func (s *Store) writeFile() error {
	data, err := encodeJSON(s.list())
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// put inserts or replaces b without persisting. A replaced record keeps its
// position.
func (s *Store) put(b *bug.Bug) {
	if _, ok := s.byID[b.ID]; !ok {
		s.order = append(s.order, b.ID)
	}
	s.byID[b.ID] = b
}

// list returns the stored records in insertion order without copying.
func (s *Store) list() []*bug.Bug {
	out := make([]*bug.Bug, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Add stores a copy of b and returns its identity. A record without an
// identity is given one. A record with the identity of an existing one
// replaces it.
func (s *Store) Add(b *bug.Bug) string {
	if b == nil {
		return ""
	}
	c := b.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Normalize()
	s.put(c)
	s.persist()
	return c.ID
}

// Get returns a copy of the record with the given identity.
func (s *Store) Get(id string) (*bug.Bug, bool) {
	b, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// Contains reports whether a record with the given identity exists.
func (s *Store) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.order)
}

// All returns copies of every record in insertion order.
func (s *Store) All() []*bug.Bug {
	return cloneAll(s.list())
}

// Remove deletes the record with the given identity.
func (s *Store) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	s.persist()
	return true
}

// Clear removes every record.
func (s *Store) Clear() {
	s.order = nil
	s.byID = make(map[string]*bug.Bug)
	s.persist()
}

func cloneAll(bugs []*bug.Bug) []*bug.Bug {
	out := make([]*bug.Bug, 0, len(bugs))
	for _, b := range bugs {
		out = append(out, b.Clone())
	}
	return out
}

func encodeJSON(bugs []*bug.Bug) ([]byte, error) {
	if bugs == nil {
		bugs = []*bug.Bug{}
	}
	return json.MarshalIndent(bugs, "", "  ")
}

// decodeJSON reads a JSON array of records. Entries that are not objects
// are skipped with a warning; anything else that is wrong fails the whole
// document.
func decodeJSON(data []byte, logger *slog.Logger) ([]*bug.Bug, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]*bug.Bug, 0, len(raw))
	for i, r := range raw {
		var b bug.Bug
		if err := json.Unmarshal(r, &b); err != nil {
			logger.Warn("skipping unreadable record", "index", i, "error", err)
			continue
		}
		out = append(out, &b)
	}
	return out, nil
}
