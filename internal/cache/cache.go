// Package cache is the client-local durable mirror of registry collections.
//
// One collection blob is persisted per entry kind, shaped as
// {data: [...entries], timestamp}. The repository is the only writer; this
// layer enforces no expiry policy. Backed by SQLite via modernc.org/sqlite
// (pure Go, CGo-free).
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Collection is one cached entry list. Data reflects the remote state at
// Timestamp (milliseconds), with local mutations applied on top until the
// next full refresh replaces it wholesale.
type Collection struct {
	Data      []json.RawMessage `json:"data"`
	Timestamp int64             `json:"timestamp"`
}

// Store persists one Collection per entry kind.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// Open opens (and if needed creates) the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("cache: create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("cache: close database: %w", err)
	}
	return nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS collections (
			kind      TEXT PRIMARY KEY,
			data      TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("cache: create collections table: %w", err)
	}
	return nil
}

// Read returns the cached collection for kind, or nil when none exists.
// A corrupt persisted blob is treated as absent, never as an error.
func (s *Store) Read(kind string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(kind)
}

func (s *Store) read(kind string) *Collection {
	var raw string
	var ts int64
	err := s.db.QueryRow(`SELECT data, timestamp FROM collections WHERE kind = ?`, kind).Scan(&raw, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Warn("cache read failed, treating as absent", "kind", kind, "error", err)
		return nil
	}

	var data []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.logger.Warn("cache blob corrupt, treating as absent", "kind", kind, "error", err)
		return nil
	}
	return &Collection{Data: data, Timestamp: ts}
}

// Write replaces the entire collection for kind and stamps the current time.
func (s *Store) Write(kind string, entries []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(kind, entries, time.Now().UnixMilli())
}

func (s *Store) write(kind string, entries []json.RawMessage, ts int64) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cache: marshal collection: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO collections (kind, data, timestamp) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET data = excluded.data, timestamp = excluded.timestamp
	`, kind, string(raw), ts)
	if err != nil {
		return fmt.Errorf("cache: write collection: %w", err)
	}
	return nil
}

// Append adds one entry to the collection for kind, preserving the original
// timestamp: a local mutation does not count as a full refresh. If no
// collection exists yet, one is created and stamped now.
func (s *Store) Append(kind string, entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.read(kind)
	if col == nil {
		return s.write(kind, []json.RawMessage{raw}, time.Now().UnixMilli())
	}
	return s.write(kind, append(col.Data, raw), col.Timestamp)
}

// Replace swaps the entry with the given name for a new value in place,
// preserving both collection order and the original timestamp. Replacing
// into an absent collection, or a collection without the name, is a no-op.
func (s *Store) Replace(kind, name string, entry any) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache: marshal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.read(kind)
	if col == nil {
		return nil
	}

	changed := false
	for i, existing := range col.Data {
		var probe struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(existing, &probe); err == nil && probe.Name == name {
			col.Data[i] = raw
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	return s.write(kind, col.Data, col.Timestamp)
}

// Remove deletes the entry with the given name from the collection for
// kind, preserving the original timestamp. Removing from an absent
// collection is a no-op.
func (s *Store) Remove(kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.read(kind)
	if col == nil {
		return nil
	}

	kept := make([]json.RawMessage, 0, len(col.Data))
	for _, raw := range col.Data {
		var probe struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &probe); err == nil && probe.Name == name {
			continue
		}
		kept = append(kept, raw)
	}
	return s.write(kind, kept, col.Timestamp)
}
