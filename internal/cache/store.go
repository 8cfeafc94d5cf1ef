// Package cache persists transformation results in SQLite so that unchanged
// source files are not parsed and transformed again.
//
// An entry is keyed by file path, transformer name and marker module, and is
// only returned when both the source hash and the transformer version match.
// Bumping the transformer version therefore invalidates every entry.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for cached results.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at dbPath with WAL mode enabled and migrates
// the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS results (
  path                TEXT NOT NULL,
  transformer         TEXT NOT NULL,
  marker_module       TEXT NOT NULL,
  transformer_version INTEGER NOT NULL,
  source_hash         TEXT NOT NULL,
  output              BLOB,
  changed             BOOLEAN NOT NULL DEFAULT FALSE,
  sites               TEXT,
  stored_at           TIMESTAMP,
  PRIMARY KEY (path, transformer, marker_module)
);

CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT
);
`

// Key identifies a cached result.
type Key struct {
	Path         string
	SourceHash   string
	Transformer  string
	Version      int
	MarkerModule string
}

// Site is the stored form of one converted marking site.
type Site struct {
	Kind   string `json:"kind"`
	Name   string `json:"name,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Entry is a cached transformation result. Output is nil for unchanged
// sources; callers use the source they already hold.
type Entry struct {
	Key
	Output   []byte
	Changed  bool
	Sites    []Site
	StoredAt time.Time
}

// Lookup returns the entry for k, or nil if there is none with a matching
// source hash and version.
func (s *Store) Lookup(k Key) (*Entry, error) {
	e := &Entry{Key: k}
	var sites sql.NullString
	err := s.db.QueryRow(
		`SELECT output, changed, sites, stored_at FROM results
		 WHERE path = ? AND transformer = ? AND marker_module = ? AND transformer_version = ? AND source_hash = ?`,
		k.Path, k.Transformer, k.MarkerModule, k.Version, k.SourceHash,
	).Scan(&e.Output, &e.Changed, &sites, &e.StoredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", k.Path, err)
	}
	if sites.Valid && sites.String != "" {
		if err := json.Unmarshal([]byte(sites.String), &e.Sites); err != nil {
			return nil, fmt.Errorf("lookup %s: decode sites: %w", k.Path, err)
		}
	}
	return e, nil
}

// Put stores e, replacing any previous entry for the same path.
func (s *Store) Put(e *Entry) error {
	return s.PutAll([]*Entry{e})
}

// PutAll stores entries in a single transaction.
func (s *Store) PutAll(entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO results
		 (path, transformer, marker_module, transformer_version, source_hash, output, changed, sites, stored_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range entries {
		sites, err := json.Marshal(e.Sites)
		if err != nil {
			return fmt.Errorf("put %s: encode sites: %w", e.Path, err)
		}
		if e.StoredAt.IsZero() {
			e.StoredAt = now
		}
		output := e.Output
		if !e.Changed {
			output = nil
		}
		if _, err := stmt.Exec(e.Path, e.Transformer, e.MarkerModule, e.Version, e.SourceHash,
			output, e.Changed, string(sites), e.StoredAt); err != nil {
			return fmt.Errorf("put %s: %w", e.Path, err)
		}
	}
	return tx.Commit()
}

// Prune deletes entries written by other versions of transformer and
// returns how many were removed.
func (s *Store) Prune(transformer string, version int) (int64, error) {
	res, err := s.db.Exec(
		"DELETE FROM results WHERE transformer = ? AND transformer_version != ?",
		transformer, version,
	)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries int
	Changed int
}

// Stats counts cached entries.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN changed THEN 1 ELSE 0 END), 0) FROM results",
	).Scan(&st.Entries, &st.Changed)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// GetMetadata returns the value stored under key, or "" if unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores value under key.
func (s *Store) SetMetadata(key, value string) error {
	if _, err := s.db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}
