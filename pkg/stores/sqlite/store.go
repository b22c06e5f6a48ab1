// Package sqlite provides SQLite-backed implementations of the engine's
// store contracts: the durable document store, the long-term memory store,
// the foresight store, and the knowledge-graph store.
//
// SQLite is a lightweight, file-based database suitable for local development
// and single-node deployments. Documents are stored as JSON in TEXT columns
// with the filterable keys broken out into indexed columns.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements stores.DocumentStore, stores.LongTermStore,
// stores.ForesightStore and stores.GraphStore over one SQLite database.
type Store struct {
	db *sql.DB
}

// Config contains configuration for opening a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string
}

// New opens (creating if needed) a SQLite store.
func New(cfg *Config) (*Store, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteStore: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteStore: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteStore: %w", err)
	}

	s := &Store{db: db}
	if err := s.initTables(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// initTables creates the schema when missing.
func (s *Store) initTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS relationships (
			user_id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id TEXT PRIMARY KEY,
			doc TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS story_threads (
			thread_id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL,
			doc TEXT NOT NULL,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_threads_user_status ON story_threads(user_id, status)`,
		`CREATE TABLE IF NOT EXISTS emotion_annotations (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			emotion TEXT NOT NULL,
			doc TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_annotations_user_emotion ON emotion_annotations(user_id, emotion)`,
		`CREATE TABLE IF NOT EXISTS importance_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			score REAL NOT NULL,
			doc TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_importance_user ON importance_scores(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS longterm_memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			group_key TEXT NOT NULL,
			content TEXT NOT NULL,
			emotion TEXT,
			keywords TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_longterm_group ON longterm_memories(group_key, created_at)`,
		`CREATE TABLE IF NOT EXISTS foresight_memories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS graph_edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			from_label TEXT NOT NULL,
			relation TEXT NOT NULL,
			to_label TEXT NOT NULL,
			weight REAL DEFAULT 1.0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_user_from ON graph_edges(user_id, from_label)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initTables: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
