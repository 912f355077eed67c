// Package store keeps quiz sessions and graded submissions in SQLite for
// the lifetime of one run.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// InMemory is the DSN for a private, process-local database.
const InMemory = ":memory:"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the database at dsn and creates the schema.
func New(dsn string) (*Store, error) {
	source := dsn
	if dsn != InMemory {
		source = dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dsn == InMemory {
		// Every connection to :memory: gets its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS quiz_sessions (
		token TEXT PRIMARY KEY,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 0,
		state TEXT NOT NULL DEFAULT 'unstarted',
		last_answers TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		result TEXT NOT NULL,
		answers TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (token) REFERENCES quiz_sessions(token)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}
