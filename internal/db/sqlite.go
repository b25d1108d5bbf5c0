// Package db manages the SQLite database holding connection records.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the database at dbPath and runs migrations.
func Open(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode keeps admin API reads from blocking session writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// NewTestDB creates a fresh in-memory database for tests.
func NewTestDB() (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}
	// An in-memory database exists per connection; keep the pool at one so
	// every caller sees the migrated schema.
	conn.SetMaxOpenConns(1)
	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func runMigrations(conn *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS connections (
		id TEXT PRIMARY KEY,
		remote_addr TEXT NOT NULL,
		transport TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		commands INTEGER NOT NULL DEFAULT 0,
		transcript_path TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_connections_status ON connections(status);
	CREATE INDEX IF NOT EXISTS idx_connections_started_at ON connections(started_at);
	`

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
