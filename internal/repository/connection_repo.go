// Package repository provides data access for connection records.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/telnet-console/server/internal/model"
)

// ConnectionRepository persists connection records.
type ConnectionRepository struct {
	db *sql.DB
}

// NewConnectionRepository creates a ConnectionRepository.
func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// Create inserts a new connection record.
func (r *ConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	query := `
		INSERT INTO connections (id, remote_addr, transport, status, commands, transcript_path, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		conn.ID,
		conn.RemoteAddr,
		conn.Transport,
		conn.Status,
		conn.Commands,
		conn.TranscriptPath,
		conn.StartedAt,
		conn.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create connection record: %w", err)
	}
	return nil
}

// GetByID retrieves a connection record by its ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*model.Connection, error) {
	query := `
		SELECT id, remote_addr, transport, status, commands, transcript_path, started_at, ended_at
		FROM connections
		WHERE id = ?
	`

	conn := &model.Connection{}
	var endedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&conn.ID,
		&conn.RemoteAddr,
		&conn.Transport,
		&conn.Status,
		&conn.Commands,
		&conn.TranscriptPath,
		&conn.StartedAt,
		&endedAt,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection record: %w", err)
	}

	if endedAt.Valid {
		t := endedAt.Time
		conn.EndedAt = &t
	}
	return conn, nil
}

// List retrieves connection records, newest first.
func (r *ConnectionRepository) List(ctx context.Context) ([]*model.Connection, error) {
	query := `
		SELECT id, remote_addr, transport, status, commands, transcript_path, started_at, ended_at
		FROM connections
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connection records: %w", err)
	}
	defer rows.Close()

	var conns []*model.Connection
	for rows.Next() {
		conn := &model.Connection{}
		var endedAt sql.NullTime

		if err := rows.Scan(
			&conn.ID,
			&conn.RemoteAddr,
			&conn.Transport,
			&conn.Status,
			&conn.Commands,
			&conn.TranscriptPath,
			&conn.StartedAt,
			&endedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan connection record: %w", err)
		}

		if endedAt.Valid {
			t := endedAt.Time
			conn.EndedAt = &t
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// Finish finalizes a connection record at teardown: terminal status, number
// of committed commands and end timestamp.
func (r *ConnectionRepository) Finish(ctx context.Context, id string, status model.ConnectionStatus, commands int, endedAt time.Time) error {
	query := `
		UPDATE connections
		SET status = ?, commands = ?, ended_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, status, commands, endedAt, id)
	if err != nil {
		return fmt.Errorf("failed to finish connection record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish connection record: %w", err)
	}
	if n == 0 {
		return model.ErrConnectionNotFound
	}
	return nil
}

// CountActive returns the number of records still marked active.
func (r *ConnectionRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM connections WHERE status = ?`,
		model.ConnectionStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active connections: %w", err)
	}
	return count, nil
}
