// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides the on-disk exchange log.
//
// Every completed prompt/response round trip can be appended to a
// SQLite database so past conversations survive across runs. Failed
// exchanges are never written.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound      = errors.New("exchange not found")
	ErrDatabaseError = errors.New("database error")
)

// schema is the exchange log table layout.
const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id                TEXT PRIMARY KEY,
	session_id        TEXT NOT NULL,
	model             TEXT NOT NULL,
	prompt            TEXT NOT NULL,
	response          TEXT NOT NULL,
	prompt_tokens     INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens      INTEGER NOT NULL DEFAULT 0,
	finish_reason     TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id);
CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges(created_at);
`

// =============================================================================
// TYPES
// =============================================================================

// Exchange is one persisted prompt/response round trip.
type Exchange struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	Model            string    `json:"model"`
	Prompt           string    `json:"prompt"`
	Response         string    `json:"response"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	FinishReason     string    `json:"finish_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Store is the SQLite-backed exchange log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the exchange log at path.
func Open(path string) (*Store, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// WRITES
// =============================================================================

// Append records a completed exchange and returns its generated ID.
func (s *Store) Append(ctx context.Context, ex *Exchange) (string, error) {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (id, session_id, model, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, finish_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.SessionID, ex.Model, ex.Prompt, ex.Response,
		ex.PromptTokens, ex.CompletionTokens, ex.TotalTokens, ex.FinishReason, ex.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return ex.ID, nil
}

// Clear removes every recorded exchange and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM exchanges")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// =============================================================================
// READS
// =============================================================================

// Get returns a single exchange by ID.
func (s *Store) Get(ctx context.Context, id string) (*Exchange, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, model, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, finish_reason, created_at
		FROM exchanges WHERE id = ?`, id)

	ex, err := scanExchange(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return ex, nil
}

// Recent returns the most recent exchanges, newest first, up to limit.
// A limit of 0 or less returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Exchange, error) {
	query := `
		SELECT id, session_id, model, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, finish_reason, created_at
		FROM exchanges ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var exchanges []*Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return exchanges, nil
}

// BySession returns the exchanges of one session in chronological order.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]*Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, model, prompt, response,
			prompt_tokens, completion_tokens, total_tokens, finish_reason, created_at
		FROM exchanges WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var exchanges []*Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return exchanges, nil
}

// Count returns the number of recorded exchanges.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exchanges").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(row scanner) (*Exchange, error) {
	var ex Exchange
	err := row.Scan(&ex.ID, &ex.SessionID, &ex.Model, &ex.Prompt, &ex.Response,
		&ex.PromptTokens, &ex.CompletionTokens, &ex.TotalTokens, &ex.FinishReason, &ex.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ex, nil
}
