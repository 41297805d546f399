// Package store keeps the invocation journal: one row per tool call, kept for
// auditing what the agent did to the desktop. Nothing in the tool layer reads
// it back.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Outcome values stored in the journal.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// Record is one journaled tool invocation.
type Record struct {
	ID        string        `json:"id"`
	Tool      string        `json:"tool"`
	Arguments string        `json:"arguments"`
	Outcome   string        `json:"outcome"`
	ErrorCode string        `json:"error_code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
}

// Journal persists invocation records.
type Journal interface {
	Record(ctx context.Context, r Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteJournal is a Journal backed by a local SQLite file.
type SQLiteJournal struct {
	db  *sql.DB
	log *zap.Logger
}

var schema = []string{
	`PRAGMA journal_mode=WAL;`,
	`CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		tool TEXT NOT NULL,
		arguments TEXT NOT NULL,
		outcome TEXT NOT NULL,
		error_code TEXT,
		message TEXT,
		elapsed_ms INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at);`,
}

// OpenSQLite opens (creating if needed) the journal at path and verifies the
// connection.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; tool calls are serialised anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init journal schema: %w", err)
		}
	}

	return &SQLiteJournal{db: db, log: logger.Named("store")}, nil
}

func (s *SQLiteJournal) Record(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Arguments == "" {
		r.Arguments = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, tool, arguments, outcome, error_code, message, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, r.Tool, r.Arguments, r.Outcome, r.ErrorCode, r.Message,
		r.Elapsed.Milliseconds(), r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invocation %s: %w", r.ID, err)
	}
	return nil
}

func (s *SQLiteJournal) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tool, arguments, outcome, error_code, message, elapsed_ms, created_at
		 FROM invocations
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			code, msg sql.NullString
			elapsedMS int64
			created   string
		)
		if err := rows.Scan(&r.ID, &r.Tool, &r.Arguments, &r.Outcome, &code, &msg, &elapsedMS, &created); err != nil {
			return nil, fmt.Errorf("failed to scan invocation row: %w", err)
		}
		r.ErrorCode = code.String
		r.Message = msg.String
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			s.log.Warn("Unparseable invocation timestamp.", zap.String("id", r.ID), zap.String("created_at", created))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}

// Nop discards every record. It is used when the journal is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Record) error          { return nil }
func (Nop) Recent(context.Context, int) ([]Record, error) { return nil, nil }
func (Nop) Close() error                                  { return nil }

// Open returns the SQLite journal when enabled, otherwise Nop.
func Open(ctx context.Context, enabled bool, path string, logger *zap.Logger) (Journal, error) {
	if !enabled {
		return Nop{}, nil
	}
	j, err := OpenSQLite(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	return j, nil
}
