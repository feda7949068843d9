package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite ledger.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// createSchema creates the ledger table and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		hugo_symbol TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		operation TEXT NOT NULL,
		evidence_ids TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_batch_id ON submissions(batch_id);
	CREATE INDEX IF NOT EXISTS idx_submissions_hugo_symbol ON submissions(hugo_symbol);
	CREATE INDEX IF NOT EXISTS idx_submissions_created_at ON submissions(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// scanEntry scans a row into an Entry.
func scanEntry(s scanner) (*Entry, error) {
	e := &Entry{}
	var operation, status string
	var ids []byte

	err := s.Scan(
		&e.ID, &e.BatchID, &e.HugoSymbol, &e.Path, &e.Kind,
		&operation, &ids, &status, &e.Error, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Operation = Operation(operation)
	e.Status = Status(status)
	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &e.EvidenceIDs); err != nil {
			return nil, fmt.Errorf("failed to decode evidence ids: %w", err)
		}
	}
	return e, nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode evidence ids: %w", err)
	}
	return string(data), nil
}

// Record appends an entry.
func (s *SQLiteStore) Record(ctx context.Context, entry *Entry) error {
	ids, err := encodeIDs(entry.EvidenceIDs)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (
			batch_id, hugo_symbol, path, kind, operation,
			evidence_ids, status, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.BatchID,
		entry.HugoSymbol,
		entry.Path,
		entry.Kind,
		string(entry.Operation),
		ids,
		string(entry.Status),
		entry.Error,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now
	return nil
}

// Batch returns every entry of a batch.
func (s *SQLiteStore) Batch(ctx context.Context, batchID string) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM submissions WHERE batch_id = ? ORDER BY id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return collect(rows)
}

// List returns the newest entries first.
func (s *SQLiteStore) List(ctx context.Context, hugoSymbol string, limit, offset int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM submissions
		WHERE (? = '' OR hugo_symbol = ?)
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, hugoSymbol, hugoSymbol, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return collect(rows)
}

// Count returns the total number of entries.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&count)
	return count, err
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func collect(rows *sql.Rows) ([]*Entry, error) {
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
