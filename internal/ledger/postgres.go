package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL ledger.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL opens databaseURL with the pgx driver and, when
// migrateOnStart is set, applies the embedded migrations.
func NewPostgresStoreFromURL(ctx context.Context, databaseURL string, migrateOnStart bool, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	if migrateOnStart {
		runner, err := NewMigrationRunner(db, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := runner.Up(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return store, nil
}

// Record appends an entry.
func (s *PostgresStore) Record(ctx context.Context, entry *Entry) error {
	ids, err := encodeIDs(entry.EvidenceIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO submissions (
			batch_id, hugo_symbol, path, kind, operation,
			evidence_ids, status, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		entry.BatchID,
		entry.HugoSymbol,
		entry.Path,
		entry.Kind,
		string(entry.Operation),
		ids,
		string(entry.Status),
		entry.Error,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// Batch returns every entry of a batch.
func (s *PostgresStore) Batch(ctx context.Context, batchID string) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM submissions WHERE batch_id = $1 ORDER BY id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch: %w", err)
	}
	return collect(rows)
}

// List returns the newest entries first.
func (s *PostgresStore) List(ctx context.Context, hugoSymbol string, limit, offset int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM submissions
		WHERE ($1 = '' OR hugo_symbol = $1)
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, hugoSymbol, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return collect(rows)
}

// Count returns the total number of entries.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
