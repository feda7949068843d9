package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationRunner applies the embedded ledger migrations.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner creates a migration runner over an open database.
func NewMigrationRunner(db *sql.DB, logger *logrus.Logger) (*MigrationRunner, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}

	return &MigrationRunner{
		migrate: m,
		log:     logger,
	}, nil
}

// Up runs all pending migrations
func (mr *MigrationRunner) Up(ctx context.Context) error {
	mr.log.Info("Running ledger migrations up")

	if err := mr.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.Info("No pending migrations to run")
			return nil
		}
		return fmt.Errorf("running migrations up: %w", err)
	}

	version, dirty, err := mr.migrate.Version()
	if err != nil {
		mr.log.WithError(err).Warn("Could not get migration version after up")
	} else {
		mr.log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Migrations completed successfully")
	}

	return nil
}

// Down rolls back one migration
func (mr *MigrationRunner) Down(ctx context.Context) error {
	mr.log.Info("Rolling back one migration")

	if err := mr.migrate.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.Info("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// Version returns the current migration version
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.migrate.Version()
}
