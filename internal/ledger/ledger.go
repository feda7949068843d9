package ledger

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
)

// Open creates the store selected by config.
func Open(ctx context.Context, config domain.LedgerConfig, logger *logrus.Logger) (Store, error) {
	switch config.Driver {
	case "", "sqlite":
		path := config.SQLitePath
		if path == "" {
			path = "./data/ledger.db"
		}
		logger.WithField("path", path).Info("Opening SQLite submission ledger")
		return NewSQLiteStore(path)
	case "postgres":
		logger.Info("Opening PostgreSQL submission ledger")
		return NewPostgresStoreFromURL(ctx, config.PostgresURL, config.MigrateOnStart, logger)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", config.Driver)
	}
}
