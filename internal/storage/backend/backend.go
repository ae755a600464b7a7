// Package backend picks and opens the configured storage implementation.
package backend

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"expense-tracker/internal/config"
	"expense-tracker/internal/storage"
	"expense-tracker/internal/storage/postgres"
	"expense-tracker/internal/storage/sqlite"

	"github.com/pressly/goose/v3"
)

// Open connects to the configured backend, migrating first when
// MIGRATE_ON_START is set.
func Open(ctx context.Context, cfg *config.Config) (storage.ExpenseStorage, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(ctx, cfg.DBConn); err != nil {
				return nil, err
			}
		}
		pool, err := postgres.Connect(ctx, cfg.DBConn)
		if err != nil {
			return nil, err
		}
		slog.Info("storage ready", "backend", cfg.DataBackend)
		return postgres.NewStorage(pool), nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := sqlite.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		slog.Info("storage ready", "backend", cfg.DataBackend, "path", cfg.SQLiteDBPath)
		return sqlite.NewStorage(db), nil
	}
	return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}

// Migrator returns a goose provider for the configured backend along with the
// handle it runs on. Close the handle when done.
func Migrator(cfg *config.Config) (*goose.Provider, *sql.DB, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		return postgres.NewMigrator(cfg.DBConn)
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		provider, err := sqlite.NewMigrator(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return provider, db, nil
	}
	return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
}
