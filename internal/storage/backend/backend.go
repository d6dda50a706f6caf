// Package backend picks the storage dialect named in configuration.
package backend

import (
	"context"
	"fmt"

	"github.com/mmynk/treasurer/internal/config"
	"github.com/mmynk/treasurer/internal/storage/mysql"
	"github.com/mmynk/treasurer/internal/storage/postgres"
	"github.com/mmynk/treasurer/internal/storage/sqlite"
	"github.com/mmynk/treasurer/internal/storage/sqlstore"
)

// Open connects to the configured database and runs migrations.
func Open(ctx context.Context, cfg config.Database) (*sqlstore.Store, error) {
	opts := sqlstore.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.URL)
	case config.DriverMySQL:
		return mysql.New(ctx, cfg.URL, opts)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.URL, opts)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
