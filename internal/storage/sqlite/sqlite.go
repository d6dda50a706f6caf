// Package sqlite provides the SQLite dialect for sqlstore.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/treasurer/internal/storage/sqlstore"
)

// Dialect implements sqlstore.Dialect for SQLite.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Migrations() []string { return migrations }

func (Dialect) Rebind(query string) string { return query }

func (Dialect) ReturnsID() bool { return false }

// IsUniqueViolation reports whether err is SQLITE_CONSTRAINT_UNIQUE.
func (Dialect) IsUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Drivers without extended result codes only report the primary code.
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

// New opens the SQLite database at dbPath, creating parent directories as
// needed, and runs migrations.
//
// SQLite allows a single writer, so the pool is pinned to one connection.
// This also keeps ":memory:" databases alive for the store's lifetime.
func New(ctx context.Context, dbPath string) (*sqlstore.Store, error) {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return sqlstore.Open(ctx, Dialect{}, withPragmas(dbPath), sqlstore.Options{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}
