// Package sqlstore implements storage.Store on top of database/sql.
//
// Engine differences (schema, placeholders, id retrieval, constraint errors)
// are isolated behind Dialect so the queries themselves are shared.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/treasurer/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect describes how a particular SQL engine differs from the shared queries.
type Dialect interface {
	// Name is the database/sql driver name, e.g. "sqlite".
	Name() string

	// Migrations returns idempotent schema statements run on startup.
	Migrations() []string

	// Rebind rewrites '?' placeholders into the engine's native form.
	Rebind(query string) string

	// ReturnsID reports whether inserts must use "RETURNING id" because the
	// driver does not implement sql.Result.LastInsertId.
	ReturnsID() bool

	// IsUniqueViolation reports whether err came from a UNIQUE constraint.
	IsUniqueViolation(err error) bool
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements storage.Store for any Dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn with the dialect's driver, verifies the connection and
// runs migrations.
func Open(ctx context.Context, dialect Dialect, dsn string, opts Options) (*Store, error) {
	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	store, err := New(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an already opened database. It pings the database and runs
// migrations.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect.Name(), err)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.Migrations() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// insert runs an INSERT and returns the generated id.
func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	query = s.dialect.Rebind(query)

	if s.dialect.ReturnsID() {
		var id int64
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return 0, s.mapError(err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

func (s *Store) mapError(err error) error {
	if s.dialect.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", storage.ErrDuplicate, err)
	}
	return err
}
