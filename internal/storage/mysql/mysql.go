// Package mysql provides the MySQL dialect for sqlstore.
package mysql

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/mmynk/treasurer/internal/storage/sqlstore"
)

// erDupEntry is MySQL's ER_DUP_ENTRY.
const erDupEntry = 1062

// Dialect implements sqlstore.Dialect for MySQL.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "mysql" }

func (Dialect) Rebind(query string) string { return query }

func (Dialect) ReturnsID() bool { return false }

func (Dialect) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == erDupEntry
}

func (Dialect) Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			budget_allocated DECIMAL(12,2) NOT NULL DEFAULT 0,
			amount_spent DECIMAL(12,2) NOT NULL DEFAULT 0,
			status VARCHAR(64) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			event_name VARCHAR(255) NOT NULL,
			amount DECIMAL(12,2) NOT NULL,
			date DATE NOT NULL,
			INDEX idx_transactions_event_name (event_name)
		)`,
		// Usernames compare byte-for-byte on tables created before the collation was set.
		`ALTER TABLE users MODIFY username VARCHAR(255) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL`,
	}
}

// New connects to MySQL using a go-sql-driver DSN such as
// "user:pass@tcp(localhost:3306)/treasurer_dashboard".
func New(ctx context.Context, dsn string, opts sqlstore.Options) (*sqlstore.Store, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	// Scan DATE columns as time.Time instead of raw bytes.
	cfg.ParseTime = true

	return sqlstore.Open(ctx, Dialect{}, cfg.FormatDSN(), opts)
}
