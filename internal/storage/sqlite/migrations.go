package sqlite

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Decimal columns are TEXT so that amounts keep their exact representation.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		budget_allocated TEXT NOT NULL DEFAULT '0',
		amount_spent TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_name TEXT NOT NULL,
		amount TEXT NOT NULL,
		date TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_event_name ON transactions(event_name)`,
}
