// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/treasurer/internal/models"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts the user and populates user.ID.
	// Returns an error wrapping ErrDuplicate if the username is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername returns nil, nil if no user has that username.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// EventStore persists events.
type EventStore interface {
	// CreateEvent inserts the event and populates event.ID.
	CreateEvent(ctx context.Context, event *models.Event) error

	// ListEvents returns every event ordered by ID.
	ListEvents(ctx context.Context) ([]*models.Event, error)
}

// TransactionStore persists transactions.
type TransactionStore interface {
	// CreateTransaction inserts the transaction and populates txn.ID.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// ListTransactions returns every transaction ordered by ID.
	ListTransactions(ctx context.Context) ([]*models.Transaction, error)
}

// Store defines the full set of storage operations the API needs.
// This abstraction allows swapping storage backends (SQLite, MySQL,
// PostgreSQL) without changing the service layer.
type Store interface {
	UserStore
	EventStore
	TransactionStore

	// Close releases any resources held by the store.
	Close() error
}
