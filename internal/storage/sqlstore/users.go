package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/treasurer/internal/models"
)

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	id, err := s.insert(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, user.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	return nil
}

// GetUserByUsername retrieves a user by exact username match.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := s.dialect.Rebind(`
		SELECT id, username, password_hash, role
		FROM users
		WHERE username = ?
	`)

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}
