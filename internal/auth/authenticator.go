package auth

import (
	"context"

	"github.com/mmynk/treasurer/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping the credential check without changing
// the service layer code.
type Authenticator interface {
	// Register creates a new user account with the given username, credential and role.
	// Returns ErrUserExists if the username is taken.
	Register(ctx context.Context, username, credential, role string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	// Returns ErrInvalidCredentials for an unknown username and for a wrong credential alike.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)
}
