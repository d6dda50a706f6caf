package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/treasurer/internal/models"
	"github.com/mmynk/treasurer/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage storage.UserStore
	cost    int

	// dummyHash is compared against when the username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// cost is the bcrypt work factor; values outside bcrypt's range fall back to
// bcrypt.DefaultCost.
func NewPasswordAuthenticator(storage storage.UserStore, cost int) *PasswordAuthenticator {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &PasswordAuthenticator{
		storage:   storage,
		cost:      cost,
		dummyHash: dummy,
	}
}

// HashPassword returns the bcrypt digest of password at the authenticator's cost.
func (a *PasswordAuthenticator) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a new user account with a hashed password.
// The role is stored exactly as given.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, credential, role string) (*models.User, error) {
	if username == "" || credential == "" {
		return nil, ErrMissingCredentials
	}
	if len(credential) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	// Cheap early rejection; the UNIQUE constraint below is what actually
	// decides concurrent registrations.
	existingUser, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := a.HashPassword(credential)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(username, hashedPassword, role)
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	return user, nil
}

// Authenticate verifies the username and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(credential))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
