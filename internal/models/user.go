package models

const (
	// RoleAdmin may create events and transactions.
	RoleAdmin = "admin"
	// RoleMember may only read.
	RoleMember = "member"
)

// User represents a registered user account.
type User struct {
	// ID is assigned by the store on insert.
	ID int64 `json:"id"`

	// Username is unique across all users.
	Username string `json:"username"`

	// PasswordHash is the bcrypt digest of the user's password.
	// It is never serialized.
	PasswordHash string `json:"-"`

	// Role is stored verbatim as supplied at registration.
	// Only RoleAdmin carries extra privileges.
	Role string `json:"role"`
}

// NewUser creates a user that has not been persisted yet.
func NewUser(username, passwordHash, role string) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
