package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/httpx"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// IdentityKey is the context key for storing the authenticated identity.
	IdentityKey contextKey = "identity"
)

// Response messages for rejected requests.
const (
	MsgUnauthorized = "Unauthorized"
	MsgInvalidToken = "Invalid token"
	MsgAccessDenied = "Access denied"
)

// GetIdentity extracts the authenticated identity from the context.
// The second result is false if the request did not pass RequireAuth.
func GetIdentity(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(auth.Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// Gate authenticates requests with bearer tokens. The signing key and clock
// live in the JWTManager it is built from.
type Gate struct {
	tokens *auth.JWTManager
}

// NewGate creates a Gate that verifies tokens with tokens.
func NewGate(tokens *auth.JWTManager) *Gate {
	return &Gate{tokens: tokens}
}

// RequireAuth validates the bearer token and adds the identity to the request
// context. It never touches the store.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			msg := MsgInvalidToken
			if errors.Is(err, auth.ErrMissingToken) {
				msg = MsgUnauthorized
			}
			httpx.WriteMessage(w, http.StatusUnauthorized, msg)
			return
		}

		claims, err := g.tokens.Validate(tokenString)
		if err != nil {
			slog.Debug("Token rejected", "path", r.URL.Path, "error", err)
			httpx.WriteMessage(w, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		id := claims.Identity()
		annotate(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin rejects identities without the admin role. It must be mounted
// after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		if !ok {
			httpx.WriteMessage(w, http.StatusUnauthorized, MsgUnauthorized)
			return
		}
		if !id.IsAdmin() {
			httpx.WriteMessage(w, http.StatusForbidden, MsgAccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken parses "Bearer <token>".
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if !found || token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}
