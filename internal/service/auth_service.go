package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/httpx"
	"github.com/mmynk/treasurer/internal/middleware"
)

const (
	msgUserExists         = "User already exists"
	msgMissingCredentials = "Username and password are required"
	msgInvalidCredentials = "Invalid credentials"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgRegistered         = "User registered successfully"
	msgLoggedIn           = "Login successful"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type meResponse struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// AuthService handles registration, login and identity lookups.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	user, err := s.authenticator.Register(r.Context(), req.Username, req.Password, req.Role)
	switch {
	case errors.Is(err, auth.ErrUserExists):
		s.logger.Info("Registration rejected", "username", req.Username, "reason", "exists")
		httpx.WriteMessage(w, http.StatusBadRequest, msgUserExists)
		return
	case errors.Is(err, auth.ErrMissingCredentials):
		httpx.WriteMessage(w, http.StatusBadRequest, msgMissingCredentials)
		return
	case errors.Is(err, auth.ErrPasswordTooLong):
		httpx.WriteMessage(w, http.StatusBadRequest, msgPasswordTooLong)
		return
	case err != nil:
		internalError(s.logger, w, r, "Registration failed", msgInternal, err)
		return
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "username", user.Username, "role", user.Role)
	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: msgRegistered,
		UserID:  user.ID,
	})
}

// Login authenticates a user and returns a JWT token.
// Unknown usernames and wrong passwords produce the same response.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		badRequest(w, err)
		return
	}

	user, err := s.authenticator.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "username", req.Username)
		httpx.WriteMessage(w, http.StatusBadRequest, msgInvalidCredentials)
		return
	}
	if err != nil {
		internalError(s.logger, w, r, "Login lookup failed", msgInternal, err)
		return
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		internalError(s.logger, w, r, "Failed to generate token", msgInternal, err)
		return
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Message: msgLoggedIn,
		Token:   token,
	})
}

// Me returns the identity asserted by the caller's token.
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, middleware.MsgUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{UserID: id.UserID, Role: id.Role})
}
