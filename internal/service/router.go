package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/middleware"
	"github.com/mmynk/treasurer/internal/storage"
)

// Deps are the collaborators the HTTP API is assembled from.
type Deps struct {
	Store          storage.Store
	Authenticator  auth.Authenticator
	Tokens         *auth.JWTManager
	Metrics        *middleware.Metrics
	AllowedOrigins string
	Logger         *slog.Logger
}

// NewRouter wires every route. GET /events and GET /transactions require a
// token of any role; writes additionally require the admin role.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := d.AllowedOrigins
	if origins == "" {
		origins = "*"
	}

	authSvc := NewAuthService(d.Authenticator, d.Tokens, logger)
	eventSvc := NewEventService(d.Store, logger)
	txnSvc := NewTransactionService(d.Store, logger)
	gate := middleware.NewGate(d.Tokens)

	r := chi.NewRouter()
	r.Use(middleware.Logging)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(origins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMethodNotAllowed(w)
	})

	r.Get("/health", Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Post("/register", authSvc.Register)
	r.Post("/login", authSvc.Login)

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)

		r.Get("/me", authSvc.Me)
		r.Get("/events", eventSvc.ListEvents)
		r.Get("/events/summary", eventSvc.Summary)
		r.Get("/transactions", txnSvc.ListTransactions)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/events", eventSvc.CreateEvent)
			r.Post("/transactions", txnSvc.CreateTransaction)
		})
	})

	return r
}

// Health is the liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
