package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/treasurer/internal/auth"
	"github.com/mmynk/treasurer/internal/config"
	"github.com/mmynk/treasurer/internal/middleware"
	"github.com/mmynk/treasurer/internal/service"
	"github.com/mmynk/treasurer/internal/storage"
	"github.com/mmynk/treasurer/internal/storage/backend"
	"github.com/mmynk/treasurer/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", os.Getenv("CONFIG_FILE"), "Path to a YAML config file (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	store, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	srv := newServer(cfg, store)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newServer assembles the API handler and wraps it with h2c so HTTP/2
// clients work without TLS.
func newServer(cfg *config.Config, store storage.Store) *http.Server {
	tokens := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)

	handler := service.NewRouter(service.Deps{
		Store:          store,
		Authenticator:  auth.NewPasswordAuthenticator(store, cfg.BcryptCost),
		Tokens:         tokens,
		Metrics:        middleware.NewMetrics(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         slog.Default(),
	})

	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
}
