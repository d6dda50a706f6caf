package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/mmynk/treasurer/internal/auth"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const requestInfoKey contextKey = "request_info"

// requestInfo is filled in by inner handlers so the outer logger can report it.
type requestInfo struct {
	id     string
	userID int64
}

// annotate records the authenticated user for the access log.
func annotate(ctx context.Context, id auth.Identity) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = id.UserID
	}
}

// GetRequestID returns the id assigned by Logging, or "".
func GetRequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

// Logging assigns each request an id and logs it once it completes.
// Server errors log at ERROR, client errors at WARN.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		info := &requestInfo{id: r.Header.Get(RequestIDHeader)}
		if info.id == "" {
			info.id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, info.id)

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := context.WithValue(r.Context(), requestInfoKey, info)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", info.id,
			"remote_addr", r.RemoteAddr,
		}
		if info.userID != 0 {
			attrs = append(attrs, "user_id", info.userID)
		}
		slog.Log(r.Context(), level, "Request completed", attrs...)
	})
}
