package service

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/treasurer/internal/httpx"
	"github.com/mmynk/treasurer/internal/middleware"
)

const (
	msgInternal       = "Internal Server Error"
	msgInvalidRequest = "Invalid request body"
)

// badRequest reports a body that could not be decoded. The decoder error is
// not echoed.
func badRequest(w http.ResponseWriter, err error) {
	slog.Debug("Rejected request body", "error", err)
	httpx.WriteMessage(w, http.StatusBadRequest, msgInvalidRequest)
}

// internalError logs err server-side and answers with a generic 500.
func internalError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, logMsg, clientMsg string, err error) {
	logger.Error(logMsg,
		"error", err,
		"path", r.URL.Path,
		"request_id", middleware.GetRequestID(r.Context()),
	)
	httpx.WriteMessage(w, http.StatusInternalServerError, clientMsg)
}

func writeNotFound(w http.ResponseWriter) {
	httpx.WriteMessage(w, http.StatusNotFound, "Not found")
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	httpx.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}
