package httphandler

import (
	"log/slog"
	"net/http"
)

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with recovery, CORS and logging middleware. frontendOrigin may be empty to
// disable cross-origin access.
func NewServeMux(h *Handler, logger *slog.Logger, frontendOrigin string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/google", h.StartAuthorization)
	mux.HandleFunc("GET /oauth2callback", h.OAuthCallback)
	mux.HandleFunc("GET /test-email", h.SendTestEmail)
	mux.HandleFunc("POST /api/referrals", h.SubmitReferral)
	mux.HandleFunc("GET /health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = corsMiddleware(frontendOrigin, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}
