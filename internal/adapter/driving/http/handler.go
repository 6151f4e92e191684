package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/mailrelay/internal/application"
	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// maxReferralBody caps the size of a referral submission.
const maxReferralBody = 64 << 10

// TokenManager is the part of application.TokenService the handler needs.
type TokenManager interface {
	InitiateAuthorization() string
	CompleteAuthorization(ctx context.Context, code string) (model.OAuthCredential, error)
}

// TestMailer sends the test email. application.MailService satisfies it.
type TestMailer interface {
	SendTest(ctx context.Context, to string) (model.DeliveryReceipt, error)
}

// ReferralSubmitter accepts referral submissions. application.ReferralService satisfies it.
type ReferralSubmitter interface {
	Submit(ctx context.Context, in application.ReferralInput) (application.SubmitResult, error)
}

// HealthChecker reports liveness. application.HealthService satisfies it.
type HealthChecker interface {
	Check(ctx context.Context) application.HealthStatus
}

// Handler is the HTTP driving adapter that serves the OAuth, mail and referral endpoints.
type Handler struct {
	tokens    TokenManager
	mailer    TestMailer
	referrals ReferralSubmitter
	health    HealthChecker
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	tokens TokenManager,
	mailer TestMailer,
	referrals ReferralSubmitter,
	health HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		tokens:    tokens,
		mailer:    mailer,
		referrals: referrals,
		health:    health,
		logger:    logger,
	}
}

// StartAuthorization redirects the browser to the provider consent page.
func (h *Handler) StartAuthorization(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.tokens.InitiateAuthorization(), http.StatusFound)
}

// OAuthCallback exchanges the authorization code and stores the credential.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		h.logger.Warn("authorization denied by provider", "error", providerErr)
		writeError(w, http.StatusBadRequest, "authorization failed: "+providerErr)
		return
	}

	cred, err := h.tokens.CompleteAuthorization(r.Context(), q.Get("code"))
	switch {
	case errors.Is(err, application.ErrMissingCode):
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	case errors.Is(err, application.ErrMissingRefreshToken):
		h.logger.Warn("authorization returned no refresh token")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to complete authorization", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "authorization failed", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthorizationResponse{
		Message:   "Authorization successful. Credentials stored.",
		ExpiresAt: cred.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// SendTestEmail sends the test email to ?email= or the configured default recipient.
func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.mailer.SendTest(r.Context(), r.URL.Query().Get("email"))
	switch {
	case errors.Is(err, application.ErrNoRecipient):
		writeError(w, http.StatusBadRequest, "no recipient: pass ?email= or configure a default")
		return
	case errors.Is(err, application.ErrNoCredential):
		writeError(w, http.StatusUnauthorized, "not authorized: visit /auth/google first")
		return
	case err != nil:
		h.logger.Error("failed to send test email", "error", err)
		writeErrorDetail(w, http.StatusInternalServerError, "failed to send test email", err)
		return
	}

	writeJSON(w, http.StatusOK, toSendResponse(receipt))
}

// SubmitReferral validates and stores a referral, then attempts the
// notification email. An email failure still yields 201.
func (h *Handler) SubmitReferral(w http.ResponseWriter, r *http.Request) {
	var req ReferralRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReferralBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.referrals.Submit(r.Context(), req.toInput())
	if err != nil {
		var verr *application.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   verr.Error(),
				Missing: verr.Missing,
				Invalid: verr.Invalid,
			})
		case errors.Is(err, driven.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "a referral with this email already exists")
		default:
			h.logger.Error("failed to create referral", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create referral")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toReferralCreatedResponse(result))
}

// Health returns a simple health check response. It always answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.health.Check(r.Context())
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     status.Status,
		Time:       status.Time.UTC().Format(time.RFC3339),
		Credential: status.Credential,
	})
}
