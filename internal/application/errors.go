package application

import (
	"errors"
	"strings"
)

// Sentinel errors returned by the application services. Handlers classify
// them with errors.Is.
var (
	// ErrMissingCode is returned when the OAuth callback carries no code.
	ErrMissingCode = errors.New("authorization code is missing")

	// ErrMissingRefreshToken is returned when the provider omitted the refresh
	// token. The user must restart the flow with forced consent.
	ErrMissingRefreshToken = errors.New("provider did not return a refresh token; re-run authorization with consent")

	// ErrNoCredential is returned when nothing is stored yet. Re-authentication is required.
	ErrNoCredential = errors.New("no stored credential; authorization required")

	// ErrRefreshFailed is returned when the provider did not issue a new access token.
	ErrRefreshFailed = errors.New("access token refresh failed")

	// ErrTransportVerification is returned when a mail session cannot be
	// opened or fails its liveness check.
	ErrTransportVerification = errors.New("mail transport verification failed")

	// ErrSend wraps transport failures while dispatching a message.
	ErrSend = errors.New("send email failed")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists the referral fields that are missing or invalid.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
