package driven

import (
	"context"
	"time"
)

// TokenResponse is the subset of a provider token response the service uses.
// Fields are empty when the provider omitted them.
type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// OAuthProvider defines the driven port for the external identity provider.
type OAuthProvider interface {
	// AuthCodeURL builds the consent URL. It performs no I/O.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a token pair.
	Exchange(ctx context.Context, code string) (TokenResponse, error)

	// Refresh trades a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
}
