package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
)

// CredentialStore defines the driven port for persisting the single OAuth
// credential record. Implementations are bound to one tenant key at
// construction time.
type CredentialStore interface {
	// Get returns the stored credential, or (nil, nil) if none exists yet.
	Get(ctx context.Context) (*model.OAuthCredential, error)

	// Upsert creates the credential record or replaces all of its fields.
	Upsert(ctx context.Context, cred model.OAuthCredential) error

	// UpdateAccessToken replaces the access token and expiry of the existing
	// record, leaving the refresh token untouched.
	UpdateAccessToken(ctx context.Context, accessToken string, expiresAt time.Time) error
}
