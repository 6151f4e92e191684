package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// TokenService obtains and refreshes the stored OAuth credential. It keeps no
// cached copy between calls; every decision starts from a fresh store read.
type TokenService struct {
	store    driven.CredentialStore
	provider driven.OAuthProvider
	logger   *slog.Logger
	now      func() time.Time

	// refreshes collapses concurrent refreshes into one provider call.
	refreshes singleflight.Group
}

// NewTokenService creates a TokenService with the required dependencies.
func NewTokenService(store driven.CredentialStore, provider driven.OAuthProvider, logger *slog.Logger) *TokenService {
	return &TokenService{
		store:    store,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// InitiateAuthorization returns the provider consent URL.
func (s *TokenService) InitiateAuthorization() string {
	return s.provider.AuthCodeURL("")
}

// CompleteAuthorization exchanges code for a token pair and upserts the
// credential with an expiry one validity window from now.
func (s *TokenService) CompleteAuthorization(ctx context.Context, code string) (model.OAuthCredential, error) {
	if code == "" {
		return model.OAuthCredential{}, ErrMissingCode
	}

	tok, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return model.OAuthCredential{}, fmt.Errorf("complete authorization: %w", err)
	}
	if tok.RefreshToken == "" {
		return model.OAuthCredential{}, ErrMissingRefreshToken
	}

	cred := model.OAuthCredential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    s.now().Add(model.CredentialValidity),
	}
	if err := s.store.Upsert(ctx, cred); err != nil {
		return model.OAuthCredential{}, fmt.Errorf("store credential: %w", err)
	}

	s.logger.Info("oauth credential stored", "expires_at", cred.ExpiresAt)
	return cred, nil
}

// GetValidAccessToken returns an unexpired access token, refreshing first if needed.
func (s *TokenService) GetValidAccessToken(ctx context.Context) (string, error) {
	cred, err := s.ValidCredential(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// ValidCredential returns the stored credential with an unexpired access token,
// refreshing first if the stored one is missing or past ExpiresAt.
func (s *TokenService) ValidCredential(ctx context.Context) (model.OAuthCredential, error) {
	cred, err := s.store.Get(ctx)
	if err != nil {
		return model.OAuthCredential{}, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return model.OAuthCredential{}, ErrNoCredential
	}
	if !cred.IsExpired(s.now()) {
		return *cred, nil
	}

	s.logger.Info("access token expired, refreshing", "expires_at", cred.ExpiresAt)
	refreshed, err := s.refresh(ctx)
	if err != nil {
		return model.OAuthCredential{}, err
	}
	return refreshed, nil
}

// Refresh mints a new access token from the stored refresh token and
// persists it with a new expiry. The refresh token is not rotated.
func (s *TokenService) Refresh(ctx context.Context) (string, error) {
	cred, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

func (s *TokenService) refresh(ctx context.Context) (model.OAuthCredential, error) {
	v, err, shared := s.refreshes.Do("refresh", func() (any, error) {
		return s.doRefresh(ctx)
	})
	if err != nil {
		return model.OAuthCredential{}, err
	}
	if shared {
		s.logger.Debug("joined in-flight token refresh")
	}
	return v.(model.OAuthCredential), nil
}

func (s *TokenService) doRefresh(ctx context.Context) (model.OAuthCredential, error) {
	cred, err := s.store.Get(ctx)
	if err != nil {
		return model.OAuthCredential{}, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil || cred.RefreshToken == "" {
		return model.OAuthCredential{}, ErrNoCredential
	}

	tok, err := s.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		s.logger.Error("token refresh failed", "error", err)
		return model.OAuthCredential{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if tok.AccessToken == "" {
		s.logger.Error("token refresh returned no access token")
		return model.OAuthCredential{}, ErrRefreshFailed
	}

	expiresAt := s.now().Add(model.CredentialValidity)
	if err := s.store.UpdateAccessToken(ctx, tok.AccessToken, expiresAt); err != nil {
		return model.OAuthCredential{}, fmt.Errorf("store refreshed token: %w", err)
	}

	cred.AccessToken = tok.AccessToken
	cred.ExpiresAt = expiresAt
	s.logger.Info("access token refreshed", "expires_at", expiresAt)
	return *cred, nil
}

// Bootstrap seeds the store with refreshToken when no credential exists yet.
// The seeded record has no access token, so the first use refreshes it.
// Returns true if a record was written.
func (s *TokenService) Bootstrap(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}

	cred, err := s.store.Get(ctx)
	if err != nil {
		return false, fmt.Errorf("load credential: %w", err)
	}
	if cred != nil {
		return false, nil
	}

	if err := s.store.Upsert(ctx, model.OAuthCredential{
		RefreshToken: refreshToken,
		ExpiresAt:    s.now(),
	}); err != nil {
		return false, fmt.Errorf("seed credential: %w", err)
	}
	return true, nil
}
