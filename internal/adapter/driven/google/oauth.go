// Package google implements the OAuthProvider port against Google's OAuth 2.0
// endpoints using golang.org/x/oauth2.
package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// Scopes requested during authorization: full SMTP access and the account's
// email address.
var Scopes = []string{
	"https://mail.google.com/",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Compile-time interface satisfaction check.
var _ driven.OAuthProvider = (*Provider)(nil)

// Config holds the client registration used by Provider. AuthURL and TokenURL
// default to Google's endpoints when empty.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
}

// Provider implements driven.OAuthProvider.
type Provider struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

// NewProvider creates a Provider. httpClient may be nil to use http.DefaultClient.
func NewProvider(cfg Config, httpClient *http.Client) *Provider {
	endpoint := endpoints.Google
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	return &Provider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       Scopes,
		},
		httpClient: httpClient,
	}
}

// AuthCodeURL returns the consent URL. access_type=offline together with
// prompt=consent makes Google issue a refresh token on every consent.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for a token pair.
func (p *Provider) Exchange(ctx context.Context, code string) (driven.TokenResponse, error) {
	tok, err := p.cfg.Exchange(p.withClient(ctx), code)
	if err != nil {
		return driven.TokenResponse{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return toTokenResponse(tok), nil
}

// Refresh trades refreshToken for a new access token. The returned
// RefreshToken is whatever the provider sent back and may be empty.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (driven.TokenResponse, error) {
	// An expired token with only the refresh token set forces the TokenSource
	// to hit the token endpoint.
	src := p.cfg.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return driven.TokenResponse{}, fmt.Errorf("refresh access token: %w", err)
	}
	return toTokenResponse(tok), nil
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func toTokenResponse(tok *oauth2.Token) driven.TokenResponse {
	return driven.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}
