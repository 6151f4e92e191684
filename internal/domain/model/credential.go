package model

import "time"

// CredentialValidity is the fixed lifetime assumed for every access token
// minted by the provider. Expiry is tracked locally rather than trusting the
// provider-supplied lifetime.
const CredentialValidity = time.Hour

// OAuthCredential is the single stored OAuth credential set used to
// authenticate the mail transport. Tenant identifies the record; the service
// manages exactly one tenant configured at startup.
type OAuthCredential struct {
	Tenant       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// IsExpired reports whether the access token must be refreshed before use at
// time now. A missing access token counts as expired.
func (c OAuthCredential) IsExpired(now time.Time) bool {
	return c.AccessToken == "" || now.After(c.ExpiresAt)
}
