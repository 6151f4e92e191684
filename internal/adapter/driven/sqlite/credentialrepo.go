package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// ErrCredentialNotFound is returned by UpdateAccessToken when no credential
// row exists for the repo's tenant.
var ErrCredentialNotFound = errors.New("credential not found")

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Every operation is scoped to the tenant passed at construction.
type CredentialRepo struct {
	db     *DB
	tenant string
}

// NewCredentialRepo creates a new CredentialRepo bound to tenant.
func NewCredentialRepo(db *DB, tenant string) *CredentialRepo {
	return &CredentialRepo{db: db, tenant: tenant}
}

// Get retrieves the tenant's credential. Returns (nil, nil) if none is stored.
func (r *CredentialRepo) Get(ctx context.Context) (*model.OAuthCredential, error) {
	const query = `SELECT tenant, access_token, refresh_token, expires_at, updated_at
		FROM oauth_credentials WHERE tenant = ?`

	var cred model.OAuthCredential
	var expiresAt, updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, r.tenant).Scan(
		&cred.Tenant, &cred.AccessToken, &cred.RefreshToken, &expiresAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", r.tenant, err)
	}

	cred.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at for credential %q: %w", r.tenant, err)
	}
	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for credential %q: %w", r.tenant, err)
	}

	return &cred, nil
}

// Upsert stores or replaces the tenant's credential. The Tenant field of cred
// is ignored in favour of the repo's tenant.
func (r *CredentialRepo) Upsert(ctx context.Context, cred model.OAuthCredential) error {
	const query = `INSERT INTO oauth_credentials (tenant, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(tenant) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`

	_, err := r.db.Writer.ExecContext(ctx, query,
		r.tenant, cred.AccessToken, cred.RefreshToken, formatTime(cred.ExpiresAt), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert credential %q: %w", r.tenant, err)
	}
	return nil
}

// UpdateAccessToken replaces the access token and expiry in place. The refresh
// token is never rotated here.
func (r *CredentialRepo) UpdateAccessToken(ctx context.Context, accessToken string, expiresAt time.Time) error {
	const query = `UPDATE oauth_credentials SET access_token = ?, expires_at = ?, updated_at = ? WHERE tenant = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, accessToken, formatTime(expiresAt), formatTime(time.Now()), r.tenant)
	if err != nil {
		return fmt.Errorf("update access token %q: %w", r.tenant, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update access token %q: rows affected: %w", r.tenant, err)
	}
	if n == 0 {
		return fmt.Errorf("update access token %q: %w", r.tenant, ErrCredentialNotFound)
	}
	return nil
}
