package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReferralStore = (*ReferralRepo)(nil)

// ReferralRepo is the SQLite implementation of the ReferralStore port interface.
type ReferralRepo struct {
	db *DB
}

// NewReferralRepo creates a new ReferralRepo backed by the given DB.
func NewReferralRepo(db *DB) *ReferralRepo {
	return &ReferralRepo{db: db}
}

// Create inserts a referral. The UNIQUE constraint on email is mapped to
// driven.ErrDuplicateEmail.
func (r *ReferralRepo) Create(ctx context.Context, referral model.Referral) (model.Referral, error) {
	const query = `INSERT INTO referrals (name, email, phone, referrer_id, referrer_name, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	createdAt := time.Now().UTC()
	res, err := r.db.Writer.ExecContext(ctx, query,
		referral.Name,
		referral.Email,
		referral.Phone,
		referral.ReferrerID,
		referral.ReferrerName,
		referral.Message,
		formatTime(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Referral{}, fmt.Errorf("create referral %q: %w", referral.Email, driven.ErrDuplicateEmail)
		}
		return model.Referral{}, fmt.Errorf("create referral %q: %w", referral.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Referral{}, fmt.Errorf("create referral %q: last insert id: %w", referral.Email, err)
	}

	referral.ID = id
	referral.CreatedAt = createdAt
	return referral, nil
}

// GetByEmail returns the referral for email. Returns (nil, nil) if not found.
func (r *ReferralRepo) GetByEmail(ctx context.Context, email string) (*model.Referral, error) {
	const query = `SELECT id, name, email, phone, referrer_id, referrer_name, message, created_at
		FROM referrals WHERE email = ?`

	var ref model.Referral
	var createdAt string
	err := r.db.Reader.QueryRowContext(ctx, query, email).Scan(
		&ref.ID, &ref.Name, &ref.Email, &ref.Phone, &ref.ReferrerID, &ref.ReferrerName, &ref.Message, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get referral %q: %w", email, err)
	}

	ref.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for referral %q: %w", email, err)
	}

	return &ref, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
