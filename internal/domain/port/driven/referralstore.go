package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
)

// ErrDuplicateEmail is returned by ReferralStore.Create when a referral with
// the same email address already exists.
var ErrDuplicateEmail = errors.New("referral email already exists")

// ReferralStore defines the driven port for referral persistence.
type ReferralStore interface {
	// Create stores a new referral and returns it with ID and CreatedAt populated.
	// Returns ErrDuplicateEmail if the email is already taken.
	Create(ctx context.Context, referral model.Referral) (model.Referral, error)

	// GetByEmail returns the referral for email, or (nil, nil) if none exists.
	GetByEmail(ctx context.Context, email string) (*model.Referral, error)
}
