package application

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// Notifier sends the referral notification email. *MailService satisfies it.
type Notifier interface {
	Send(ctx context.Context, to, referrerName string) (model.DeliveryReceipt, error)
}

// ReferralInput is the raw submission as received from the client.
type ReferralInput struct {
	Name         string
	Email        string
	Phone        string
	ReferrerID   string
	ReferrerName string
	Message      string
}

// SubmitResult describes a persisted referral and the outcome of its
// notification. EmailError is set when the email failed; the referral is
// still stored in that case.
type SubmitResult struct {
	Referral   model.Referral
	EmailSent  bool
	EmailError string
	Receipt    *model.DeliveryReceipt
}

// ReferralService validates, stores and announces referrals.
type ReferralService struct {
	store    driven.ReferralStore
	notifier Notifier
	logger   *slog.Logger
	strip    *bluemonday.Policy
}

// NewReferralService creates a ReferralService with the required dependencies.
func NewReferralService(store driven.ReferralStore, notifier Notifier, logger *slog.Logger) *ReferralService {
	return &ReferralService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		strip:    bluemonday.StrictPolicy(),
	}
}

// Submit validates in, stores the referral and attempts the notification.
// Validation failures return a *ValidationError and nothing is stored.
// A duplicate email returns an error wrapping driven.ErrDuplicateEmail
// without attempting the insert.
func (s *ReferralService) Submit(ctx context.Context, in ReferralInput) (SubmitResult, error) {
	referral, err := s.normalize(in)
	if err != nil {
		return SubmitResult{}, err
	}

	existing, err := s.store.GetByEmail(ctx, referral.Email)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("look up referral: %w", err)
	}
	if existing != nil {
		s.logger.Info("duplicate referral rejected", "email", referral.Email, "existing_id", existing.ID)
		return SubmitResult{}, fmt.Errorf("create referral: %w", driven.ErrDuplicateEmail)
	}

	// The UNIQUE constraint still catches a concurrent insert of the same email.
	created, err := s.store.Create(ctx, referral)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("create referral: %w", err)
	}
	s.logger.Info("referral created", "id", created.ID, "referrer_id", created.ReferrerID)

	result := SubmitResult{Referral: created}

	receipt, err := s.notifier.Send(ctx, created.Email, created.ReferrerName)
	if err != nil {
		s.logger.Warn("referral notification failed", "id", created.ID, "email", created.Email, "error", err)
		result.EmailError = err.Error()
		return result, nil
	}

	result.EmailSent = true
	result.Receipt = &receipt
	return result, nil
}

// normalize trims every field, checks required ones, lower-cases the email
// and strips markup from the free-text message.
func (s *ReferralService) normalize(in ReferralInput) (model.Referral, error) {
	ref := model.Referral{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		ReferrerID:   strings.TrimSpace(in.ReferrerID),
		ReferrerName: strings.TrimSpace(in.ReferrerName),
		Message:      strings.TrimSpace(html.UnescapeString(s.strip.Sanitize(in.Message))),
	}

	verr := &ValidationError{}
	required := []struct{ field, value string }{
		{"name", ref.Name},
		{"email", ref.Email},
		{"phone", ref.Phone},
		{"referrerId", ref.ReferrerID},
		{"referrerName", ref.ReferrerName},
	}
	for _, r := range required {
		if r.value == "" {
			verr.Missing = append(verr.Missing, r.field)
		}
	}

	if ref.Email != "" {
		if addr, err := mail.ParseAddress(ref.Email); err != nil || addr.Address != ref.Email {
			verr.Invalid = append(verr.Invalid, "email")
		}
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return model.Referral{}, verr
	}
	return ref, nil
}
