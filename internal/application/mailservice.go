package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

// ErrNoRecipient is returned by SendTest when neither an address nor a
// configured default recipient is available.
var ErrNoRecipient = errors.New("no recipient address")

const (
	referralSubject  = "You've been referred!"
	referralTemplate = "Hello,\n\n%s has referred you to us. We would love to tell you more, " +
		"just reply to this email and we will be in touch.\n\nThanks!\n"

	testSubject = "Test email"
	testBody    = "This is a test email confirming that the mail transport is configured correctly.\n"
)

// CredentialSource yields a credential with an unexpired access token.
// *TokenService satisfies it.
type CredentialSource interface {
	ValidCredential(ctx context.Context) (model.OAuthCredential, error)
}

// MailIdentity is the sending account and the OAuth client it authenticates with.
type MailIdentity struct {
	User         string
	ClientID     string
	ClientSecret string
}

// MailService builds a fresh authenticated transport session per message and
// dispatches a single email through it. Sessions are never reused.
type MailService struct {
	credentials      CredentialSource
	transport        driven.MailTransport
	identity         MailIdentity
	defaultRecipient string
	logger           *slog.Logger
}

// NewMailService creates a MailService. defaultRecipient may be empty.
func NewMailService(
	credentials CredentialSource,
	transport driven.MailTransport,
	identity MailIdentity,
	defaultRecipient string,
	logger *slog.Logger,
) *MailService {
	return &MailService{
		credentials:      credentials,
		transport:        transport,
		identity:         identity,
		defaultRecipient: defaultRecipient,
		logger:           logger,
	}
}

// CreateSession obtains a valid access token, opens a transport session and
// verifies it with a live round trip. Credential errors are returned as-is;
// transport failures wrap ErrTransportVerification. The caller must close the session.
func (s *MailService) CreateSession(ctx context.Context) (driven.MailSession, error) {
	cred, err := s.credentials.ValidCredential(ctx)
	if err != nil {
		return nil, err
	}

	session, err := s.transport.Open(ctx, model.SessionAuth{
		User:         s.identity.User,
		ClientID:     s.identity.ClientID,
		ClientSecret: s.identity.ClientSecret,
		RefreshToken: cred.RefreshToken,
		AccessToken:  cred.AccessToken,
	})
	if err != nil {
		s.logger.Error("mail session open failed", "user", s.identity.User, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransportVerification, err)
	}

	if err := session.Verify(ctx); err != nil {
		_ = session.Close()
		s.logger.Error("mail session verification failed", "user", s.identity.User, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTransportVerification, err)
	}

	return session, nil
}

// Send emails to the fixed referral notification naming referrerName.
func (s *MailService) Send(ctx context.Context, to, referrerName string) (model.DeliveryReceipt, error) {
	return s.deliver(ctx, model.MailMessage{
		To:       to,
		Subject:  referralSubject,
		TextBody: fmt.Sprintf(referralTemplate, referrerName),
	})
}

// SendTest emails the fixed test message to to, or to the configured default
// recipient when to is empty.
func (s *MailService) SendTest(ctx context.Context, to string) (model.DeliveryReceipt, error) {
	if to == "" {
		to = s.defaultRecipient
	}
	if to == "" {
		return model.DeliveryReceipt{}, ErrNoRecipient
	}

	return s.deliver(ctx, model.MailMessage{
		To:       to,
		Subject:  testSubject,
		TextBody: testBody,
	})
}

func (s *MailService) deliver(ctx context.Context, msg model.MailMessage) (model.DeliveryReceipt, error) {
	session, err := s.CreateSession(ctx)
	if err != nil {
		return model.DeliveryReceipt{}, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.logger.Warn("mail session close failed", "error", closeErr)
		}
	}()

	receipt, err := session.Send(ctx, msg)
	if err != nil {
		s.logger.Error("send email failed", "to", msg.To, "error", err)
		return model.DeliveryReceipt{}, fmt.Errorf("%w: %w", ErrSend, err)
	}

	s.logger.Info("email sent", "to", msg.To, "message_id", receipt.MessageID)
	return receipt, nil
}
