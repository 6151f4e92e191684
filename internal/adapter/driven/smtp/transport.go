// Package smtp implements the MailTransport port over SMTP with SASL
// OAUTHBEARER authentication, using emersion/go-smtp and emersion/go-sasl.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
	"github.com/ericfisherdev/mailrelay/internal/domain/port/driven"
)

const defaultDialTimeout = 10 * time.Second

// Compile-time interface satisfaction checks.
var (
	_ driven.MailTransport = (*Transport)(nil)
	_ driven.MailSession   = (*Session)(nil)
)

// Config controls how Transport reaches the mail server.
type Config struct {
	// Addr is host:port of the submission server, e.g. "smtp.gmail.com:465".
	Addr string
	// FromName is the display name placed in the From header.
	FromName string
	// Insecure disables implicit TLS. Only for local test servers.
	Insecure    bool
	DialTimeout time.Duration
}

// Transport implements driven.MailTransport. Every Open dials a new connection.
type Transport struct {
	cfg  Config
	host string
	port int
	now  func() time.Time
}

// NewTransport creates a Transport for cfg.
func NewTransport(cfg Config) (*Transport, error) {
	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("parse smtp address %q: %w", cfg.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parse smtp port %q: %w", portStr, err)
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	return &Transport{cfg: cfg, host: host, port: port, now: time.Now}, nil
}

// Open dials the server and authenticates as auth.User with auth.AccessToken.
// The client id, secret and refresh token in auth are not needed by SMTP.
func (t *Transport) Open(ctx context.Context, auth model.SessionAuth) (driven.MailSession, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	client := gosmtp.NewClient(conn)
	saslClient := sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: auth.User,
		Token:    auth.AccessToken,
		Host:     t.host,
		Port:     t.port,
	})
	if err := client.Auth(saslClient); err != nil {
		client.Close()
		return nil, fmt.Errorf("smtp auth as %q: %w", auth.User, err)
	}

	return &Session{
		client: client,
		conn:   conn,
		from:   mail.Address{Name: t.cfg.FromName, Address: auth.User},
		now:    t.now,
	}, nil
}

func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.cfg.DialTimeout}

	if t.cfg.Insecure {
		conn, err := dialer.DialContext(ctx, "tcp", t.cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("smtp dial %s: %w", t.cfg.Addr, err)
		}
		return conn, nil
	}

	tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: t.host}}
	conn, err := tlsDialer.DialContext(ctx, "tcp", t.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("smtp TLS dial %s: %w", t.cfg.Addr, err)
	}
	return conn, nil
}

// Session is one authenticated SMTP connection.
type Session struct {
	client *gosmtp.Client
	conn   net.Conn
	from   mail.Address
	now    func() time.Time
}

// Verify issues a NOOP to confirm the authenticated connection is alive.
func (s *Session) Verify(ctx context.Context) error {
	s.applyDeadline(ctx)
	if err := s.client.Noop(); err != nil {
		return fmt.Errorf("smtp NOOP: %w", err)
	}
	return nil
}

// Send transmits msg and returns its receipt.
func (s *Session) Send(ctx context.Context, msg model.MailMessage) (model.DeliveryReceipt, error) {
	s.applyDeadline(ctx)

	to, err := parseRecipient(msg.To)
	if err != nil {
		return model.DeliveryReceipt{}, err
	}

	sentAt := s.now().UTC()
	messageID := newMessageID(s.from.Address)
	raw, err := buildMessage(&s.from, to, msg, messageID, sentAt)
	if err != nil {
		return model.DeliveryReceipt{}, err
	}

	if err := s.client.Mail(s.from.Address, nil); err != nil {
		return model.DeliveryReceipt{}, fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := s.client.Rcpt(to.Address, nil); err != nil {
		return model.DeliveryReceipt{}, fmt.Errorf("smtp RCPT TO %q: %w", to.Address, err)
	}

	w, err := s.client.Data()
	if err != nil {
		return model.DeliveryReceipt{}, fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return model.DeliveryReceipt{}, fmt.Errorf("smtp write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return model.DeliveryReceipt{}, fmt.Errorf("smtp finalize message: %w", err)
	}

	return model.DeliveryReceipt{MessageID: messageID, To: to.Address, SentAt: sentAt}, nil
}

// Close sends QUIT and releases the connection.
func (s *Session) Close() error {
	if err := s.client.Quit(); err != nil {
		_ = s.client.Close()
		return fmt.Errorf("smtp QUIT: %w", err)
	}
	return nil
}

func (s *Session) applyDeadline(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetDeadline(dl)
	}
}
