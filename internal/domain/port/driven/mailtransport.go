package driven

import (
	"context"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
)

// MailTransport opens authenticated sessions against the mail server.
type MailTransport interface {
	Open(ctx context.Context, auth model.SessionAuth) (MailSession, error)
}

// MailSession is a single authenticated connection. It is not safe for
// concurrent use and must be closed by the caller.
type MailSession interface {
	// Verify performs a live round trip to confirm the session is usable.
	Verify(ctx context.Context) error

	// Send dispatches msg and returns the receipt assigned to it.
	Send(ctx context.Context, msg model.MailMessage) (model.DeliveryReceipt, error)

	Close() error
}
