package model

import "time"

// MailMessage is a single outbound email. TextBody is authoritative; the
// transport may derive an HTML alternative from it.
type MailMessage struct {
	To       string
	Subject  string
	TextBody string
}

// DeliveryReceipt is returned by the transport after the server accepted a message.
type DeliveryReceipt struct {
	MessageID string
	To        string
	SentAt    time.Time
}

// SessionAuth carries everything the transport needs to authenticate a
// session via OAuth on behalf of User.
type SessionAuth struct {
	User         string
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
}
