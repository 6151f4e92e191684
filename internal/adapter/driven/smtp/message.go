package smtp

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
)

// newMessageID returns an RFC 5322 Message-ID scoped to the sender's domain.
func newMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// parseRecipient accepts a bare address or a display-name form and returns
// the parsed address. RCPT TO must use Address, never the raw input.
func parseRecipient(raw string) (*mail.Address, error) {
	to, err := mail.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("parse recipient %q: %w", raw, err)
	}
	return to, nil
}

// buildMessage renders msg as a multipart/alternative MIME message with a
// quoted-printable text/plain part and an HTML part derived from it.
func buildMessage(from, to *mail.Address, msg model.MailMessage, messageID string, date time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := writePart(mw, "text/plain; charset=utf-8", msg.TextBody); err != nil {
		return nil, err
	}
	if htmlBody := renderHTML(msg.TextBody); htmlBody != "" {
		if err := writePart(mw, "text/html; charset=utf-8", htmlBody); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var out bytes.Buffer
	headers := []struct{ key, value string }{
		{"From", from.String()},
		{"To", to.String()},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"Date", date.Format(time.RFC1123Z)},
		{"Message-ID", messageID},
		{"MIME-Version", "1.0"},
		{"Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary())},
	}
	for _, h := range headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h.key, h.value)
	}
	out.WriteString("\r\n")
	out.Write(body.Bytes())

	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, content string) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Transfer-Encoding", "quoted-printable")

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}

	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("write %s part: %w", contentType, err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("flush %s part: %w", contentType, err)
	}
	return nil
}
