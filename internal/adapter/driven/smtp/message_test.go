package smtp

import (
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/mailrelay/internal/domain/model"
)

func TestBuildMessage(t *testing.T) {
	from := mail.Address{Name: "Referrals", Address: "sender@example.com"}
	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	to := &mail.Address{Address: "friend@example.com"}
	raw, err := buildMessage(&from, to, model.MailMessage{
		To:       "friend@example.com",
		Subject:  "Bienvenue à bord",
		TextBody: "Charles has referred you.\nVisit https://example.com",
	}, "<id-1@example.com>", date)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	assert.Equal(t, `"Referrals" <sender@example.com>`, msg.Header.Get("From"))
	assert.Equal(t, "<friend@example.com>", msg.Header.Get("To"))
	assert.Equal(t, "<id-1@example.com>", msg.Header.Get("Message-ID"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Bienvenue à bord", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	parts, bodies := readParts(t, msg.Body, params["boundary"])

	require.Len(t, parts, 2)
	assert.Equal(t, "text/plain; charset=utf-8", parts[0])
	assert.Equal(t, "text/html; charset=utf-8", parts[1])
	assert.Contains(t, bodies[0], "Charles has referred you.")
	assert.Contains(t, bodies[1], "Charles has referred you.<br")
	assert.Contains(t, bodies[1], "Visit https://example.com")
	assert.NotContains(t, bodies[1], "<a")
}

func TestBuildMessage_UserSuppliedMarkupStaysText(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		want     string
	}{
		{"markdown link", "[Reset your password](https://evil.example/login)", "[Reset your password](https://evil.example/login)"},
		{"html tag", "<b>Bob</b>", "&lt;b&gt;Bob&lt;/b&gt;"},
		{"autolink", "<https://evil.example>", "&lt;https://evil.example&gt;"},
		{"bare url", "https://evil.example/login", "https://evil.example/login"},
		{"emphasis", "*Bob* _the_ `admin`", "*Bob* _the_ `admin`"},
		{"heading", "# Urgent", "# Urgent"},
	}

	from := &mail.Address{Name: "Referrals", Address: "sender@example.com"}
	to := &mail.Address{Address: "friend@example.com"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := buildMessage(from, to, model.MailMessage{
				To:       "friend@example.com",
				Subject:  "You've been referred",
				TextBody: "Hello,\n\n" + tt.referrer + " has referred you to us.",
			}, "<id@example.com>", time.Now())
			require.NoError(t, err)

			msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
			require.NoError(t, err)
			_, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
			require.NoError(t, err)

			_, bodies := readParts(t, msg.Body, params["boundary"])
			require.Len(t, bodies, 2)

			html := bodies[1]
			assert.NotContains(t, html, "<a")
			assert.NotContains(t, html, "<b>")
			assert.NotContains(t, html, "<em>")
			assert.NotContains(t, html, "<h1")
			assert.Contains(t, html, tt.want)
		})
	}
}

func readParts(t *testing.T, body io.Reader, boundary string) (contentTypes, bodies []string) {
	t.Helper()
	mr := multipart.NewReader(body, boundary)
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return contentTypes, bodies
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p)
		require.NoError(t, err)
		contentTypes = append(contentTypes, p.Header.Get("Content-Type"))
		bodies = append(bodies, string(b))
	}
}

func TestParseRecipient(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare", "friend@example.com", "friend@example.com", false},
		{"display name", "Bob <bob@example.com>", "bob@example.com", false},
		{"angle only", "<bob@example.com>", "bob@example.com", false},
		{"garbage", "not an address", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRecipient(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Address)
		})
	}
}

func TestNewMessageID(t *testing.T) {
	id := newMessageID("sender@example.com")
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@example.com>"))

	assert.True(t, strings.HasSuffix(newMessageID("nodomain"), "@localhost>"))
	assert.NotEqual(t, newMessageID("a@b.c"), newMessageID("a@b.c"))
}

func TestRenderHTML(t *testing.T) {
	assert.Equal(t, "", renderHTML(""))

	out := renderHTML("hello <script>alert(1)</script> world")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")

	out = renderHTML("Hello,\n\n[Reset your password](https://evil.example/login) has referred you to us.")
	assert.NotContains(t, out, "<a")
	assert.Contains(t, out, "[Reset your password](https://evil.example/login)")

	out = renderHTML("    indented code?\n1. not a list")
	assert.NotContains(t, out, "<pre")
	assert.NotContains(t, out, "<ol")
}
