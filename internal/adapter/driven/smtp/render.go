package smtp

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	// No Linkify: bodies carry caller-supplied names and must not grow links.
	mdRenderer = goldmark.New(
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// renderHTML converts a plaintext body into sanitized HTML for the text/html
// alternative part. Paragraphs and line breaks carry over; every other
// character is literal, so the output never contains links or markup that
// was not in the template. Returns empty string for empty input.
func renderHTML(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(escapeMarkdown(src)), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// escapeMarkdown backslash-escapes every ASCII punctuation character and
// strips line indentation so goldmark treats the whole input as plain text.
func escapeMarkdown(src string) string {
	lines := strings.Split(src, "\n")
	var b strings.Builder
	b.Grow(len(src) * 2)

	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, r := range strings.TrimLeft(line, " \t") {
			if r < 0x80 && isASCIIPunct(byte(r)) {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') ||
		(c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}
