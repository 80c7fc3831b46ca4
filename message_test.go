package smtpkit

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Message{To: "a@example.com"}.validate())
	require.ErrorIs(t, Message{}.validate(), ErrValidation)
	require.ErrorIs(t, Message{To: "no-at-sign"}.validate(), ErrValidation)

	// Addresses with line breaks are malformed input, not a server-side
	// send failure.
	require.ErrorIs(t, Message{To: "a@example.com\r\nRCPT TO:<x@y.z>"}.validate(), ErrValidation)
	require.ErrorIs(t, Message{To: "a@example.com\n"}.validate(), ErrValidation)
}

func TestMessage_Envelope(t *testing.T) {
	t.Parallel()

	msg := Message{
		To:  "to@example.com",
		Cc:  []string{"cc1@example.com", "cc2@example.com"},
		Bcc: []string{"bcc@example.com"},
	}

	require.Equal(t, []string{
		"to@example.com", "cc1@example.com", "cc2@example.com", "bcc@example.com",
	}, msg.envelope())
}

func TestMessage_Build_PlainText(t *testing.T) {
	t.Parallel()

	raw, err := Message{
		To:      "friend@example.com",
		Subject: "Hi",
		Body:    "Hello!",
	}.build("sender@example.com")
	require.NoError(t, err)

	msg := string(raw)
	require.Contains(t, msg, "From: sender@example.com\r\n")
	require.Contains(t, msg, "To: friend@example.com\r\n")
	require.Contains(t, msg, "Subject: Hi\r\n")
	require.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n")
	require.Contains(t, msg, "MIME-Version: 1.0\r\n")
	require.Contains(t, msg, "Date: ")
	require.Contains(t, msg, "Message-ID: <")
	require.Contains(t, msg, "@example.com>")
	require.Contains(t, msg, "Hello!\r\n")
	require.NotContains(t, msg, "Cc:")
}

func TestMessage_Build_HTML(t *testing.T) {
	t.Parallel()

	raw, err := Message{
		To:      "friend@example.com",
		Subject: "Hi",
		Body:    "<h1>Hello!</h1>",
		HTML:    true,
	}.build("sender@example.com")
	require.NoError(t, err)

	require.Contains(t, string(raw), "Content-Type: text/html; charset=utf-8\r\n")
	require.Contains(t, string(raw), "<h1>Hello!</h1>")
}

func TestMessage_Build_CcBccHeaders(t *testing.T) {
	t.Parallel()

	raw, err := Message{
		To:      "friend@example.com",
		Cc:      []string{"one@example.com", "two@example.com"},
		Bcc:     []string{"three@example.com"},
		Subject: "Hi",
		Body:    "Hello!",
	}.build("sender@example.com")
	require.NoError(t, err)

	require.Contains(t, string(raw), "Cc: one@example.com, two@example.com\r\n")
	require.Contains(t, string(raw), "Bcc: three@example.com\r\n")
}

func TestMessage_Build_SanitizesSubject(t *testing.T) {
	t.Parallel()

	raw, err := Message{
		To:      "friend@example.com",
		Subject: "Hi\r\nX-Injected: evil",
		Body:    "Hello!",
	}.build("sender@example.com")
	require.NoError(t, err)

	// The injected text must not become its own header line.
	require.NotContains(t, string(raw), "\r\nX-Injected: evil")
	require.Contains(t, string(raw), "Subject: Hi X-Injected: evil\r\n")
}

func TestMessage_Build_WithAttachment(t *testing.T) {
	t.Parallel()

	content := []byte("attachment payload bytes")
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	raw, err := Message{
		To:          "friend@example.com",
		Subject:     "Report",
		Body:        "See attached.",
		Attachments: []string{path},
	}.build("sender@example.com")
	require.NoError(t, err)

	msg := string(raw)
	require.Contains(t, msg, "Content-Type: multipart/mixed; boundary=")
	require.Contains(t, msg, "See attached.")
	require.Contains(t, msg, `attachment; filename="report.pdf"`)
	require.Contains(t, msg, "Content-Transfer-Encoding: base64")
	require.Contains(t, msg, base64.StdEncoding.EncodeToString(content))
}

func TestMessage_Build_UnreadableAttachment(t *testing.T) {
	t.Parallel()

	_, err := Message{
		To:          "friend@example.com",
		Subject:     "Report",
		Body:        "See attached.",
		Attachments: []string{filepath.Join(t.TempDir(), "does-not-exist.pdf")},
	}.build("sender@example.com")

	require.ErrorIs(t, err, ErrValidation)
}

func TestWrapBase64_LineLength(t *testing.T) {
	t.Parallel()

	wrapped := string(wrapBase64(make([]byte, 500)))

	for _, line := range strings.Split(wrapped, "\r\n") {
		require.LessOrEqual(t, len(line), 76)
	}
	// Round-trips after unwrapping.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(wrapped, "\r\n", ""))
	require.NoError(t, err)
	require.Equal(t, make([]byte, 500), decoded)
}
