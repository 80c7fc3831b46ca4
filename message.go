package smtpkit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a single outgoing email. It is a transient value: built per
// send call and never persisted.
type Message struct {
	// To is the primary recipient address. Required.
	To string

	// Subject is the subject line.
	Subject string

	// Body is the message body, plain text unless HTML is set.
	Body string

	// Cc and Bcc are optional additional recipients, included in the
	// delivery envelope and in the message headers.
	Cc  []string
	Bcc []string

	// Attachments are file paths read at build time. An unreadable path
	// fails the send with a validation error.
	Attachments []string

	// HTML marks the body as text/html instead of text/plain.
	HTML bool
}

// SendFailure records one failed recipient within a bulk send.
type SendFailure struct {
	Err       error
	Recipient string
}

// BulkResult summarizes a SendBulk call. Sent+Failed always equals Total,
// and Failures preserves input order.
type BulkResult struct {
	Failures []SendFailure
	Sent     int
	Failed   int
	Total    int
}

// validate checks the primary recipient syntactically. Address validation
// is deliberately shallow: the SMTP server is the authority on
// deliverability, this only rejects values that cannot be addresses.
func (m Message) validate() error {
	if m.To == "" {
		return newValidationError("recipient address is required")
	}
	if !strings.Contains(m.To, "@") || strings.ContainsAny(m.To, "\r\n") {
		return newValidationError("invalid recipient address %q", m.To)
	}
	return nil
}

// envelope returns the full delivery recipient list: To plus Cc plus Bcc.
func (m Message) envelope() []string {
	rcpts := make([]string, 0, 1+len(m.Cc)+len(m.Bcc))
	rcpts = append(rcpts, m.To)
	rcpts = append(rcpts, m.Cc...)
	rcpts = append(rcpts, m.Bcc...)
	return rcpts
}

// build assembles the raw RFC 2822 message bytes.
func (m Message) build(from string) ([]byte, error) {
	var buf bytes.Buffer

	writeHeader(&buf, "From", from)
	writeHeader(&buf, "To", m.To)
	if len(m.Cc) > 0 {
		writeHeader(&buf, "Cc", strings.Join(m.Cc, ", "))
	}
	if len(m.Bcc) > 0 {
		writeHeader(&buf, "Bcc", strings.Join(m.Bcc, ", "))
	}
	writeHeader(&buf, "Subject", sanitizeHeader(m.Subject))
	writeHeader(&buf, "Date", time.Now().UTC().Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", messageID(from))
	writeHeader(&buf, "MIME-Version", "1.0")

	if len(m.Attachments) == 0 {
		writeHeader(&buf, "Content-Type", m.contentType())
		buf.WriteString("\r\n")
		buf.WriteString(m.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/mixed; boundary=%q", mw.Boundary()))
	buf.WriteString("\r\n")

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", m.contentType())
	part, err := mw.CreatePart(bodyHeader)
	if err != nil {
		return nil, newSendError("failed to build message body", err)
	}
	if _, err := part.Write([]byte(m.Body)); err != nil {
		return nil, newSendError("failed to build message body", err)
	}

	for _, path := range m.Attachments {
		if err := attachFile(mw, path); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, newSendError("failed to finalize message", err)
	}
	return buf.Bytes(), nil
}

func (m Message) contentType() string {
	if m.HTML {
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// attachFile reads path and appends it as a base64-encoded
// application/octet-stream part.
func attachFile(mw *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newValidationError("unreadable attachment %q: %v", path, err)
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))

	part, err := mw.CreatePart(h)
	if err != nil {
		return newSendError("failed to build attachment part", err)
	}
	if _, err := part.Write(wrapBase64(data)); err != nil {
		return newSendError("failed to write attachment", err)
	}
	return nil
}

// wrapBase64 encodes data with 76-character lines per RFC 2045.
func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	return out.Bytes()
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	fmt.Fprintf(buf, "%s: %s\r\n", key, value)
}

// sanitizeHeader strips CR/LF to prevent header injection through
// caller-supplied values.
func sanitizeHeader(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.ReplaceAll(v, "\n", " ")
}

// messageID generates a unique Message-ID using the sender's domain.
func messageID(from string) string {
	domain := "localhost"
	if i := strings.LastIndex(from, "@"); i >= 0 && i+1 < len(from) {
		domain = from[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
