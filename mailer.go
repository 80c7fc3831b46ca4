package smtpkit

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Mailer owns a single SMTP session and exposes send operations on top of
// it. A Mailer is not safe for concurrent use: callers wanting parallel
// delivery run one Mailer per goroutine, each with its own session.
//
// Lifecycle: New (no network activity) -> Connect -> sends -> Close.
// Connect after Close is valid; there is exactly one session at a time.
type Mailer struct {
	transport Transport
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	tlsConfig *tls.Config
	config    Config
	smtp      providerConfig
	connected bool
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger sets the diagnostic sink. By default the Mailer emits
// nothing: it logs to a discard handler.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTransport replaces the built-in SMTP transport. Mainly for tests
// and custom delivery backends.
func WithTransport(t Transport) Option {
	return func(m *Mailer) {
		if t != nil {
			m.transport = t
		}
	}
}

// WithTLSConfig overrides the TLS configuration used for STARTTLS.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(m *Mailer) { m.tlsConfig = cfg }
}

// WithTimeout bounds connection establishment and each SMTP exchange.
// Defaults to 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(m *Mailer) {
		if d > 0 {
			m.config.Timeout = d
		}
	}
}

// New creates a Mailer from cfg, falling back to MAILER_EMAIL,
// MAILER_PASSWORD and MAILER_PROVIDER for fields the caller left unset.
// It fails with a validation error when credentials cannot be resolved or
// the provider is unknown; it never touches the network.
func New(cfg Config, opts ...Option) (*Mailer, error) {
	resolved, err := cfg.withEnvFallback()
	if err != nil {
		return nil, err
	}
	if err := resolved.validate(); err != nil {
		return nil, err
	}
	smtpCfg, err := resolveProvider(resolved.Provider)
	if err != nil {
		return nil, err
	}

	m := &Mailer{
		config: resolved,
		smtp:   smtpCfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.transport == nil {
		m.transport = NewSMTPTransport(TransportConfig{
			Host:      m.smtp.Host,
			Port:      m.smtp.Port,
			StartTLS:  m.smtp.StartTLS,
			Username:  m.config.Email,
			Password:  m.config.Password,
			Timeout:   m.config.Timeout,
			TLSConfig: m.tlsConfig,
		})
	}
	return m, nil
}

// Connect opens and authenticates the SMTP session. It is idempotent:
// calling it on a connected Mailer is a no-op.
func (m *Mailer) Connect(ctx context.Context) error {
	if m.connected {
		return nil
	}
	m.logger.DebugContext(ctx, "connecting",
		slog.String("host", m.smtp.Host),
		slog.Int("port", m.smtp.Port))
	if err := m.transport.Connect(ctx); err != nil {
		return classify(err, KindConnect)
	}
	m.connected = true
	m.logger.InfoContext(ctx, "connected and authenticated",
		slog.String("host", m.smtp.Host))
	return nil
}

// Close terminates the session. Safe to call repeatedly; a closed Mailer
// can Connect again. QUIT failures are logged, not returned: the session
// is gone either way.
func (m *Mailer) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	if err := m.transport.Close(); err != nil {
		m.logger.Debug("session close failed", slog.Any("error", err))
	} else {
		m.logger.Debug("disconnected", slog.String("host", m.smtp.Host))
	}
	return nil
}

// Session runs fn within a connected session and always closes it
// afterwards, regardless of how fn exits. It is the scoped form of the
// Connect/Close lifecycle:
//
//	err := m.Session(ctx, func(m *smtpkit.Mailer) error {
//		return m.Send(ctx, smtpkit.Message{To: "a@b.c", Subject: "hi", Body: "hello"})
//	})
func (m *Mailer) Session(ctx context.Context, fn func(*Mailer) error) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return fn(m)
}

// Send validates, builds and submits a single message over the open
// session. It returns a connect error when the session is not connected,
// a validation error on a malformed recipient or unreadable attachment,
// and a send error when the server rejects the submission.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.connected {
		return newConnectError("not connected, call Connect first", nil)
	}
	if err := msg.validate(); err != nil {
		return err
	}
	raw, err := msg.build(m.config.Email)
	if err != nil {
		return err
	}
	rcpts := msg.envelope()
	if err := m.transport.Submit(ctx, m.config.Email, rcpts, raw); err != nil {
		err = classify(err, KindSend)
		m.logger.ErrorContext(ctx, "send failed",
			slog.String("to", msg.To),
			slog.Any("error", err))
		return err
	}
	m.logger.InfoContext(ctx, "email sent",
		slog.String("to", msg.To),
		slog.Int("recipients", len(rcpts)))
	return nil
}

// SendHTML sends body as text/html.
func (m *Mailer) SendHTML(ctx context.Context, to, subject, body string) error {
	return m.Send(ctx, Message{To: to, Subject: subject, Body: body, HTML: true})
}

// SendTemplate renders template against context (see RenderTemplate) and
// sends the result. html defaults the body to text/html in the common
// case of templated markup; pass false for plain text.
func (m *Mailer) SendTemplate(ctx context.Context, to, subject, template string, data map[string]any, html bool) error {
	body := RenderTemplate(template, data)
	return m.Send(ctx, Message{To: to, Subject: subject, Body: body, HTML: html})
}

// SendBulk sends the same message individually to every recipient, in
// input order. Each recipient is an independent send attempt: one failure
// never blocks the rest, and per-recipient errors are collected in the
// result instead of being returned. The only error SendBulk itself
// returns is a validation error for an empty recipient list.
//
// Cc and Bcc are not part of bulk sends; each recipient gets a message
// addressed to them alone.
func (m *Mailer) SendBulk(ctx context.Context, recipients []string, subject, body string, html bool) (BulkResult, error) {
	if len(recipients) == 0 {
		return BulkResult{}, newValidationError("recipient list is empty")
	}

	result := BulkResult{Total: len(recipients)}
	for _, rcpt := range recipients {
		err := m.Send(ctx, Message{To: rcpt, Subject: subject, Body: body, HTML: html})
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, SendFailure{Recipient: rcpt, Err: err})
			m.logger.WarnContext(ctx, "bulk send failed for recipient",
				slog.String("to", rcpt),
				slog.Any("error", err))
			continue
		}
		result.Sent++
	}
	m.logger.InfoContext(ctx, "bulk send complete",
		slog.Int("sent", result.Sent),
		slog.Int("total", result.Total))
	return result, nil
}

// String implements fmt.Stringer with the address masked. Only a prefix of
// the local part is shown; the domain is not revealed either.
func (m *Mailer) String() string {
	masked := "none"
	if m.config.Email != "" {
		local := m.config.Email
		if i := strings.Index(local, "@"); i >= 0 {
			local = local[:i]
		}
		if len(local) > 4 {
			local = local[:4]
		}
		masked = local + "****"
	}
	return fmt.Sprintf("Mailer(email=%s, provider=%s, connected=%t)",
		masked, m.config.Provider, m.connected)
}

// classify tags errors from custom Transport implementations that did not
// go through NewError, so the caller-facing taxonomy stays closed. Errors
// that already carry a kind pass through untouched.
func classify(err error, kind Kind) error {
	var mailerErr *Error
	if errors.As(err, &mailerErr) {
		return err
	}
	return NewError(kind, 500, "smtp operation failed", err)
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
