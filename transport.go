package smtpkit

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"time"
)

// Transport abstracts the SMTP session a Mailer owns. The built-in
// implementation is SMTPTransport; alternative implementations are useful
// for testing or for bridging to API-based providers.
//
// Implementations report failures through *Error values so that the
// caller-facing taxonomy stays intact; NewError builds them.
type Transport interface {
	// Connect opens and authenticates the session. Idempotent when
	// already connected.
	Connect(ctx context.Context) error

	// Submit delivers a prepared message to the given envelope
	// recipients. Requires a connected session.
	Submit(ctx context.Context, from string, recipients []string, message []byte) error

	// Close terminates the session. Safe to call when not connected.
	Close() error
}

// TransportConfig configures the built-in SMTP transport.
type TransportConfig struct {
	TLSConfig *tls.Config
	Host      string
	Username  string
	Password  string
	Timeout   time.Duration
	Port      int
	StartTLS  bool
}

// SMTPTransport is a blocking net/smtp session with STARTTLS and
// AUTH PLAIN. It owns at most one connection and is not safe for
// concurrent use.
type SMTPTransport struct {
	client *smtp.Client
	config TransportConfig
}

// NewSMTPTransport creates a transport. No network activity happens
// until Connect.
func NewSMTPTransport(cfg TransportConfig) *SMTPTransport {
	return &SMTPTransport{config: cfg}
}

// Connect dials the server, negotiates STARTTLS when configured, and
// authenticates. A second call on a live session is a no-op.
func (t *SMTPTransport) Connect(ctx context.Context) error {
	if t.client != nil {
		return nil
	}
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	type dialResult struct {
		client *smtp.Client
		err    error
	}
	resCh := make(chan dialResult, 1)
	go func() {
		client, err := t.openSession(ctx)
		resCh <- dialResult{client: client, err: err}
	}()

	select {
	case <-ctx.Done():
		// The dial may still complete in the background; close the
		// abandoned session instead of leaking it.
		go func() {
			if res := <-resCh; res.client != nil {
				_ = res.client.Close()
			}
		}()
		return newConnectError("smtp operation aborted", ctx.Err())
	case res := <-resCh:
		if res.err != nil {
			return res.err
		}
		t.client = res.client
		return nil
	}
}

// openSession dials, negotiates and authenticates a fresh SMTP client.
func (t *SMTPTransport) openSession(ctx context.Context) (*smtp.Client, error) {
	client, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
	if err := client.Auth(auth); err != nil {
		_ = client.Close()
		if isServerRejection(err) {
			return nil, newAuthError("authentication rejected, check your app password", err)
		}
		return nil, newConnectError("authentication exchange failed", err)
	}
	return client, nil
}

func (t *SMTPTransport) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(t.config.Host, fmt.Sprint(t.config.Port))
	dialer := &net.Dialer{Timeout: t.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, newConnectError(fmt.Sprintf("could not connect to %s", addr), err)
	}
	client, err := smtp.NewClient(conn, t.config.Host)
	if err != nil {
		_ = conn.Close()
		return nil, newConnectError("smtp handshake failed", err)
	}
	if t.config.StartTLS {
		tlsCfg := t.config.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{ServerName: t.config.Host, MinVersion: tls.VersionTLS12}
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			_ = client.Close()
			return nil, newConnectError("starttls negotiation failed", err)
		}
	}
	return client, nil
}

// Submit runs the MAIL/RCPT/DATA sequence for one message.
func (t *SMTPTransport) Submit(ctx context.Context, from string, recipients []string, message []byte) error {
	if t.client == nil {
		return newConnectError("not connected, call Connect first", nil)
	}
	return t.run(ctx, func() error {
		// A failed transaction stays open on the server until RSET;
		// clear it so the session is usable for the next message.
		fail := func(err error) error {
			_ = t.client.Reset()
			return err
		}
		if err := t.client.Mail(from); err != nil {
			return fail(newSendError(fmt.Sprintf("sender %s rejected", from), err))
		}
		for _, rcpt := range recipients {
			if err := t.client.Rcpt(rcpt); err != nil {
				return fail(newSendError(fmt.Sprintf("recipient %s rejected", rcpt), err))
			}
		}
		w, err := t.client.Data()
		if err != nil {
			return fail(newSendError("data command rejected", err))
		}
		if _, err := w.Write(message); err != nil {
			_ = w.Close()
			return fail(newSendError("failed to write message body", err))
		}
		if err := w.Close(); err != nil {
			return fail(newSendError("message rejected by server", err))
		}
		return nil
	})
}

// Close sends QUIT and drops the connection. Subsequent calls are no-ops,
// and the transport can Connect again afterwards.
func (t *SMTPTransport) Close() error {
	if t.client == nil {
		return nil
	}
	client := t.client
	t.client = nil
	if err := client.Quit(); err != nil {
		_ = client.Close()
		return newConnectError("failed to close session cleanly", err)
	}
	return nil
}

// run executes op while honoring ctx and the configured timeout. net/smtp
// has no context support, so op runs on its own goroutine and the result
// is collected through a channel.
func (t *SMTPTransport) run(ctx context.Context, op func() error) error {
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}
	errCh := make(chan error, 1)
	go func() { errCh <- op() }()
	select {
	case <-ctx.Done():
		return newConnectError("smtp operation aborted", ctx.Err())
	case err := <-errCh:
		return err
	}
}

// isServerRejection reports whether err carries an SMTP status reply, as
// opposed to a transport-level failure.
func isServerRejection(err error) bool {
	var proto *textproto.Error
	return errors.As(err, &proto)
}
