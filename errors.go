package smtpkit

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class of an Error.
// The four kinds are non-overlapping by cause: validation covers malformed
// input, auth covers credential rejection, connect covers network and
// session-state failures, send covers server-side submission rejection.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindConnect    Kind = "connect"
	KindSend       Kind = "send"
)

// Kind sentinels for errors.Is checks. Every *Error matches exactly one
// of these, so callers can branch on failure class without unwrapping:
//
//	if errors.Is(err, smtpkit.ErrAuth) { ... }
var (
	// ErrValidation matches errors caused by malformed input: bad address
	// syntax, empty recipient list, unreadable attachment path, unsupported
	// provider name, or missing credentials.
	ErrValidation = errors.New("validation failed")

	// ErrAuth matches credential rejection by the SMTP server.
	ErrAuth = errors.New("authentication failed")

	// ErrConnect matches network failures and operations attempted while
	// the session is not connected.
	ErrConnect = errors.New("connection failed")

	// ErrSend matches message submission rejected by the server after a
	// successful connection.
	ErrSend = errors.New("send failed")
)

// Error is the single error type surfaced by this package. It carries a
// machine-readable kind and code alongside a human-readable message, plus
// the underlying cause when there is one.
type Error struct {
	Err     error
	Kind    Kind
	Message string
	Code    int
}

// NewError creates an Error with an explicit kind and code. Custom Transport
// implementations use this to classify their failures; everything else in
// the package goes through the kind-specific constructors.
func NewError(kind Kind, code int, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: cause}
}

func newValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: 400, Message: fmt.Sprintf(format, args...)}
}

func newAuthError(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Code: 535, Message: message, Err: cause}
}

func newConnectError(message string, cause error) *Error {
	return &Error{Kind: KindConnect, Code: 500, Message: message, Err: cause}
}

func newSendError(message string, cause error) *Error {
	return &Error{Kind: KindSend, Code: 500, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap reports the kind sentinel and the underlying cause, so both
// errors.Is(err, ErrConnect) and errors.Is(err, io.EOF)-style checks work.
func (e *Error) Unwrap() []error {
	sentinel := e.sentinel()
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindValidation:
		return ErrValidation
	case KindAuth:
		return ErrAuth
	case KindConnect:
		return ErrConnect
	case KindSend:
		return ErrSend
	}
	return errors.New("unknown error kind")
}

// IsRetryable reports whether err is transient from a delivery point of
// view. Connect and send failures are retryable; validation and auth
// failures are not, since retrying cannot fix malformed input or rejected
// credentials. SendWithRetry uses this classification.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnect) || errors.Is(err, ErrSend)
}
