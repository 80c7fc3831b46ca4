package smtpkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := newValidationError("recipient address is required")
	require.Equal(t, "[400] recipient address is required", err.Error())

	cause := errors.New("connection reset by peer")
	werr := newConnectError("could not connect to smtp.gmail.com:587", cause)
	require.Equal(t, "[500] could not connect to smtp.gmail.com:587: connection reset by peer", werr.Error())
}

func TestError_KindSentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		sentinel error
		kind     Kind
		code     int
	}{
		{newValidationError("bad input"), ErrValidation, KindValidation, 400},
		{newAuthError("rejected", nil), ErrAuth, KindAuth, 535},
		{newConnectError("unreachable", nil), ErrConnect, KindConnect, 500},
		{newSendError("refused", nil), ErrSend, KindSend, 500},
	}

	for _, tt := range tests {
		require.ErrorIs(t, tt.err, tt.sentinel)

		var mailerErr *Error
		require.ErrorAs(t, tt.err, &mailerErr)
		require.Equal(t, tt.kind, mailerErr.Kind)
		require.Equal(t, tt.code, mailerErr.Code)
	}
}

func TestError_KindsAreDisjoint(t *testing.T) {
	t.Parallel()

	err := newAuthError("rejected", nil)

	require.ErrorIs(t, err, ErrAuth)
	require.NotErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrConnect)
	require.NotErrorIs(t, err, ErrSend)
}

func TestError_UnwrapCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: i/o timeout")
	err := newConnectError("could not connect", cause)

	require.ErrorIs(t, err, cause)
}

func TestNewError(t *testing.T) {
	t.Parallel()

	cause := errors.New("tls handshake failed")
	err := NewError(KindConnect, 500, "starttls negotiation failed", cause)

	require.ErrorIs(t, err, ErrConnect)
	require.ErrorIs(t, err, cause)
	require.True(t, IsRetryable(err))
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	require.True(t, IsRetryable(newConnectError("unreachable", nil)))
	require.True(t, IsRetryable(newSendError("refused", nil)))
	require.False(t, IsRetryable(newValidationError("bad input")))
	require.False(t, IsRetryable(newAuthError("rejected", nil)))
	require.False(t, IsRetryable(errors.New("some unrelated error")))
	require.False(t, IsRetryable(nil))
}
