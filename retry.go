package smtpkit

import (
	"context"
	"log/slog"
	"time"
)

// RetryOptions tunes SendWithRetry. The zero value means defaults:
// 3 retries with a 1 second base backoff.
type RetryOptions struct {
	// MaxRetries is the number of additional attempts after the first
	// one, so the total attempt count is MaxRetries+1.
	MaxRetries int

	// Backoff is the base delay. The wait before retry i (0-based) is
	// Backoff * 2^i: 1s, 2s, 4s with the defaults.
	Backoff time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	return o
}

// backoffDelay returns the wait before the given 0-based retry.
func (o RetryOptions) backoffDelay(retry int) time.Duration {
	return o.Backoff * (1 << retry)
}

// SendWithRetry sends msg, retrying transient failures with exponential
// backoff. Connect and send errors are retried; validation and auth errors
// propagate immediately since another attempt cannot change the outcome.
// After the final attempt fails, the last transient error is returned.
// The backoff sleeps respect ctx cancellation.
func (m *Mailer) SendWithRetry(ctx context.Context, msg Message, opts RetryOptions) error {
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		err := m.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		if attempt == opts.MaxRetries {
			break
		}

		delay := opts.backoffDelay(attempt)
		m.logger.WarnContext(ctx, "send attempt failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", opts.MaxRetries+1),
			slog.Duration("backoff", delay),
			slog.Any("error", err))
		if err := m.sleep(ctx, delay); err != nil {
			return newConnectError("retry aborted", err)
		}
	}
	return lastErr
}
