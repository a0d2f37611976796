package httputil

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
	"github.com/matzehuels/olsclient/pkg/observability"
)

// Defaults for [Retrier].
const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 5 * time.Second
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses, truncated or
// malformed bodies) with this type so that [Retrier.Do] attempts the
// operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsTransient reports whether err should be retried: it is wrapped in a
// [RetryableError] or carries the SERVER_ERROR code.
func IsTransient(err error) bool {
	if errors.As(err, new(*RetryableError)) {
		return true
	}
	return olserrors.Is(err, olserrors.ErrCodeServerError)
}

// Retrier runs remote operations with bounded, fixed-interval retry.
//
// Transient failures (see [IsTransient]) are logged as warnings and retried
// after Backoff until MaxAttempts calls have been made; the last failure is
// then returned wrapped in an OBJECT_NOT_RETRIEVED error. Every other error,
// including NOT_FOUND, BAD_PARAMETER and BAD_FILTERS, is returned
// immediately without consuming an attempt.
//
// A Retrier holds no mutable state and is safe for concurrent use.
type Retrier struct {
	MaxAttempts int
	Backoff     time.Duration
	Logger      *log.Logger
}

// NewRetrier creates a Retrier. Non-positive values fall back to
// [DefaultMaxAttempts] and [DefaultBackoff]; a nil logger uses log.Default().
func NewRetrier(maxAttempts int, backoff time.Duration, logger *log.Logger) *Retrier {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if backoff < 0 {
		backoff = DefaultBackoff
	}
	return &Retrier{MaxAttempts: maxAttempts, Backoff: backoff, Logger: logger}
}

// Do executes fn, retrying transient failures. The op string names the call
// in log lines and in the exhaustion error. Cancelling ctx aborts the wait
// between attempts with an OLS_ERROR wrapping ctx.Err().
func (r *Retrier) Do(ctx context.Context, op string, fn func() error) error {
	attempts := max(r.MaxAttempts, 1)
	logger := r.logger()
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Debug("calling client", "op", op, "attempt", attempt, "max", attempts)
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			logger.Debug("call failed", "op", op, "err", err)
			return err
		}

		lastErr = err
		observability.Collection().OnRetry(ctx, op, attempt, err)
		if attempt == attempts {
			break
		}

		logger.Warn("call retry", "op", op, "attempt", attempt, "max", attempts, "err", err)
		select {
		case <-ctx.Done():
			return olserrors.Wrap(olserrors.ErrCodeOLS, ctx.Err(), "%s: cancelled after %d attempts", op, attempt)
		case <-time.After(r.Backoff):
		}
	}

	logger.Error("API unrecoverable error", "op", op, "attempts", attempts)
	return olserrors.Wrap(olserrors.ErrCodeObjectNotRetrieved, lastErr,
		"%s: not retrieved after %d attempts", op, attempts)
}

func (r *Retrier) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
