package httputil

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	olserrors "github.com/matzehuels/olsclient/pkg/errors"
)

func testRetrier(attempts int) *Retrier {
	return NewRetrier(attempts, time.Millisecond, log.New(io.Discard))
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	cause := errors.New("connection reset")
	err := Retryable(cause)
	if !IsTransient(err) {
		t.Error("IsTransient should return true for wrapped error")
	}
	if err.Error() != cause.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable wrapper", Retryable(errors.New("eof")), true},
		{"server error code", olserrors.New(olserrors.ErrCodeServerError, "boom"), true},
		{"not found", olserrors.New(olserrors.ErrCodeNotFound, "gone"), false},
		{"bad parameter", olserrors.New(olserrors.ErrCodeBadParameter, "bad"), false},
		{"bad filters", olserrors.New(olserrors.ErrCodeBadFilters, "bad"), false},
		{"plain", errors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRetrierDefaults(t *testing.T) {
	r := NewRetrier(0, -1, nil)
	if r.MaxAttempts != DefaultMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", r.MaxAttempts, DefaultMaxAttempts)
	}
	if r.Backoff != DefaultBackoff {
		t.Errorf("Backoff = %v, want %v", r.Backoff, DefaultBackoff)
	}
	if r.logger() == nil {
		t.Error("logger() should fall back to the default logger")
	}
}

func TestRetrier_SucceedsOnFifthAttempt(t *testing.T) {
	calls := 0
	err := testRetrier(5).Do(context.Background(), "fetch page", func() error {
		calls++
		if calls < 5 {
			return Retryable(errors.New("timeout"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	calls := 0
	cause := olserrors.New(olserrors.ErrCodeServerError, "bad gateway").WithStatus(502)
	err := testRetrier(5).Do(context.Background(), "fetch page", func() error {
		calls++
		return cause
	})
	if calls != 5 {
		t.Errorf("calls = %d, want 5", calls)
	}
	if !olserrors.Is(err, olserrors.ErrCodeObjectNotRetrieved) {
		t.Fatalf("Do() error = %v, want OBJECT_NOT_RETRIEVED", err)
	}
	if !errors.Is(err, cause) {
		t.Error("exhaustion error should wrap the last cause")
	}
}

func TestRetrier_TerminalErrorsAreNotRetried(t *testing.T) {
	codes := []olserrors.Code{
		olserrors.ErrCodeNotFound,
		olserrors.ErrCodeBadParameter,
		olserrors.ErrCodeBadFilters,
	}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			calls := 0
			err := testRetrier(5).Do(context.Background(), "detail", func() error {
				calls++
				return olserrors.New(code, "terminal")
			})
			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
			if !olserrors.Is(err, code) {
				t.Errorf("Do() error = %v, want %s", err, code)
			}
		})
	}
}

func TestRetrier_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(5, time.Hour, log.New(io.Discard))
	err := r.Do(ctx, "fetch page", func() error {
		return Retryable(errors.New("timeout"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if !olserrors.Is(err, olserrors.ErrCodeOLS) {
		t.Errorf("Do() error = %v, want OLS_ERROR", err)
	}
}
