package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rohmanhakim/result-finder/pkg/failure"
	"github.com/rohmanhakim/result-finder/pkg/retry"
	"github.com/rohmanhakim/result-finder/pkg/timeutil"
)

func fastParam(maxAttempts int) retry.RetryParam {
	return retry.NewRetryParam(
		0,
		42,
		maxAttempts,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond),
	)
}

// mockError is a mock implementation of failure.ClassifiedError for testing
type mockError struct {
	msg       string
	retryable bool
}

func (m *mockError) Error() string {
	return m.msg
}

func (m *mockError) Severity() failure.Severity {
	if m.retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// severityOnly carries no IsRetryable method.
type severityOnly struct {
	severity failure.Severity
}

func (s *severityOnly) Error() string {
	return "severity only"
}

func (s *severityOnly) Severity() failure.Severity {
	return s.severity
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), fastParam(3), func(ctx context.Context) (string, failure.ClassifiedError) {
		calls++
		return "page", nil
	})

	if result.IsFailure() {
		t.Fatalf("expected no error, got: %v", result.Err())
	}
	if result.Value() != "page" {
		t.Fatalf("expected 'page', got: %s", result.Value())
	}
	if result.Attempts() != 1 || calls != 1 {
		t.Fatalf("expected 1 attempt, got: %d (calls %d)", result.Attempts(), calls)
	}
}

func TestRetry_SucceedsAfterRecoverableErrors(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), fastParam(5), func(ctx context.Context) (int, failure.ClassifiedError) {
		calls++
		if calls < 3 {
			return 0, &mockError{msg: "503", retryable: true}
		}
		return 200, nil
	})

	if result.IsFailure() {
		t.Fatalf("expected no error, got: %v", result.Err())
	}
	if result.Value() != 200 {
		t.Fatalf("expected 200, got: %d", result.Value())
	}
	if result.Attempts() != 3 {
		t.Fatalf("expected 3 attempts, got: %d", result.Attempts())
	}
}

func TestRetry_FatalErrorStopsImmediately(t *testing.T) {
	calls := 0
	fatal := &mockError{msg: "404", retryable: false}
	result := retry.Retry(context.Background(), fastParam(5), func(ctx context.Context) (int, failure.ClassifiedError) {
		calls++
		return 0, fatal
	})

	if !result.IsFailure() {
		t.Fatal("expected failure")
	}
	if result.Err() != fatal {
		t.Fatalf("expected the fatal error back, got: %v", result.Err())
	}
	if calls != 1 || result.Attempts() != 1 {
		t.Fatalf("expected 1 attempt, got: %d (calls %d)", result.Attempts(), calls)
	}
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), fastParam(4), func(ctx context.Context) (int, failure.ClassifiedError) {
		calls++
		return 7, &severityOnly{severity: failure.SeverityRecoverable}
	})

	if calls != 4 || result.Attempts() != 4 {
		t.Fatalf("expected 4 attempts, got: %d (calls %d)", result.Attempts(), calls)
	}
	if result.Value() != 0 {
		t.Fatalf("expected zero result, got: %d", result.Value())
	}

	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) {
		t.Fatalf("expected RetryError, got: %T", result.Err())
	}
	if retryErr.Cause != retry.ErrExhaustedAttempts {
		t.Fatalf("expected cause %q, got: %q", retry.ErrExhaustedAttempts, retryErr.Cause)
	}
	if result.Err().Severity() != failure.SeverityRecoverable {
		t.Fatalf("expected error severity to be 'recoverable', got: '%s'", result.Err().Severity())
	}
}

func TestRetry_SeverityDecidesWithoutIsRetryable(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), fastParam(3), func(ctx context.Context) (int, failure.ClassifiedError) {
		calls++
		return 0, &severityOnly{severity: failure.SeverityFatal}
	})

	if !result.IsFailure() || calls != 1 {
		t.Fatalf("expected a single failed attempt, got: %d calls", calls)
	}
}

func TestRetry_ZeroAttempts(t *testing.T) {
	calls := 0
	result := retry.Retry(context.Background(), fastParam(0), func(ctx context.Context) (int, failure.ClassifiedError) {
		calls++
		return 1, nil
	})

	if calls != 0 {
		t.Fatalf("expected fn not to be called, got: %d calls", calls)
	}
	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) || retryErr.Cause != retry.ErrZeroAttempt {
		t.Fatalf("expected zero attempt error, got: %v", result.Err())
	}
}

func TestRetry_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	param := retry.NewRetryParam(
		0,
		42,
		5,
		timeutil.NewBackoffParam(time.Minute, 2.0, time.Hour),
	)

	calls := 0
	start := time.Now()
	result := retry.Retry(ctx, param, func(ctx context.Context) (int, failure.ClassifiedError) {
		calls++
		cancel()
		return 0, &mockError{msg: "timeout", retryable: true}
	})

	if time.Since(start) > 5*time.Second {
		t.Fatal("expected Retry to return promptly after cancel")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got: %d", calls)
	}
	var retryErr *retry.RetryError
	if !errors.As(result.Err(), &retryErr) || retryErr.Cause != retry.ErrCancelled {
		t.Fatalf("expected cancelled error, got: %v", result.Err())
	}
	if result.Err().Severity() != failure.SeverityFatal {
		t.Fatalf("expected fatal severity, got: %s", result.Err().Severity())
	}
}

func TestRetry_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "seen")

	result := retry.Retry(ctx, fastParam(1), func(ctx context.Context) (string, failure.ClassifiedError) {
		v, _ := ctx.Value(key{}).(string)
		return v, nil
	})
	if result.Value() != "seen" {
		t.Fatalf("expected context value to reach fn, got: %q", result.Value())
	}
}
