package cart

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingClearer struct {
	calls    int
	failures int // fail this many calls before succeeding
}

func (c *countingClearer) Clear(ctx context.Context) error {
	c.calls++
	if c.calls <= c.failures {
		return errors.New("transient clear failure")
	}
	return nil
}

func testPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: time.Millisecond}
}

func TestClearWithRetryEventualSuccess(t *testing.T) {
	t.Parallel()

	svc := &countingClearer{failures: 2}
	ok := ClearWithRetry(context.Background(), svc, testPolicy(), nil, nil)

	if !ok {
		t.Fatal("expected success after retries")
	}
	if svc.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", svc.calls)
	}
}

func TestClearWithRetryFirstTrySuccess(t *testing.T) {
	t.Parallel()

	svc := &countingClearer{}
	if ok := ClearWithRetry(context.Background(), svc, testPolicy(), nil, nil); !ok {
		t.Fatal("expected success")
	}
	if svc.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", svc.calls)
	}
}

func TestClearWithRetryExhaustionReturnsFalse(t *testing.T) {
	t.Parallel()

	svc := &countingClearer{failures: 100}
	ok := ClearWithRetry(context.Background(), svc, testPolicy(), nil, nil)

	if ok {
		t.Fatal("expected false after exhausting attempts")
	}
	if svc.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", svc.calls)
	}
}

func TestClearWithRetryBackoffSpacing(t *testing.T) {
	t.Parallel()

	svc := &countingClearer{failures: 2}
	backoff := 50 * time.Millisecond
	start := time.Now()
	ok := ClearWithRetry(context.Background(), svc, RetryPolicy{Attempts: 3, Backoff: backoff}, nil, nil)
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("expected success")
	}
	if elapsed < 2*backoff {
		t.Fatalf("two pauses expected before the third attempt, elapsed %v", elapsed)
	}
}

func TestClearWithRetryZeroPolicyDefaults(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{}.withDefaults()
	if policy.Attempts != 3 {
		t.Fatalf("default attempts = %d, want 3", policy.Attempts)
	}
	if policy.Backoff != time.Second {
		t.Fatalf("default backoff = %v, want 1s", policy.Backoff)
	}
}
