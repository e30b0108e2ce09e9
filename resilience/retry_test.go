package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errDial = errors.New("dial tcp: connection refused")

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), Policy{Attempts: 3}, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" || calls != 1 {
		t.Errorf("got %q, %v after %d calls", got, err, calls)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	var waits []time.Duration
	p := Policy{
		Attempts: 3,
		Backoff:  time.Millisecond,
		OnRetry:  func(_ int, _ error, wait time.Duration) { waits = append(waits, wait) },
	}
	got, err := Retry(context.Background(), p, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errDial
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("got %d, %v", got, err)
	}
	if len(waits) != 2 || waits[0] != time.Millisecond || waits[1] != 2*time.Millisecond {
		t.Errorf("unexpected waits %v", waits)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), Policy{Attempts: 2, Backoff: time.Millisecond}, func(context.Context) (int, error) {
		calls++
		return 0, errDial
	})
	if !errors.Is(err, errDial) || calls != 2 {
		t.Errorf("expected last error after 2 calls, got %v after %d", err, calls)
	}
}

func TestRetryDefaultsToSingleAttempt(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), Policy{}, func(context.Context) (int, error) {
		calls++
		return 0, errDial
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryIfStopsEarly(t *testing.T) {
	permanent := errors.New("bad credentials")
	calls := 0
	_, err := Retry(context.Background(), Policy{
		Attempts: 5,
		Backoff:  time.Millisecond,
		RetryIf:  func(err error) bool { return !errors.Is(err, permanent) },
	}, func(context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("expected no retry, got %v after %d calls", err, calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, Policy{Attempts: 5, Backoff: time.Hour}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errDial
	})
	if !errors.Is(err, errDial) || calls != 1 {
		t.Errorf("expected the dial error after one call, got %v after %d", err, calls)
	}
}

func TestDelayIsCapped(t *testing.T) {
	p := Policy{Backoff: time.Second, MaxBackoff: 3 * time.Second}.withDefaults()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{10, 3 * time.Second},
	}
	for _, tc := range tests {
		if got := p.delay(tc.attempt); got != tc.want {
			t.Errorf("delay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestTransient(t *testing.T) {
	if Transient(context.Canceled) || Transient(context.DeadlineExceeded) {
		t.Error("context errors are not transient")
	}
	if !Transient(errDial) {
		t.Error("dial errors are transient")
	}
}
