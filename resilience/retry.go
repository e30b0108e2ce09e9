package resilience

import (
	"context"
	"errors"
	"time"
)

// Policy configures Retry. Zero fields take the defaults below.
type Policy struct {
	// Attempts is the total number of calls, including the first. Default 1.
	Attempts int
	// Backoff is the delay after the first failure. Default 100ms.
	Backoff time.Duration
	// MaxBackoff caps the delay. Default 5s.
	MaxBackoff time.Duration
	// Factor multiplies the delay after each failure. Default 2.
	Factor float64
	// RetryIf reports whether err is worth another attempt. Default: anything
	// but context cancellation.
	RetryIf func(err error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.Backoff <= 0 {
		p.Backoff = 100 * time.Millisecond
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = 5 * time.Second
	}
	if p.Factor < 1 {
		p.Factor = 2
	}
	if p.RetryIf == nil {
		p.RetryIf = Transient
	}
	return p
}

// Transient treats every error except context cancellation as retryable.
func Transient(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry calls fn until it succeeds, RetryIf rejects the error, the attempts
// run out or ctx is done. The last error from fn is returned.
func Retry[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= p.Attempts || !p.RetryIf(err) {
			return zero, err
		}

		wait := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// delay is Backoff * Factor^(attempt-1), capped at MaxBackoff.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.Backoff)
	for i := 1; i < attempt; i++ {
		d *= p.Factor
		if d >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	return time.Duration(d)
}
