package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"
)

// Defaults of a Policy built without options.
const (
	DefaultMaxRetries   = 5
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
)

// Policy describes how often and how far apart an operation is retried.
type Policy struct {
	// MaxRetries counts retries after the first attempt.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// OnRetry is called with the number of the failed attempt before the
	// backoff sleep.
	OnRetry func(attempt int, err error)

	clock clock.Clock
}

// Option configures a Policy.
type Option func(*Policy)

// NewPolicy returns the default policy with opts applied.
func NewPolicy(opts ...Option) Policy {
	p := Policy{
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		clock:        clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Delay returns the sleep before the given retry, counted from 1.
func (p Policy) Delay(retry int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < retry; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(d, p.MaxDelay)
}

// Do runs op until it succeeds or the policy gives up, and returns the
// number of attempts made. op receives the attempt number, counted from 1.
func Do(ctx context.Context, op func(attempt int) error, opts ...Option) (int, error) {
	p := NewPolicy(opts...)

	var lastErr error
	for attempt := 1; ; attempt++ {
		err := op(attempt)
		if err == nil {
			return attempt, nil
		}
		lastErr = err

		if IsFatal(err) {
			return attempt, fmt.Errorf("fatal error (not retrying): %w", err)
		}
		if attempt > p.MaxRetries {
			return attempt, fmt.Errorf("operation failed after %d attempts: %w", attempt, lastErr)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		timer := p.clock.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("context cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
		case <-timer.C():
		}
	}
}

// WithMaxRetries sets the number of retries after the first attempt.
// Negative values disable retries.
func WithMaxRetries(n int) Option {
	return func(p *Policy) {
		p.MaxRetries = max(n, 0)
	}
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.InitialDelay = d
	}
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier.
func WithMultiplier(m float64) Option {
	return func(p *Policy) {
		p.Multiplier = m
	}
}

// WithOnRetry registers a hook invoked before each backoff sleep.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Policy) {
		p.OnRetry = fn
	}
}

// WithClock replaces the clock that times the backoff sleeps.
func WithClock(c clock.Clock) Option {
	return func(p *Policy) {
		p.clock = c
	}
}

// FatalError marks an error that must not be retried.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err so that Do returns it without retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err was wrapped with Fatal.
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
