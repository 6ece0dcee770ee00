package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestDo_Success(t *testing.T) {
	t.Parallel()

	attempts, err := Do(context.Background(), func(int) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	t.Parallel()
	var seen []int

	attempts, err := Do(context.Background(), func(attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errors.New("conflict")
		}
		return nil
	}, WithInitialDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDo_Exhausted(t *testing.T) {
	t.Parallel()
	persistent := errors.New("persistent error")

	attempts, err := Do(context.Background(), func(int) error {
		return persistent
	}, WithMaxRetries(3), WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, persistent)
	// MaxRetries counts retries after the first attempt.
	assert.Equal(t, 4, attempts)
	assert.Contains(t, err.Error(), "after 4 attempts")
}

func TestDo_RetryBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		maxRetries int
		want       int
	}{
		{name: "zero", maxRetries: 0, want: 1},
		{name: "negative clamped", maxRetries: -3, want: 1},
		{name: "one", maxRetries: 1, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			attempts, err := Do(context.Background(), func(int) error {
				return errors.New("boom")
			}, WithMaxRetries(tt.maxRetries), WithInitialDelay(time.Millisecond))

			require.Error(t, err)
			assert.Equal(t, tt.want, attempts)
		})
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()
	lastErr := errors.New("still conflicting")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := Do(ctx, func(int) error {
		return lastErr
	}, WithInitialDelay(10*time.Millisecond))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 1, attempts)
}

func TestDo_DeadlineDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Do(ctx, func(int) error {
		return errors.New("throttled")
	}, WithInitialDelay(time.Second), WithMaxRetries(10))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_FatalError(t *testing.T) {
	t.Parallel()

	attempts, err := Do(context.Background(), func(int) error {
		return Fatal(errors.New("invalid object"))
	}, WithInitialDelay(time.Millisecond))

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Contains(t, err.Error(), "not retrying")
	assert.Equal(t, 1, attempts)
}

func TestDo_OnRetry(t *testing.T) {
	t.Parallel()
	var seen []int

	_, _ = Do(context.Background(), func(int) error {
		return errors.New("transient")
	},
		WithMaxRetries(2),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error) {
			seen = append(seen, attempt)
		}))

	// The hook fires between attempts, never after the last one.
	assert.Equal(t, []int{1, 2}, seen)
}

func TestDo_SleepsOnClock(t *testing.T) {
	t.Parallel()
	fc := clocktesting.NewFakeClock(time.Now())

	done := make(chan int, 1)
	go func() {
		attempts, _ := Do(context.Background(), func(attempt int) error {
			if attempt < 2 {
				return errors.New("conflict")
			}
			return nil
		}, WithClock(fc), WithInitialDelay(time.Hour))
		done <- attempts
	}()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	fc.Step(time.Hour)

	select {
	case attempts := <-done:
		assert.Equal(t, 2, attempts)
	case <-time.After(time.Second):
		t.Fatal("retry did not resume after the clock advanced")
	}
}

func TestPolicy_Delay(t *testing.T) {
	t.Parallel()

	p := NewPolicy(
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2),
		WithMaxDelay(time.Second),
	)

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{12, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.retry), "retry %d", tt.retry)
	}
}

func TestNewPolicy_Defaults(t *testing.T) {
	t.Parallel()

	p := NewPolicy()
	assert.Equal(t, DefaultMaxRetries, p.MaxRetries)
	assert.Equal(t, DefaultInitialDelay, p.InitialDelay)
	assert.Equal(t, DefaultMaxDelay, p.MaxDelay)
	assert.InDelta(t, DefaultMultiplier, p.Multiplier, 0)
}

func TestFatal(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Fatal(nil))

	original := errors.New("test error")
	err := Fatal(original)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, original.Error(), err.Error())
	assert.ErrorIs(t, err, original)
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("regular"), want: false},
		{name: "fatal", err: Fatal(errors.New("x")), want: true},
		{name: "joined fatal", err: errors.Join(Fatal(errors.New("x")), errors.New("y")), want: true},
		{name: "wrapped fatal", err: fmt.Errorf("context: %w", Fatal(errors.New("x"))), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}
