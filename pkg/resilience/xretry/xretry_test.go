package xretry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 退避策略
// =============================================================================

func TestFixedBackoff(t *testing.T) {
	assert.Equal(t, time.Second, NewFixedBackoff(time.Second).NextDelay(10))
	assert.Equal(t, time.Duration(0), NewFixedBackoff(-time.Second).NextDelay(1))
}

func TestExponentialBackoff_NoJitter(t *testing.T) {
	b := NewExponentialBackoff(
		WithInitialDelay(time.Second),
		WithMaxDelay(30*time.Second),
		WithMultiplier(2),
		WithJitter(0),
	)
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, b.NextDelay(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, time.Second, b.NextDelay(0), "attempt < 1 视为 1")
	assert.Equal(t, 30*time.Second, b.NextDelay(math.MaxInt32), "溢出时返回上限")
}

func TestExponentialBackoff_JitterBounds(t *testing.T) {
	b := NewExponentialBackoff(WithInitialDelay(time.Second), WithJitter(0.1))
	for range 100 {
		d := b.NextDelay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestExponentialBackoff_OptionGuards(t *testing.T) {
	b := NewExponentialBackoff(
		WithInitialDelay(-1),
		WithMaxDelay(0),
		WithMultiplier(0.5),
		WithJitter(5),
		nil,
	)
	assert.Equal(t, 100*time.Millisecond, b.initialDelay)
	assert.Equal(t, 30*time.Second, b.maxDelay)
	assert.InDelta(t, 2.0, b.multiplier, 0)
	assert.InDelta(t, 1.0, b.jitter, 0)

	b = NewExponentialBackoff(WithInitialDelay(time.Minute), WithMaxDelay(time.Second))
	assert.Equal(t, time.Minute, b.maxDelay, "maxDelay 不小于 initialDelay")
}

// =============================================================================
// Retryer
// =============================================================================

func fastRetryer(attempts int, onRetry func(int, error)) *Retryer {
	return NewRetryer(
		WithRetryPolicy(NewFixedRetry(attempts)),
		WithBackoffPolicy(NewFixedBackoff(time.Millisecond)),
		WithOnRetry(onRetry),
	)
}

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	var retries []int
	r := fastRetryer(3, func(attempt int, _ error) { retries = append(retries, attempt) })

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryer_ExhaustedReturnsLastError(t *testing.T) {
	r := fastRetryer(2, nil)
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("still down")
	})
	require.Error(t, err)
	assert.Equal(t, "still down", err.Error())
	assert.Equal(t, 2, calls)
}

func TestRetryer_PermanentStops(t *testing.T) {
	r := fastRetryer(5, nil)
	base := errors.New("bad request")
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return NewPermanentError(base)
	})
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}

func TestRetryer_NilGuards(t *testing.T) {
	var r *Retryer
	assert.ErrorIs(t, r.Do(context.Background(), func(context.Context) error { return nil }), ErrNilRetryer)

	r = NewRetryer()
	//nolint:staticcheck // 验证 nil context
	assert.ErrorIs(t, r.Do(nil, func(context.Context) error { return nil }), ErrNilContext)
	assert.ErrorIs(t, r.Do(context.Background(), nil), ErrNilFunc)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("x")))
	assert.False(t, IsRetryable(NewPermanentError(errors.New("x"))))
	assert.Equal(t, "permanent error", NewPermanentError(nil).Error())
	assert.False(t, NewFixedRetry(0).ShouldRetry(context.Background(), 1, errors.New("x")))
}
