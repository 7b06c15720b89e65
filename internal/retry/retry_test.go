package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("busy")

func busyOnly(err error) bool { return errors.Is(err, errBusy) }

func TestExponential(t *testing.T) {
	b := Exponential(50*time.Millisecond, 0)
	assert.Equal(t, 50*time.Millisecond, b(1))
	assert.Equal(t, 100*time.Millisecond, b(2))
	assert.Equal(t, 200*time.Millisecond, b(3))
	assert.Equal(t, 400*time.Millisecond, b(4))

	capped := Exponential(2*time.Second, 10*time.Second)
	assert.Equal(t, 8*time.Second, capped(3))
	assert.Equal(t, 10*time.Second, capped(4))
	assert.Equal(t, 10*time.Second, capped(12))
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retries []int

	err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		Backoff:     Exponential(time.Millisecond, 0),
		Retryable:   busyOnly,
		OnRetry:     func(attempt int, _ time.Duration, _ error) { retries = append(retries, attempt) },
	}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		Backoff:     Exponential(time.Millisecond, 0),
		Retryable:   busyOnly,
	}, func(context.Context) error {
		calls++
		return errBusy
	})

	require.Error(t, err)
	assert.Equal(t, 5, calls)
	assert.True(t, IsExhausted(err))
	assert.ErrorIs(t, err, errBusy)
}

func TestDoReturnsNonRetryableImmediately(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{
		MaxAttempts: 5,
		Retryable:   busyOnly,
	}, func(context.Context) error {
		calls++
		return boom
	})

	assert.Equal(t, 1, calls)
	assert.Same(t, boom, err)
	assert.False(t, IsExhausted(err))
}

func TestDoStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := Do(ctx, Policy{
		Backoff: func(int) time.Duration { return time.Hour },
		OnRetry: func(int, time.Duration, error) { cancel() },
	}, func(context.Context) error {
		calls++
		return errBusy
	})

	assert.Equal(t, 1, calls)
	assert.True(t, IsExhausted(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errBusy)
}

func TestDoValueReturnsResult(t *testing.T) {
	v, err := DoValue(context.Background(), Policy{MaxAttempts: 2}, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
