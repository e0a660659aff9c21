package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{
		MaxAttempts: 5,
		Backoff:     ConstantBackoff(time.Millisecond),
	}, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), RetryConfig{
		MaxAttempts: 3,
		Backoff:     ConstantBackoff(time.Millisecond),
	}, func() error {
		calls++
		return errTransient
	})
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("access denied")
	calls := 0
	err := Do(context.Background(), RetryConfig{
		MaxAttempts: 5,
		Backoff:     ConstantBackoff(time.Millisecond),
		ShouldRetry: func(err error) bool { return !errors.Is(err, permanent) },
	}, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, RetryConfig{
		MaxAttempts: 10,
		Backoff:     ConstantBackoff(time.Hour),
	}, func() error {
		calls++
		cancel()
		return errTransient
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, 1, calls)

	assert.ErrorIs(t, Do(ctx, RetryConfig{}, func() error { return nil }), context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	n, err := DoWithResult(context.Background(), RetryConfig{}, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestExponentialBackoffGrows(t *testing.T) {
	b := ExponentialBackoff(10 * time.Millisecond)
	for attempt := 1; attempt <= 4; attempt++ {
		base := (1 << attempt) * 10 * time.Millisecond
		d := b(attempt)
		assert.Greater(t, d, base)
		assert.LessOrEqual(t, d, base+base/2)
	}
}
