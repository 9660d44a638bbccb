package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}
	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}
	calls := 0
	target := errors.New("always fails")
	err := Do(context.Background(), cfg, func() error {
		calls++
		return target
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, target))
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}
	calls := 0
	err := Do(context.Background(), cfg, func() error {
		calls++
		return NonRetryable(errors.New("bad input"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsNonRetryable(err))
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 10, InitialDelay: 50 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2.0}
	calls := 0
	err := Do(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestDoRejectsNegativeDelays(t *testing.T) {
	err := Do(context.Background(), Config{InitialDelay: -1}, func() error { return nil })
	require.Error(t, err)
}

func TestDoWithResult(t *testing.T) {
	cfg := Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}
	calls := 0
	got, err := DoWithResult(context.Background(), cfg, func() (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestNonRetryableNilIsNil(t *testing.T) {
	assert.NoError(t, NonRetryable(nil))
	assert.False(t, IsNonRetryable(nil))
}
