package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryWithResult_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestRetryWithResult_RecoversAfterFailures(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("not ready")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetryWithResult_ExhaustedAttemptsWrapLastError(t *testing.T) {
	refused := errors.New("connection refused")
	calls := 0
	_, err := RetryWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 0, refused
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 3, calls)
}

func TestRetryWithResult_CancelledContextAbortsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastConfig()
	cfg.InitialDelay = time.Hour

	calls := 0
	_, err := RetryWithResult(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.New("not ready")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDelay_CappedAtMax(t *testing.T) {
	cfg := Config{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, time.Second, delay(cfg, 0))
	assert.Equal(t, 2*time.Second, delay(cfg, 1))
	assert.Equal(t, 4*time.Second, delay(cfg, 2))
	assert.Equal(t, 4*time.Second, delay(cfg, 5))
}
