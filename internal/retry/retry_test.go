package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxRetries:     3,
		InitialBackoff: 5 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoSuccess(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), testConfig(), nil, func(ctx context.Context) error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoPermanentError(t *testing.T) {
	attempts := 0
	permanent := errors.New("permanent")
	classifier := func(err error) bool {
		return !errors.Is(err, permanent)
	}

	err := Do(context.Background(), testConfig(), classifier, func(ctx context.Context) error {
		attempts++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts, "permanent errors must not be retried")
}

func TestDoRecoversAfterTransientFailures(t *testing.T) {
	attempts := 0
	transient := errors.New("temporary")

	err := Do(context.Background(), testConfig(), IsRetryable, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return transient
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsRetries(t *testing.T) {
	attempts := 0
	transient := errors.New("temporary")
	cfg := testConfig()

	err := Do(context.Background(), cfg, IsRetryable, func(ctx context.Context) error {
		attempts++
		return transient
	})

	require.Error(t, err)
	assert.Equal(t, cfg.MaxRetries+1, attempts)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, cfg.MaxRetries+1, exhausted.Attempts)
	assert.ErrorIs(t, err, transient)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Do(ctx, testConfig(), IsRetryable, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("temporary")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(errors.New("connection reset")))
}
