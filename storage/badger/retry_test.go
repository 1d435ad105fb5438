package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	operation := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	err := retryWithBackoff(context.Background(), nil, operation, 5, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts, "should succeed on third attempt")
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	operation := func() error {
		attempts++
		return expectedErr
	}

	err := retryWithBackoff(context.Background(), nil, operation, 3, time.Millisecond)
	assert.Equal(t, expectedErr, err, "should return the original error")
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := retryWithBackoff(context.Background(), nil, func() error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := retryWithBackoff(ctx, nil, func() error {
		attempts++
		return nil
	}, 3, time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}

func TestOpenBackendWithRetry_LockedDirectory(t *testing.T) {
	dir := t.TempDir()
	first, err := OpenBackend(dir, false)
	require.NoError(t, err)

	// the directory lock is released once the first backend closes
	go func() {
		time.Sleep(30 * time.Millisecond)
		first.Close()
	}()

	second, err := OpenBackendWithRetry(context.Background(), dir, false, nil, 8, 10*time.Millisecond)
	require.NoError(t, err)
	defer second.Close()
	assert.False(t, second.IsClosed())
}
