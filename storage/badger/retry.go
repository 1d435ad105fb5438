// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidMaxAttempts indicates a retry count below one.
var ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

// OpenBackendWithRetry opens a backend, retrying with exponential backoff.
// Badger holds a directory lock, so a second process opening the same store
// fails until the first one exits.
// maxAttempts: maximum number of attempts (must be > 0)
// baseDelay: base delay between retries (doubles on each retry)
// Returns the error from the last attempt if all attempts fail.
func OpenBackendWithRetry(ctx context.Context, filePath string, inMemory bool, logger *slog.Logger, maxAttempts int, baseDelay time.Duration) (*Backend, error) {
	var backend *Backend
	err := retryWithBackoff(ctx, logger, func() error {
		var err error
		backend, err = OpenBackendWithLogger(filePath, inMemory, logger)
		return err
	}, maxAttempts, baseDelay)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func retryWithBackoff(ctx context.Context, logger *slog.Logger, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("open succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		logger.Debug("open failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay << (attempt - 1)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
