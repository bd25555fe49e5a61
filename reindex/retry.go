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


package reindex

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// RetryPolicy controls how a failed write is retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration // doubles after every failed attempt

	// Retryable reports whether err is worth another attempt.
	// Nil retries every error.
	Retryable func(err error) bool
}

// IsConflict reports whether err is a badger transaction conflict.
func IsConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}

// Retry runs op until it succeeds, the policy gives up or ctx is done.
// Returns the error from the last attempt if every attempt fails.
func Retry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, op func() error) error {
	if policy.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	delay := policy.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("write succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if policy.Retryable != nil && !policy.Retryable(lastErr) {
			return lastErr
		}

		logger.Debug("write failed, will retry", "attempt", attempt, "maxAttempts", policy.MaxAttempts, "err", lastErr)
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	return lastErr
}
