// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries      int                          // Maximum number of retry attempts
	InitialInterval time.Duration                // Initial retry interval
	MaxInterval     time.Duration                // Maximum retry interval
	Multiplier      float64                      // Exponential backoff multiplier
	Jitter          bool                         // Add up to 25% random jitter
	OnRetry         func(attempt int, err error) // Optional callback invoked before each retry
}

// FileRetryConfig is the policy for writes into a report bundle. A scan never
// waits long on a single file.
func FileRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
		Multiplier:      3.0,
		Jitter:          true,
	}
}

// CleanupRetryConfig is the policy for removing a discarded bundle while late
// workers may still be closing files inside it.
func CleanupRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      5,
		InitialInterval: 20 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
		Multiplier:      2.0,
	}
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation func(ctx context.Context) error

// RetryWithBackoff runs operation until it succeeds, returns a non-retryable
// error, or the retries are used up. The delay before attempt n is
// InitialInterval * Multiplier^(n-1), capped at MaxInterval.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation RetryableOperation) error {
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := float64(config.InitialInterval)
			for i := 1; i < attempt; i++ {
				delay *= config.Multiplier
			}
			if config.Jitter {
				delay += delay * 0.25 * rand.Float64()
			}
			wait := time.Duration(delay)
			if config.MaxInterval > 0 {
				wait = min(wait, config.MaxInterval)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

			if config.OnRetry != nil {
				config.OnRetry(attempt, lastErr)
			}
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}
