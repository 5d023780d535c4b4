package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *zap.Logger
}

type retryable interface {
	Retryable() bool
}

// Do executes fn with exponential back-off. Only errors that report
// themselves as retryable are tried again.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.BaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var re retryable
		if !errors.As(lastErr, &re) || !re.Retryable() {
			return lastErr
		}

		if attempt < attempts {
			if r.Logger != nil {
				r.Logger.Warn("retrying",
					zap.String("operation", operationName),
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", attempts),
					zap.Duration("delay", delay),
					zap.Error(lastErr))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}
