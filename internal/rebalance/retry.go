package rebalance

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// transient network failures: worth retrying, the next attempt may succeed.
var networkSignatures = []string{
	"econnreset",
	"econnrefused",
	"etimedout",
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"dns",
	"no such host",
	"fetch",
	"network",
	"socket",
	"eof",
}

// transient chain-state failures: a conflicting transaction consumed an
// object version this attempt was built against. A fresh read fixes these.
var chainStateSignatures = []string{
	"is not available for consumption",
	"current version",
	"object version",
	"quorum",
}

// IsRetryable classifies an error by message: transient network and
// chain-state failures are retried, everything else (insufficient balance,
// invalid parameters, contract aborts) surfaces immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range networkSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	for _, sig := range chainStateSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	// A conflicting in-flight transaction holding the gas object reports as
	// "pending ... N seconds old" or "pending ... above threshold".
	if strings.Contains(msg, "pending") &&
		(strings.Contains(msg, "seconds old") || strings.Contains(msg, "above threshold")) {
		return true
	}
	return false
}

// Retry runs fn until it succeeds, retrying transient failures with
// exponential backoff (initialDelay, doubled per attempt). The closure must
// perform its own fresh state reads: the whole read+write unit is what gets
// retried, never a stale snapshot. Non-retryable errors and the final
// failure are returned unchanged so callers can inspect the root cause.
func Retry[T any](ctx context.Context, logger *zap.Logger, name string, maxRetries int, initialDelay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}

	delay := initialDelay
	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		if !IsRetryable(err) {
			return zero, err
		}
		if attempt >= maxRetries {
			logger.Error("retries exhausted",
				zap.String("operation", name),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return zero, err
		}

		logger.Warn("transient failure, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
