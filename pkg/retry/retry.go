package retry

import (
	"context"
	"fmt"
	"time"

	"premarket-sentiment/pkg/logger"
)

// Policy controls how Do retries a failing operation.
//
// Backoff is deterministic exponential with no jitter: the sleep before
// attempt n+1 is InitialDelay * 2^(n-1), i.e. d, 2d, 4d, ...
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the sleep after the first failed attempt.
	InitialDelay time.Duration
	// Sleep overrides the wait between attempts. Nil uses a context-aware
	// time.Sleep. Exposed for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs op until it succeeds or the policy is exhausted. The final error
// is returned wrapped so callers can still classify it with errors.Is.
func Do[T any](ctx context.Context, log *logger.Logger, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		log.Warn("Operation failed, retrying",
			logger.StringField("operation", name),
			logger.IntField("attempt", attempt),
			logger.IntField("max_attempts", p.MaxAttempts),
			logger.DurationField("delay", delay),
			logger.ErrorField(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: retry interrupted: %w", name, err)
		}
		delay *= 2
	}

	log.Error("Operation failed after all attempts",
		logger.StringField("operation", name),
		logger.IntField("max_attempts", p.MaxAttempts),
		logger.ErrorField(lastErr),
	)
	return zero, fmt.Errorf("%s failed after %d attempts: %w", name, p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
