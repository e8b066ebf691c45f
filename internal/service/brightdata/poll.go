package brightdata

import (
	"context"
	"time"

	"github.com/kapu/wykra-go/internal/domain"
)

// pollStep performs one polling iteration and reports where the job stands.
// A non-nil error aborts the loop immediately.
type pollStep func(ctx context.Context, attempt int) (domain.JobStatus, error)

// poll drives step at a constant interval: the first call happens
// immediately, each later one after sleeping interval. It returns the first
// terminal status, or JobStatusPending once attempts are exhausted. A done
// context is returned as its error.
func poll(ctx context.Context, attempts int, interval time.Duration, step pollStep) (domain.JobStatus, error) {
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, interval); err != nil {
				return domain.JobStatusPending, err
			}
		}

		status, err := step(ctx, attempt)
		if err != nil {
			return status, err
		}
		if status.IsTerminal() {
			return status, nil
		}
	}

	return domain.JobStatusPending, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// pollAttempts is max_wait / interval, never less than one.
func pollAttempts(maxWait, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	attempts := int(maxWait / interval)
	if attempts < 1 {
		return 1
	}
	return attempts
}
