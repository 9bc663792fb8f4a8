// Package wait turns a boolean probe into a bounded wait with a
// pass/fail outcome.
package wait

import (
	"context"
	"log/slog"
	"time"
)

// Probe reports whether the awaited condition holds. A probe error is
// treated the same as a false result: it consumes an attempt and the
// loop continues.
type Probe func(ctx context.Context) (bool, error)

// Poller retries a probe a fixed number of times with a fixed delay
// between attempts.
type Poller struct {
	// Attempts is the total probe budget. The probe is invoked exactly
	// Attempts times when it never succeeds.
	Attempts int

	// Delay is the pause after each failed attempt.
	Delay time.Duration

	// Sleep pauses between attempts. Nil means sleeping on the wall
	// clock, returning early with an error when ctx is cancelled. Tests
	// substitute a fake to run the poller without real delay.
	Sleep func(ctx context.Context, d time.Duration) error

	Logger *slog.Logger
}

// Wait runs the probe until it succeeds or the attempt budget is
// exhausted. Probe errors are absorbed, but the first one is logged so
// misconfiguration does not hide behind "not ready yet" for the whole
// budget. Cancellation during a pause stops the wait with a false
// outcome.
func (p Poller) Wait(ctx context.Context, probe Probe) bool {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	errLogged := false

	for i := 0; i < p.Attempts; i++ {
		ok, err := probe(ctx)
		if ok && err == nil {
			return true
		}

		if err != nil && !errLogged {
			errLogged = true

			logger.Debug("probe failed",
				"attempt", i+1,
				"error", err,
			)
		}

		if sleepErr := sleep(ctx, p.Delay); sleepErr != nil {
			return false
		}
	}

	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}
