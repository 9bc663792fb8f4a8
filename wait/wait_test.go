package wait_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dockdb/dockdb/wait"
	"github.com/stretchr/testify/require"
)

func noSleep(sleeps *int) func(ctx context.Context, d time.Duration) error {
	return func(context.Context, time.Duration) error {
		if sleeps != nil {
			*sleeps++
		}

		return nil
	}
}

func Test_Poller_ExhaustsExactBudget(t *testing.T) {
	t.Parallel()

	attempts := 0
	sleeps := 0

	poller := wait.Poller{
		Attempts: 5,
		Delay:    time.Hour,
		Sleep:    noSleep(&sleeps),
	}

	ok := poller.Wait(context.Background(), func(context.Context) (bool, error) {
		attempts++

		return false, nil
	})

	require.False(t, ok)
	require.Equal(t, 5, attempts)
	require.Equal(t, 5, sleeps)
}

func Test_Poller_StopsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	attempts := 0

	poller := wait.Poller{
		Attempts: 10,
		Sleep:    noSleep(nil),
	}

	ok := poller.Wait(context.Background(), func(context.Context) (bool, error) {
		attempts++

		return attempts == 3, nil
	})

	require.True(t, ok)
	require.Equal(t, 3, attempts)
}

func Test_Poller_ProbeErrorConsumesAttempt(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("connection refused")

	attempts := 0

	poller := wait.Poller{
		Attempts: 3,
		Sleep:    noSleep(nil),
	}

	ok := poller.Wait(context.Background(), func(context.Context) (bool, error) {
		attempts++

		return false, errBroken
	})

	require.False(t, ok)
	require.Equal(t, 3, attempts)
}

func Test_Poller_LogsFirstProbeErrorOnce(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	poller := wait.Poller{
		Attempts: 4,
		Sleep:    noSleep(nil),
		Logger:   logger,
	}

	_ = poller.Wait(context.Background(), func(context.Context) (bool, error) {
		return false, errors.New("wrong password")
	})

	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("probe failed")))
	require.Contains(t, buf.String(), "wrong password")
}

func Test_Poller_CancelledDuringSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0

	poller := wait.Poller{
		Attempts: 100,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()

			return context.Cause(ctx)
		},
	}

	ok := poller.Wait(ctx, func(context.Context) (bool, error) {
		attempts++

		return false, nil
	})

	require.False(t, ok)
	require.Equal(t, 1, attempts)
}

func Test_Poller_SuccessAfterError(t *testing.T) {
	t.Parallel()

	attempts := 0

	poller := wait.Poller{
		Attempts: 5,
		Sleep:    noSleep(nil),
	}

	ok := poller.Wait(context.Background(), func(context.Context) (bool, error) {
		attempts++

		if attempts < 2 {
			return false, errors.New("not listening yet")
		}

		return true, nil
	})

	require.True(t, ok)
	require.Equal(t, 2, attempts)
}
