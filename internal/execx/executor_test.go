package execx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/apierr"
)

func TestRunSucceeds(t *testing.T) {
	e := New(2, 50*time.Millisecond, 50*time.Millisecond)
	res, err := e.Run(context.Background(), "echo", Spec{Argv: []string{"echo", "hello"}})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
}

func TestRunCapturesNonZeroExit(t *testing.T) {
	e := New(2, 50*time.Millisecond, 50*time.Millisecond)
	_, err := e.Run(context.Background(), "false", Spec{Argv: []string{"sh", "-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)
	require.True(t, apierr.As(err, apierr.KindExecFailed))
}

func TestRunEnforcesDeadlineAndKillsTree(t *testing.T) {
	e := New(2, 20*time.Millisecond, 200*time.Millisecond)
	_, err := e.Run(context.Background(), "sleep", Spec{
		Argv:     []string{"sh", "-c", "sleep 10"},
		Deadline: 50 * time.Millisecond,
	})
	require.Error(t, err)
	require.True(t, apierr.As(err, apierr.KindExecTimeout))
}

func TestRunRespectsCancellation(t *testing.T) {
	e := New(2, 20*time.Millisecond, 200*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := e.Run(ctx, "sleep", Spec{Argv: []string{"sh", "-c", "sleep 10"}})
	require.Error(t, err)
	require.True(t, apierr.As(err, apierr.KindCancelled))
}

func TestRunBoundsConcurrency(t *testing.T) {
	e := New(1, 20*time.Millisecond, 200*time.Millisecond)

	start := time.Now()
	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, _ = e.Run(context.Background(), "sleep", Spec{Argv: []string{"sh", "-c", "sleep 0.1"}})
			done <- struct{}{}
		}()
	}
	<-done
	<-done
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestRunStreamsStderrLines(t *testing.T) {
	e := New(1, 20*time.Millisecond, 200*time.Millisecond)
	var lines []string
	_, err := e.Run(context.Background(), "stderr", Spec{
		Argv:         []string{"sh", "-c", "echo one >&2; echo two >&2"},
		OnStderrLine: func(line string) { lines = append(lines, line) },
	})
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, lines)
}
