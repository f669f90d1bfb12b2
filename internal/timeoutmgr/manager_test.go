package timeoutmgr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/komposer-mcp/komposer/internal/apierr"
)

// TestMain guards against leaking the goroutines ExecuteWithTimeout spawns to
// race a task against its deadline; every test in this file must let those
// goroutines observe either completion or cancellation before returning.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExecuteWithTimeoutCompletes(t *testing.T) {
	m := New(time.Minute)
	opID := NewOpID()

	val, err := ExecuteWithTimeout(m, context.Background(), opID, Estimate{DeadlineS: 1}, nil,
		func(ctx context.Context) (int, error) { return 42, nil })

	require.NoError(t, err)
	require.Equal(t, 42, val)

	h, err := m.Status(opID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, h.Status)
}

func TestExecuteWithTimeoutExpires(t *testing.T) {
	m := New(time.Minute)
	opID := NewOpID()
	var cleanupRan []string

	_, err := ExecuteWithTimeout(m, context.Background(), opID, Estimate{DeadlineS: 0.02},
		func(ctx context.Context) []string {
			cleanupRan = []string{"kill_process_group", "remove_partial_output"}
			return cleanupRan
		},
		func(ctx context.Context) (struct{}, error) {
			select {
			case <-ctx.Done():
				return struct{}{}, ctx.Err()
			case <-time.After(time.Second):
				return struct{}{}, nil
			}
		})

	require.Error(t, err)
	require.True(t, apierr.As(err, apierr.KindTimeout))
	require.Equal(t, []string{"kill_process_group", "remove_partial_output"}, cleanupRan)

	h, statusErr := m.Status(opID)
	require.NoError(t, statusErr)
	require.Equal(t, StatusTimedOut, h.Status)
	require.Equal(t, cleanupRan, h.CleanupSteps())
}

func TestCancelIsIdempotent(t *testing.T) {
	m := New(time.Minute)
	opID := NewOpID()

	done := make(chan struct{})
	go func() {
		_, _ = ExecuteWithTimeout(m, context.Background(), opID, Estimate{DeadlineS: 10}, nil,
			func(ctx context.Context) (struct{}, error) {
				<-ctx.Done()
				return struct{}{}, ctx.Err()
			})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, m.Cancel(opID))
	<-done

	require.NoError(t, m.Cancel(opID)) // no-op on a terminal op
}

func TestComputeEstimateClampsDeadline(t *testing.T) {
	model := defaultTestModel()
	est := ComputeEstimate(Cues{DurationS: 10000, Complexity: ComplexityEffectsHeavy, Quality: QualityHigh}, model)
	require.Equal(t, model.MaxDeadlineS, est.DeadlineS)

	est = ComputeEstimate(Cues{DurationS: 0.001}, model)
	require.Equal(t, model.MinDeadlineS, est.DeadlineS)
}

func TestComputeEstimateDerivesFromBeatsAndBPM(t *testing.T) {
	model := defaultTestModel()
	est := ComputeEstimate(Cues{Beats: 32, BPM: 120}, model)
	require.InDelta(t, 16.0, est.DurationS, 0.001)
}
