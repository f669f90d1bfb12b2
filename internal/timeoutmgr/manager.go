package timeoutmgr

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/metrics"
)

// Manager owns the active-operations table: every call wrapped by
// ExecuteWithTimeout gets a Handle tracked here from start until it is
// pruned after RetentionWindow past its terminal state.
type Manager struct {
	clock           Clock
	retentionWindow time.Duration

	mu      sync.Mutex
	handles map[string]*Handle
}

// New builds a Manager. retentionWindow is how long a terminal handle
// remains queryable via Status before it is pruned.
func New(retentionWindow time.Duration) *Manager {
	return &Manager{
		clock:           RealClock{},
		retentionWindow: retentionWindow,
		handles:         make(map[string]*Handle),
	}
}

// WithClock overrides the manager's clock; intended for tests.
func (m *Manager) WithClock(c Clock) *Manager {
	m.clock = c
	return m
}

// NewOpID mints a fresh operation ID.
func NewOpID() string {
	return "op_" + uuid.NewString()
}

// CleanupFunc runs when an operation is cancelled or times out. It returns
// the names of the cleanup steps it attempted, in order, so the caller can
// report which ones succeeded.
type CleanupFunc func(ctx context.Context) []string

// ExecuteWithTimeout runs task under a deadline derived from deadlineS,
// tracking its lifecycle in a Handle. On deadline expiry or external
// cancellation of ctx, task's context is cancelled, cleanup runs, the
// handle is marked timed_out/cancelled, and a structured Timeout or
// CancelledError is returned. The handle is always registered before task
// starts and is pruned from the active table only after RetentionWindow
// has elapsed past its terminal time.
func ExecuteWithTimeout[T any](m *Manager, ctx context.Context, opID string, estimate Estimate, cleanup CleanupFunc, task func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	logger := log.WithComponent("timeoutmgr").With().Str("op_id", opID).Logger()

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(estimate.DeadlineS*float64(time.Second)))
	defer cancel()

	h := &Handle{
		OpID:      opID,
		StartTime: m.clock.Now(),
		Estimate:  estimate,
		DeadlineS: estimate.DeadlineS,
		Status:    StatusRunning,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	m.register(h)
	metrics.ActiveOperations.Inc()

	type outcome struct {
		val T
		err error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		v, err := task(runCtx)
		resultCh <- outcome{val: v, err: err}
	}()

	select {
	case res := <-resultCh:
		m.finish(h, terminalStatus(res.err))
		metrics.ActiveOperations.Dec()
		close(h.done)
		return res.val, res.err

	case <-runCtx.Done():
		metrics.ActiveOperations.Dec()
		close(h.done)

		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		var steps []string
		if cleanup != nil {
			steps = cleanup(cleanupCtx)
		}
		h.cleanupSteps = steps

		if runCtx.Err() != context.DeadlineExceeded {
			m.finish(h, StatusCancelled)
			logger.Info().Msg("operation cancelled")
			return zero, apierr.Cancelled(opID)
		}

		m.finish(h, StatusTimedOut)
		logger.Warn().Float64("estimate_s", estimate.CostS).Float64("limit_s", estimate.DeadlineS).
			Strs("cleanup_steps", steps).Msg("operation timed out")
		return zero, apierr.Timeout(opID, estimate.CostS, estimate.DeadlineS, steps)
	}
}

func terminalStatus(err error) Status {
	if err == nil {
		return StatusCompleted
	}
	if apierr.As(err, apierr.KindCancelled) {
		return StatusCancelled
	}
	return StatusFailed
}

func (m *Manager) register(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handles[h.OpID] = h
}

func (m *Manager) finish(h *Handle, status Status) {
	m.mu.Lock()
	h.Status = status
	h.endTime = m.clock.Now()
	m.mu.Unlock()
}

// Status returns a snapshot of the handle for opID, or NotFound.
func (m *Manager) Status(opID string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[opID]
	if !ok {
		return Handle{}, apierr.New(apierr.KindValidation, "no such operation handle").WithField("op_id").WithContext("op_id", opID)
	}
	return *h, nil
}

// ListActive returns every handle still within its retention window,
// running ones first.
func (m *Manager) ListActive() []Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Handle, 0, len(m.handles))
	for _, h := range m.handles {
		out = append(out, *h)
	}
	return out
}

// Cancel requests cancellation of opID. Idempotent: cancelling an already
// terminal operation is a no-op.
func (m *Manager) Cancel(opID string) error {
	m.mu.Lock()
	h, ok := m.handles[opID]
	m.mu.Unlock()
	if !ok {
		return apierr.New(apierr.KindValidation, "no such operation handle").WithField("op_id")
	}
	if h.Status != StatusRunning && h.Status != StatusPending {
		return nil
	}
	h.cancel()
	return nil
}

// Prune removes every handle whose terminal state is older than the
// retention window. Intended to be called periodically (e.g. from a
// janitor goroutine or before each ListActive in tests).
func (m *Manager) Prune() {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, h := range m.handles {
		if h.Status == StatusRunning || h.Status == StatusPending {
			continue
		}
		if now.Sub(h.endTime) > m.retentionWindow {
			delete(m.handles, id)
		}
	}
}
