package hygiene

import (
	"context"
	"os"
	"time"

	gopsprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/metrics"
	"github.com/komposer-mcp/komposer/internal/procgroup"
)

// Scanner scans the host process table and classifies every process,
// and can terminate ones it has just re-verified as ClassSafeToKill.
type Scanner struct {
	Config      Config
	HasActiveOp activeOpChecker
	KillGrace   time.Duration
	KillTimeout time.Duration
	Clock       interface{ Now() time.Time }
}

// NewScanner builds a Scanner. hasActiveOp, if non-nil, is consulted to
// exclude processes still owned by a live operation handle.
func NewScanner(cfg Config, hasActiveOp func(pid int32) bool, killGrace, killTimeout time.Duration) *Scanner {
	if cfg.SelfPID == 0 {
		cfg.SelfPID = int32(os.Getpid())
	}
	return &Scanner{Config: cfg, HasActiveOp: hasActiveOp, KillGrace: killGrace, KillTimeout: killTimeout}
}

func (s *Scanner) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

// Scan lists every process on the host and returns its classification
// record. Never mutates state.
func (s *Scanner) Scan(ctx context.Context) ([]Record, error) {
	procs, err := gopsprocess.ProcessesWithContext(ctx)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to enumerate processes", err)
	}

	now := s.now()
	out := make([]Record, 0, len(procs))
	for _, proc := range procs {
		info, ok := toProcInfo(ctx, proc)
		if !ok {
			continue
		}
		out = append(out, classify(info, s.Config, now, s.HasActiveOp))
	}
	return out, nil
}

func toProcInfo(ctx context.Context, proc *gopsprocess.Process) (procInfo, bool) {
	argv, err := proc.CmdlineSliceWithContext(ctx)
	if err != nil || len(argv) == 0 {
		return procInfo{}, false
	}
	createdMs, err := proc.CreateTimeWithContext(ctx)
	if err != nil {
		return procInfo{}, false
	}
	cpuPct, _ := proc.CPUPercentWithContext(ctx)
	ppid, _ := proc.PpidWithContext(ctx)

	parentExists := false
	if ppid > 1 {
		if _, perr := gopsprocess.NewProcess(ppid); perr == nil {
			parentExists = true
		}
	}

	return procInfo{
		PID:          proc.Pid,
		PPID:         ppid,
		Argv:         argv,
		CPUPercent:   cpuPct,
		StartTime:    time.UnixMilli(createdMs),
		ParentExists: parentExists,
		ListenPorts:  listenPorts(ctx, proc),
	}, true
}

// listenPorts reads proc's open sockets and returns the local ports it is
// listening on. Errors (permission denied, process exited mid-scan) are
// swallowed: a process this scanner cannot introspect is simply reported
// with no listen ports, never promoted to protected on account of them.
func listenPorts(ctx context.Context, proc *gopsprocess.Process) []int {
	conns, err := proc.ConnectionsWithContext(ctx)
	if err != nil {
		return nil
	}
	var ports []int
	for _, c := range conns {
		if c.Status == "LISTEN" && c.Laddr.Port != 0 {
			ports = append(ports, int(c.Laddr.Port))
		}
	}
	return ports
}

// Kill terminates each of pids, soft by default, hard if force is true.
// Every pid is re-classified at the moment of the call; a pid that is not
// currently ClassSafeToKill is refused regardless of what an earlier Scan
// reported.
func (s *Scanner) Kill(ctx context.Context, pids []int32, force bool) ([]KillResult, error) {
	results := make([]KillResult, 0, len(pids))
	for _, pid := range pids {
		results = append(results, s.killOne(ctx, pid, force))
	}
	return results, nil
}

// KillAllSafe scans the host and kills every process currently classified
// safe_to_kill. force escalates straight to SIGKILL.
func (s *Scanner) KillAllSafe(ctx context.Context, force bool) (Summary, error) {
	records, err := s.Scan(ctx)
	if err != nil {
		return Summary{}, err
	}

	var pids []int32
	for _, r := range records {
		if r.Class == ClassSafeToKill {
			pids = append(pids, r.PID)
		}
	}

	results, _ := s.Kill(ctx, pids, force)
	summary := Summary{Attempted: len(results), Results: results}
	for _, r := range results {
		if r.Killed {
			summary.Killed++
		}
	}
	return summary, nil
}

func (s *Scanner) killOne(ctx context.Context, pid int32, force bool) KillResult {
	logger := log.WithComponent("hygiene")

	proc, err := gopsprocess.NewProcessWithContext(ctx, pid)
	if err != nil {
		return KillResult{PID: pid, Killed: false, Reason: "process no longer exists"}
	}
	info, ok := toProcInfo(ctx, proc)
	if !ok {
		return KillResult{PID: pid, Killed: false, Reason: "could not read process info"}
	}

	rec := classify(info, s.Config, s.now(), s.HasActiveOp)
	if rec.Class != ClassSafeToKill {
		metrics.ZombieKillsTotal.WithLabelValues(string(rec.Class), "refused").Inc()
		logger.Info().Int32("pid", pid).Str("class", string(rec.Class)).Msg("refusing to kill: not currently safe_to_kill")
		return KillResult{PID: pid, Killed: false, Reason: "pid is not currently classified safe_to_kill: " + rec.Reason}
	}

	grace, timeout := s.KillGrace, s.KillTimeout
	if force {
		grace = 0
	}
	if err := procgroup.KillGroup(int(pid), grace, timeout); err != nil {
		metrics.ZombieKillsTotal.WithLabelValues(string(rec.Class), "failed").Inc()
		return KillResult{PID: pid, Killed: false, Forced: force, Reason: err.Error()}
	}

	metrics.ZombieKillsTotal.WithLabelValues(string(rec.Class), "ok").Inc()
	logger.Info().Int32("pid", pid).Bool("forced", force).Msg("killed safe_to_kill process")
	return KillResult{PID: pid, Killed: true, Forced: force}
}
