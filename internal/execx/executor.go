// Package execx runs external commands (FFmpeg, curl) under a bounded
// concurrency cap, with deadline enforcement and guaranteed kill-tree
// cleanup on timeout or cancellation.
package execx

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/metrics"
	"github.com/komposer-mcp/komposer/internal/procgroup"
)

// Spec describes one external command invocation.
type Spec struct {
	Argv    []string
	Dir     string
	Env     []string // appended to the child's inherited environment; nil means inherit only
	Stdin   io.Reader
	Deadline time.Duration // zero means no deadline beyond ctx

	// OnStderrLine, if set, is called synchronously for each line of
	// stderr as it is produced (used to surface ffmpeg -progress output).
	OnStderrLine func(line string)
}

// Result is what a completed (or failed) run produced.
type Result struct {
	ExitCode   int
	StderrTail []string
	Duration   time.Duration
}

// Executor runs Specs under a bounded concurrency cap. The zero value is
// not usable; construct with New.
type Executor struct {
	sem         *semaphore.Weighted
	killGrace   time.Duration
	killTimeout time.Duration
}

// New builds an Executor that admits at most maxConcurrent processes at
// once. maxConcurrent <= 0 means unbounded.
func New(maxConcurrent int64, killGrace, killTimeout time.Duration) *Executor {
	var sem *semaphore.Weighted
	if maxConcurrent > 0 {
		sem = semaphore.NewWeighted(maxConcurrent)
	}
	return &Executor{sem: sem, killGrace: killGrace, killTimeout: killTimeout}
}

// Run starts spec's command, waits for it to exit or for ctx/spec.Deadline
// to elapse, and guarantees the child's entire process-group is reaped
// before returning. Callers block in FIFO order behind the concurrency cap.
func (e *Executor) Run(ctx context.Context, op string, spec Spec) (Result, error) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return Result{}, apierr.Cancelled("")
		}
		defer e.sem.Release(1)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if spec.Deadline > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Deadline)
		defer cancel()
	}

	logger := log.WithComponent("execx")

	if len(spec.Argv) == 0 {
		return Result{}, apierr.New(apierr.KindValidation, "empty argv").WithField("argv")
	}

	cmd := exec.CommandContext(runCtx, spec.Argv[0], spec.Argv[1:]...)
	cmd.Dir = spec.Dir
	if spec.Env != nil {
		cmd.Env = spec.Env
	}
	if spec.Stdin != nil {
		cmd.Stdin = spec.Stdin
	}
	procgroup.Set(cmd)

	ring := newLineRing(128)
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		metrics.ExecStartTotal.WithLabelValues(op, "spawn_error").Inc()
		return Result{}, apierr.ExecSpawn(err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		metrics.ExecStartTotal.WithLabelValues(op, "spawn_error").Inc()
		return Result{}, apierr.ExecSpawn(err)
	}
	metrics.ExecStartTotal.WithLabelValues(op, "ok").Inc()
	metrics.ActiveOperations.Inc()
	defer metrics.ActiveOperations.Dec()

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stderrPipe)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			_, _ = ring.Write([]byte(line + "\n"))
			if spec.OnStderrLine != nil {
				spec.OnStderrLine(line)
			}
		}
	}()

	waitErr := cmd.Wait()
	<-done
	elapsed := time.Since(start)

	if runCtx.Err() != nil && cmd.Process != nil {
		_ = procgroup.KillGroup(cmd.Process.Pid, e.killGrace, e.killTimeout)
		if ctx.Err() != nil {
			metrics.ExecExitTotal.WithLabelValues(op, "cancelled").Inc()
			return Result{StderrTail: ring.lastN(20), Duration: elapsed}, apierr.Cancelled("")
		}
		metrics.ExecExitTotal.WithLabelValues(op, "timeout").Inc()
		return Result{StderrTail: ring.lastN(20), Duration: elapsed}, apierr.ExecTimeout(spec.Deadline.Seconds())
	}

	if waitErr != nil {
		code := exitCodeOf(waitErr)
		metrics.ExecExitTotal.WithLabelValues(op, "failed").Inc()
		logger.Warn().Str("op", op).Int("code", code).Strs("stderr_tail", ring.lastN(10)).Msg("command exited non-zero")
		return Result{ExitCode: code, StderrTail: ring.lastN(20), Duration: elapsed}, apierr.ExecFailed(code, joinLines(ring.lastN(20)))
	}

	metrics.ExecExitTotal.WithLabelValues(op, "ok").Inc()
	return Result{ExitCode: 0, StderrTail: ring.lastN(20), Duration: elapsed}, nil
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if asExitError(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
