// Package procgroup launches external commands in their own process group
// and guarantees that killing the group reaps the whole subtree, not just
// the direct child. KillGroup never returns before the child is reaped.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"time"
)

var (
	ErrProcessNotFound = errors.New("process not found")
	ErrKillFailed      = errors.New("kill operation failed")
)

// Set configures cmd to start as the leader of a new process group.
// Mandatory for KillGroup/Kill to reap the whole subtree rather than just
// the direct child.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// KillGroup terminates an entire process-group tree rooted at pid: SIGTERM
// (or the platform's nearest equivalent), wait up to grace, then SIGKILL,
// wait up to timeout. The process MUST have been started with Set(cmd).
func KillGroup(pid int, grace, timeout time.Duration) error {
	return killGroup(pid, grace, timeout)
}

// escalatingWait is the two-stage shutdown both platform killGroup
// implementations reduce to: wait for proc to be reaped, and if it isn't
// within grace, run escalate (a harder signal) and wait once more, up to
// timeout. Only the signals sent before this point differ per platform.
func escalatingWait(proc *os.Process, grace, timeout time.Duration, escalate func()) error {
	done := make(chan struct{})
	go func() {
		_, _ = proc.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(grace):
	}

	escalate()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrKillFailed
	}
}
