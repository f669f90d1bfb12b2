//go:build !linux

package procgroup

import (
	"os"
	"os/exec"
	"time"

	"github.com/komposer-mcp/komposer/internal/log"
)

func set(cmd *exec.Cmd) {
	// Best effort: no process-group semantics on non-Linux unix platforms,
	// we fall back to signalling the root process only.
}

func killGroup(pid int, grace, timeout time.Duration) error {
	if pid <= 0 {
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	log.WithComponent("procgroup").Debug().Int("pid", pid).Msg("sending interrupt to root process (non-linux fallback)")
	_ = proc.Signal(os.Interrupt)

	return escalatingWait(proc, grace, timeout, func() {
		_ = proc.Kill()
	})
}
