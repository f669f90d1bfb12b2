//go:build linux

package procgroup

import (
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKillGroupReapsSubtree(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 100 & sleep 100")
	Set(cmd)

	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid

	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	require.Equal(t, pid, pgid, "process should be its own group leader")

	require.NoError(t, KillGroup(pid, 100*time.Millisecond, 500*time.Millisecond))

	process, _ := os.FindProcess(pid)
	require.Error(t, process.Signal(syscall.Signal(0)), "parent process should be dead")

	err = syscall.Kill(-pgid, syscall.Signal(0))
	require.Equal(t, syscall.ESRCH, err, "process group should be gone")
}

func TestKillGroupAlreadyGone(t *testing.T) {
	require.NoError(t, KillGroup(99999, 10*time.Millisecond, 10*time.Millisecond))
}

func TestKillGroupNonPositivePID(t *testing.T) {
	require.NoError(t, KillGroup(0, time.Millisecond, time.Millisecond))
	require.NoError(t, KillGroup(-1, time.Millisecond, time.Millisecond))
}
