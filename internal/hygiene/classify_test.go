package hygiene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		SelfPID:            100,
		SelfModuleName:      "komposer-mcp/komposer",
		ReservedPorts:      map[int]bool{8080: true},
		ZombieAgeThreshold: 2 * time.Hour,
	}
}

func TestClassifyProtectsSelfPID(t *testing.T) {
	p := procInfo{PID: 100, Argv: []string{"/usr/bin/komposerd"}}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassProtected, rec.Class)
}

func TestClassifyProtectsByModuleName(t *testing.T) {
	p := procInfo{PID: 999, Argv: []string{"/usr/bin/go-run", "github.com/komposer-mcp/komposer/cmd/komposerd"}}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassProtected, rec.Class)
}

func TestClassifyProtectsReservedPort(t *testing.T) {
	p := procInfo{PID: 222, Argv: []string{"/usr/bin/some-other-service"}, ListenPorts: []int{8080}}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassProtected, rec.Class)
}

func TestClassifySafeToKillAgedFFmpeg(t *testing.T) {
	p := procInfo{
		PID:       333,
		Argv:      []string{"/usr/bin/ffmpeg", "-i", "in.mp4", "out.mp4"},
		StartTime: time.Now().Add(-3 * time.Hour),
	}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassSafeToKill, rec.Class)
}

func TestClassifyYoungFFmpegIsCaution(t *testing.T) {
	p := procInfo{
		PID:       334,
		Argv:      []string{"/usr/bin/ffmpeg", "-i", "in.mp4", "out.mp4"},
		StartTime: time.Now().Add(-5 * time.Minute),
	}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassCaution, rec.Class)
}

func TestClassifyAgedFFmpegWithActiveHandleIsNeverSafe(t *testing.T) {
	p := procInfo{
		PID:       335,
		Argv:      []string{"/usr/bin/ffmpeg", "-i", "in.mp4", "out.mp4"},
		StartTime: time.Now().Add(-3 * time.Hour),
	}
	hasActive := func(pid int32) bool { return pid == 335 }
	rec := classify(p, testConfig(), time.Now(), hasActive)
	require.Equal(t, ClassCaution, rec.Class)
}

func TestClassifyOrphanedPythonSpawnMain(t *testing.T) {
	p := procInfo{
		PID:          336,
		Argv:         []string{"/usr/bin/python3", "-c", "from multiprocessing.spawn import spawn_main"},
		ParentExists: false,
	}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassSafeToKill, rec.Class)
}

func TestClassifyDefaultsToCaution(t *testing.T) {
	p := procInfo{PID: 400, Argv: []string{"/usr/bin/some-dev-server"}}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassCaution, rec.Class)
}

func TestClassifyProtectedRuleRunsFirst(t *testing.T) {
	// Even an aged ffmpeg process is protected if it happens to be self
	// (pathological, but the ordering must still hold).
	p := procInfo{
		PID:       100,
		Argv:      []string{"/usr/bin/ffmpeg"},
		StartTime: time.Now().Add(-3 * time.Hour),
	}
	rec := classify(p, testConfig(), time.Now(), nil)
	require.Equal(t, ClassProtected, rec.Class)
}
