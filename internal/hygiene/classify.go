package hygiene

import (
	"strings"
	"time"
)

// procInfo is the process-table information the classifier needs, sourced
// from gopsutil/v3/process by the Scanner.
type procInfo struct {
	PID          int32
	PPID         int32
	Argv         []string
	CPUPercent   float64
	StartTime    time.Time
	ParentExists bool
	ListenPorts  []int
}

// Config holds the thresholds and identifiers the classifier needs to tell
// self, reserved ports, and aged ffmpeg workers apart.
type Config struct {
	SelfPID            int32
	SelfModuleName     string
	ReservedPorts      map[int]bool
	ZombieAgeThreshold time.Duration
}

// activeOpChecker reports whether pid is still referenced by a live
// operation handle — such a process is never safe_to_kill regardless of
// its age.
type activeOpChecker func(pid int32) bool

// classify runs the ordered rule list against p, first match wins. The
// protected rule always runs first, per the REDESIGN FLAGS mandate.
func classify(p procInfo, cfg Config, now time.Time, hasActiveOp activeOpChecker) Record {
	rec := Record{PID: p.PID, Argv: p.Argv, CPUPercent: p.CPUPercent, StartTime: p.StartTime}

	if isProtected(p, cfg) {
		rec.Class = ClassProtected
		rec.Reason = protectedReason(p, cfg)
		return rec
	}

	if isSafeToKill(p, cfg, now, hasActiveOp) {
		rec.Class = ClassSafeToKill
		rec.Reason = safeToKillReason(p, cfg, now)
		return rec
	}

	rec.Class = ClassCaution
	rec.Reason = "unclassified process of potential interest"
	return rec
}

func isProtected(p procInfo, cfg Config) bool {
	if p.PID == cfg.SelfPID {
		return true
	}
	if cfg.SelfModuleName != "" && argvContains(p.Argv, cfg.SelfModuleName) {
		return true
	}
	for _, port := range p.ListenPorts {
		if cfg.ReservedPorts[port] {
			return true
		}
	}
	return false
}

func protectedReason(p procInfo, cfg Config) string {
	if p.PID == cfg.SelfPID {
		return "this is the server's own process"
	}
	if argvContains(p.Argv, cfg.SelfModuleName) {
		return "argv names the server module"
	}
	return "process listens on a reserved port"
}

func isSafeToKill(p procInfo, cfg Config, now time.Time, hasActiveOp activeOpChecker) bool {
	if hasActiveOp != nil && hasActiveOp(p.PID) {
		return false
	}

	if isFFmpeg(p.Argv) {
		age := now.Sub(p.StartTime)
		return age >= cfg.ZombieAgeThreshold
	}

	if isPythonSpawnMain(p.Argv) && !p.ParentExists {
		return true
	}

	return false
}

func safeToKillReason(p procInfo, cfg Config, now time.Time) string {
	if isFFmpeg(p.Argv) {
		return "orphaned ffmpeg process older than the configured zombie age threshold"
	}
	return "python multiprocessing spawn_main child with no live parent"
}

func isFFmpeg(argv []string) bool {
	if len(argv) == 0 {
		return false
	}
	base := argv[0]
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	return strings.Contains(strings.ToLower(base), "ffmpeg")
}

func isPythonSpawnMain(argv []string) bool {
	joined := strings.ToLower(strings.Join(argv, " "))
	return strings.Contains(joined, "spawn_main")
}

func argvContains(argv []string, needle string) bool {
	if needle == "" {
		return false
	}
	joined := strings.ToLower(strings.Join(argv, " "))
	return strings.Contains(joined, strings.ToLower(needle))
}
