// Package config loads the kernel's runtime configuration from the
// environment: every value has a sane default and every read is logged at
// debug level with its source.
package config

import (
	"path/filepath"
	"time"
)

// CleanupPolicy governs what happens to a timed-out plan's last successful
// intermediate file once the plan fails or is cancelled.
type CleanupPolicy string

const (
	// DeleteIntermediates removes any file registered during a non-terminal
	// operation's execution. This is the normative default.
	DeleteIntermediates CleanupPolicy = "delete"
	// RetainIntermediates keeps the last successful intermediate registered
	// so a client can inspect or resume from it.
	RetainIntermediates CleanupPolicy = "retain"
)

// CostModel holds the tunable coefficients the timeout manager's duration
// estimator uses to translate a build plan into a wall-clock deadline.
// Defaults are deliberately conservative; operators should validate them
// empirically against their own FFmpeg build and hardware.
type CostModel struct {
	// SimpleFactor, EffectsHeavyFactor, MultiSegmentFactor scale estimated
	// cost by complexity class.
	SimpleFactor       float64
	EffectsHeavyFactor float64
	MultiSegmentFactor float64

	// PortraitResolutionFactor and LandscapeResolutionFactor scale cost by
	// target orientation; portrait output costs more to encode.
	PortraitResolutionFactor  float64
	LandscapeResolutionFactor float64

	// QualityDraftFactor, QualityStandardFactor, QualityHighFactor scale
	// cost by the requested output quality.
	QualityDraftFactor    float64
	QualityStandardFactor float64
	QualityHighFactor     float64

	// MinDeadlineS and MaxDeadlineS bound the hard deadline derived from
	// the estimate: max(MinDeadlineS, min(estimate*DeadlineMultiplier, MaxDeadlineS)).
	MinDeadlineS       float64
	MaxDeadlineS       float64
	DeadlineMultiplier float64
}

// DefaultCostModel returns the kernel's default cost coefficients.
func DefaultCostModel() CostModel {
	return CostModel{
		SimpleFactor:              1.0,
		EffectsHeavyFactor:        1.8,
		MultiSegmentFactor:        1.4,
		PortraitResolutionFactor:  2.0,
		LandscapeResolutionFactor: 1.0,
		QualityDraftFactor:        0.6,
		QualityStandardFactor:     1.0,
		QualityHighFactor:         1.6,
		MinDeadlineS:              60,
		MaxDeadlineS:              1800,
		DeadlineMultiplier:        1.5,
	}
}

// WorkspaceRoots enumerates the workspace directories the registry scans
// and resolves files under.
type WorkspaceRoots struct {
	Source      string
	Temp        string
	Finished    string
	Metadata    string
	Screenshots string
}

// Roots returns the roots as a name->path map, keyed the way list()
// groups entries: by kind, then by name.
func (w WorkspaceRoots) Roots() map[string]string {
	return map[string]string{
		"source":      w.Source,
		"temp":        w.Temp,
		"finished":    w.Finished,
		"metadata":    w.Metadata,
		"screenshots": w.Screenshots,
	}
}

// Config is the kernel's full runtime configuration.
type Config struct {
	Workspace WorkspaceRoots

	FFmpegBin string
	CurlBin   string

	// MaxConcurrentProcesses bounds external process concurrency. Zero
	// means unbounded.
	MaxConcurrentProcesses int64

	// DefaultProcessDeadline bounds a single process_file call absent an
	// explicit deadline.
	DefaultProcessDeadline time.Duration

	// KillGrace and KillTimeout bound the soft-terminate/hard-kill sequence
	// applied to a runaway child process tree.
	KillGrace   time.Duration
	KillTimeout time.Duration

	// HandleRetentionWindow is how long a terminal operation handle stays
	// queryable via status() before it is pruned from the registry.
	HandleRetentionWindow time.Duration

	CostModel     CostModel
	CleanupPolicy CleanupPolicy

	// IntakePreset selects the named musical-role partition table used to
	// carve a target duration into segments.
	IntakePreset string

	// ZombieAgeThreshold is the minimum age of an orphaned FFmpeg process
	// before it is classified safe_to_kill.
	ZombieAgeThreshold time.Duration

	// ReservedPorts lists ports whose listening process is always
	// protected from zombie classification.
	ReservedPorts []int

	// SelfModuleName is matched against argv to identify and protect the
	// server's own process during zombie scans.
	SelfModuleName string

	// AIAdapterDailyBudget and AIAdapterCallTimeout bound the optional AI
	// adapter: a daily currency ceiling and a per-call timeout.
	AIAdapterDailyBudget float64
	AIAdapterCallTimeout time.Duration
}

// Load builds a Config from the environment, defaulting every value.
func Load() Config {
	dataDir := ParseString("KOMPOSER_DATA_DIR", "./workspace")

	return Config{
		Workspace: WorkspaceRoots{
			Source:      filepath.Join(dataDir, "source"),
			Temp:        filepath.Join(dataDir, "temp"),
			Finished:    filepath.Join(dataDir, "finished"),
			Metadata:    filepath.Join(dataDir, "metadata"),
			Screenshots: filepath.Join(dataDir, "screenshots"),
		},
		FFmpegBin:              ParseString("KOMPOSER_FFMPEG_BIN", "ffmpeg"),
		CurlBin:                ParseString("KOMPOSER_CURL_BIN", "curl"),
		MaxConcurrentProcesses: int64(ParseInt("KOMPOSER_MAX_CONCURRENT_PROCESSES", 4)),
		DefaultProcessDeadline: ParseDuration("KOMPOSER_DEFAULT_PROCESS_DEADLINE", 10*time.Minute),
		KillGrace:              ParseDuration("KOMPOSER_KILL_GRACE", 5*time.Second),
		KillTimeout:            ParseDuration("KOMPOSER_KILL_TIMEOUT", 10*time.Second),
		HandleRetentionWindow:  ParseDuration("KOMPOSER_HANDLE_RETENTION", 15*time.Minute),
		CostModel:              DefaultCostModel(),
		CleanupPolicy:          CleanupPolicy(ParseString("KOMPOSER_CLEANUP_POLICY", string(DeleteIntermediates))),
		IntakePreset:           ParseString("KOMPOSER_INTAKE_PRESET", "pop-4-part"),
		ZombieAgeThreshold:     ParseDuration("KOMPOSER_ZOMBIE_AGE_THRESHOLD", 2*time.Hour),
		ReservedPorts:          nil,
		SelfModuleName:         "komposer-mcp/komposer",
		AIAdapterDailyBudget:   ParseFloat("KOMPOSER_AI_DAILY_BUDGET", 0),
		AIAdapterCallTimeout:   ParseDuration("KOMPOSER_AI_CALL_TIMEOUT", 30*time.Second),
	}
}
