package intake

import "github.com/komposer-mcp/komposer/internal/komposition"

// rolePartition is one entry of a named musical-role partition table: the
// fraction of total duration this role occupies, in declared order.
type roleShare struct {
	Role     komposition.MusicalRole
	Fraction float64
}

// Preset names the musical-role partition table used to carve a target
// duration into segments. Exposed as a named set per the Open Question in
// spec.md §9 — the exact fractions are not fixed by any single authority.
type Preset string

const (
	// PresetPop4Part is the default: a 4-segment intro/verse/refrain/outro
	// shape weighted toward the verse and refrain.
	PresetPop4Part Preset = "pop-4-part"
	// PresetEven splits the target duration into N equal segments, cycling
	// through the four musical roles.
	PresetEven Preset = "even"
)

var pop4Part = []roleShare{
	{Role: komposition.RoleIntro, Fraction: 0.125},
	{Role: komposition.RoleVerse, Fraction: 0.375},
	{Role: komposition.RoleRefrain, Fraction: 0.375},
	{Role: komposition.RoleOutro, Fraction: 0.125},
}

var roleCycle = []komposition.MusicalRole{
	komposition.RoleIntro, komposition.RoleVerse, komposition.RoleRefrain, komposition.RoleOutro,
}

// shares returns the role/fraction table for preset and segmentCount.
// PresetPop4Part always yields its fixed 4-entry table; PresetEven yields
// segmentCount equal entries cycling through the four roles. Unknown
// presets fall back to PresetPop4Part.
func shares(preset Preset, segmentCount int) []roleShare {
	switch preset {
	case PresetEven:
		if segmentCount < 1 {
			segmentCount = 4
		}
		out := make([]roleShare, segmentCount)
		frac := 1.0 / float64(segmentCount)
		for i := range out {
			out[i] = roleShare{Role: roleCycle[i%len(roleCycle)], Fraction: frac}
		}
		return out
	default:
		return pop4Part
	}
}
