package intake

import (
	"strings"

	"github.com/komposer-mcp/komposer/internal/komposition"
)

// roleFilterPresets is the fixed role->filter-preset map spec.md §4.7 step
// 5 describes: each musical role gets a mild default treatment.
var roleFilterPresets = map[komposition.MusicalRole]komposition.FilterSpec{
	komposition.RoleIntro:   {Type: komposition.FilterFade, In: 1.0},
	komposition.RoleVerse:   {},
	komposition.RoleRefrain: {Type: komposition.FilterColor, Params: map[string]any{"preset": "dramatic"}},
	komposition.RoleOutro:   {Type: komposition.FilterFade, Out: 1.5},
}

// overrideKeywords maps a brief keyword to the color preset it forces onto
// every segment, overriding the per-role default. Recognized per spec.md
// §4.7 step 5: "dark", "bright", "vintage", "dreamy", "dramatic". Checked
// in this fixed order so a brief naming more than one keyword is resolved
// deterministically (first match wins).
var overrideKeywords = []struct{ keyword, preset string }{
	{"vintage", "vintage"},
	{"dreamy", "dreamy"},
	{"dramatic", "dramatic"},
	{"dark", "dark"},
	{"bright", "bright"},
}

// filtersFor returns the filter list for role, after checking brief for a
// recognized override keyword. Returns the matched keyword (empty if none)
// so the caller can record which override fired; unrecognized adjectives
// are simply not present in overrideKeywords and are silently ignored, per
// spec.md §4.7 step 5 ("Unknown keywords are ignored with a warning" — the
// warning is surfaced by the caller via ValidationReport-style Warnings).
func filtersFor(role komposition.MusicalRole, brief string) ([]komposition.FilterSpec, string) {
	lower := strings.ToLower(brief)
	for _, o := range overrideKeywords {
		if strings.Contains(lower, o.keyword) {
			return []komposition.FilterSpec{{Type: komposition.FilterColor, Params: map[string]any{"preset": o.preset}}}, o.keyword
		}
	}

	def, ok := roleFilterPresets[role]
	if !ok || def.Type == "" {
		return nil, ""
	}
	return []komposition.FilterSpec{def}, ""
}
