// Package komposition defines the user-facing document that describes a
// music-video assembly: ordered segments cut from registered source files,
// an optional background track, and the filters applied along the way.
package komposition

// MusicalRole tags a segment's structural position in the arrangement.
type MusicalRole string

const (
	RoleIntro   MusicalRole = "intro"
	RoleVerse   MusicalRole = "verse"
	RoleRefrain MusicalRole = "refrain"
	RoleOutro   MusicalRole = "outro"
)

// Metadata carries the document's top-level musical parameters.
type Metadata struct {
	Title             string  `json:"title"`
	BPM               float64 `json:"bpm"`
	TotalBeats         int     `json:"totalBeats"`
	EstimatedDuration float64 `json:"estimatedDuration"`
}

// SegmentParams is a segment's source window.
type SegmentParams struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Segment is one ordered slice of the assembled video.
type Segment struct {
	ID          string       `json:"id"`
	SourceRef   string       `json:"sourceRef"`
	MusicalRole MusicalRole  `json:"musical_role"`
	Params      SegmentParams `json:"params"`
	Filters     []FilterSpec `json:"filters,omitempty"`
}

// Audio configures the background music track, if any.
type Audio struct {
	BackgroundMusic string  `json:"backgroundMusic"`
	MusicVolume     float64 `json:"musicVolume"`
}

// Document is the full user-facing komposition JSON document. Unknown
// top-level fields encountered on decode are preserved in Extra so they
// round-trip unchanged.
type Document struct {
	Metadata       Metadata       `json:"metadata"`
	Segments       []Segment      `json:"segments"`
	Audio          *Audio         `json:"audio,omitempty"`
	GlobalFilters  []FilterSpec   `json:"global_filters,omitempty"`
	EffectsTree    map[string]any `json:"effects_tree,omitempty"`
	Extra          map[string]any `json:"-"`
}

// FilterKind is the closed tag of a filter specification's variant.
type FilterKind string

const (
	FilterBlur   FilterKind = "blur"
	FilterFade   FilterKind = "fade"
	FilterCustom FilterKind = "custom"
	FilterColor  FilterKind = "color"
)

// FilterSpec is a tagged-variant filter description. Only the fields
// relevant to Kind are populated; the rest are left zero.
type FilterSpec struct {
	Type FilterKind `json:"type"`

	// FilterBlur
	Radius float64 `json:"radius,omitempty"`

	// FilterFade
	In  float64 `json:"in,omitempty"`
	Out float64 `json:"out,omitempty"`

	// FilterCustom — the narrow, sanitized escape hatch.
	FFmpegFilter string `json:"ffmpeg_filter,omitempty"`

	// FilterColor
	Params map[string]any `json:"params,omitempty"`
}
