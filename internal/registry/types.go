// Package registry tracks every file the kernel knows about: media dropped
// into the source root, intermediates produced mid-pipeline, and finished
// renders. It is the single source of truth mapping opaque file IDs to
// absolute, root-confined paths.
package registry

import "time"

// Kind is the content-sniffed category of a registered file.
type Kind string

const (
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindImage   Kind = "image"
	KindUnknown Kind = "unknown"
)

// Origin records how a file entered the registry.
type Origin string

const (
	OriginSource    Origin = "source"
	OriginGenerated Origin = "generated"
	OriginDownloaded Origin = "downloaded"
)

// Entry is one registered file: an opaque ID bound to a root-confined path.
type Entry struct {
	ID           string
	Path         string
	Root         string
	Kind         Kind
	Format       string
	SizeBytes    int64
	ModTime      time.Time
	RegisteredAt time.Time
	Origin       Origin

	// DurationSeconds is probed lazily; zero means "not yet probed".
	DurationSeconds float64
	durationProbed  bool
}

// Filter narrows a list() call.
type Filter struct {
	Kind Kind // zero value matches every kind
	Root string
}

func (f Filter) matches(e *Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Root != "" && e.Root != f.Root {
		return false
	}
	return true
}

// RescanResult reports what changed during rescan.
type RescanResult struct {
	Added   []string
	Removed []string
}
