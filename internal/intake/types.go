// Package intake turns a free-text brief plus the file registry's catalog
// into a komposition document: it extracts duration/BPM/orientation cues,
// ranks candidate sources by keyword match, partitions the target duration
// into musically-named segments, and attaches a filter preset per segment.
// An optional Adapter may replace the partition/filter steps with a model
// call; its output must still pass compiler validation or the pipeline
// falls back to the deterministic steps.
package intake

import (
	"context"

	"github.com/komposer-mcp/komposer/internal/komposition"
)

// SourceCatalog is the subset of the registry the intake pipeline needs:
// the list of known video and audio files to choose from.
type SourceCatalog interface {
	ListVideos() []CatalogEntry
	ListAudio() []CatalogEntry
}

// CatalogEntry is the slice of a registry.Entry the intake pipeline cares
// about: its ID and a name to match brief keywords against.
type CatalogEntry struct {
	ID   string
	Name string
}

// Adapter is the narrow contract an optional AI backend implements to
// replace the deterministic partition/filter steps. Concrete network
// adapters are external collaborators; this package ships only the
// interface and a NullAdapter.
type Adapter interface {
	Propose(ctx context.Context, brief string, catalog SourceCatalog) (komposition.Document, error)
}

// NullAdapter always fails, so the deterministic pipeline is the only path
// exercised unless a real adapter is wired in by the caller.
type NullAdapter struct{}

func (NullAdapter) Propose(ctx context.Context, brief string, catalog SourceCatalog) (komposition.Document, error) {
	return komposition.Document{}, errAdapterNotConfigured
}
