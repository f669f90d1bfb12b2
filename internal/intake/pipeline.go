package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/komposition"
	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/metrics"
	"github.com/komposer-mcp/komposer/internal/normalize"
)

var errAdapterNotConfigured = errors.New("no AI adapter configured")

// Pipeline turns a free-text brief into a komposition document, optionally
// consulting an Adapter before falling back to the deterministic steps.
type Pipeline struct {
	Catalog SourceCatalog
	Adapter Adapter
	Preset  Preset
	Files   compiler.FileResolver // used to validate the adapter's proposal, if any
}

// New builds a Pipeline. adapter may be nil, in which case NullAdapter is
// used and the deterministic path always runs.
func New(catalog SourceCatalog, adapter Adapter, preset Preset, files compiler.FileResolver) *Pipeline {
	if adapter == nil {
		adapter = NullAdapter{}
	}
	return &Pipeline{Catalog: catalog, Adapter: adapter, Preset: preset, Files: files}
}

// Generate produces a komposition document from brief. It first tries the
// Adapter; the adapter's proposal must pass compiler.Validate or the
// pipeline falls back to the deterministic steps (spec.md §4.7: "failures
// fall back to the deterministic pipeline").
func (p *Pipeline) Generate(ctx context.Context, brief string) (komposition.Document, []string, error) {
	logger := log.WithComponent("intake")

	if doc, err := p.Adapter.Propose(ctx, brief, p.Catalog); err == nil {
		report := compiler.Validate(&doc, p.Files)
		if !report.Fatal() {
			return doc, nil, nil
		}
		metrics.AdapterFallbackTotal.WithLabelValues("invalid_proposal").Inc()
		logger.Warn().Msg("AI adapter proposal failed validation; falling back to deterministic intake")
	} else if !errors.Is(err, errAdapterNotConfigured) {
		metrics.AdapterFallbackTotal.WithLabelValues("adapter_error").Inc()
		logger.Warn().Err(err).Msg("AI adapter call failed; falling back to deterministic intake")
	}

	return p.generateDeterministic(brief)
}

func (p *Pipeline) generateDeterministic(brief string) (komposition.Document, []string, error) {
	var warnings []string

	cues := extractCues(brief)
	totalDuration := cues.ResolvedDurationS()

	videos := p.Catalog.ListVideos()
	if len(videos) == 0 {
		return komposition.Document{}, nil, apierr.Validation("sources", "no registered video files to build from")
	}
	ranked := rankByBrief(videos, brief)

	var audio *komposition.Audio
	if tracks := p.Catalog.ListAudio(); len(tracks) > 0 {
		best := rankByBrief(tracks, brief)[0]
		audio = &komposition.Audio{BackgroundMusic: best.ID, MusicVolume: 0.8}
	}

	roleShares := shares(p.Preset, cues.SegmentCount)
	segments := make([]komposition.Segment, 0, len(roleShares))
	var overrideKeywordSeen string
	for i, rs := range roleShares {
		src := ranked[i%len(ranked)]
		duration := totalDuration * rs.Fraction
		filters, kw := filtersFor(rs.Role, brief)
		if kw != "" {
			overrideKeywordSeen = kw
		}
		segments = append(segments, komposition.Segment{
			ID:          fmt.Sprintf("seg_%d", i+1),
			SourceRef:   src.ID,
			MusicalRole: rs.Role,
			Params:      komposition.SegmentParams{Start: 0, Duration: duration},
			Filters:     filters,
		})
	}

	if overrideKeywordSeen != "" {
		warnings = append(warnings, "brief keyword \""+overrideKeywordSeen+"\" overrode the default per-role filter presets")
	}

	doc := komposition.Document{
		Metadata: komposition.Metadata{
			Title:             "Untitled",
			BPM:               cues.BPM,
			TotalBeats:         int(cues.BPM * totalDuration / 60.0),
			EstimatedDuration: totalDuration,
		},
		Segments: segments,
		Audio:    audio,
	}

	return doc, warnings, nil
}

// rankByBrief orders catalog entries by how many of the brief's normalized
// tokens occur in the entry's name, highest score first, falling back to
// catalog order for entries that score zero (spec.md §4.7 step 2: "fall
// back to first N" when nothing matches).
func rankByBrief(entries []CatalogEntry, brief string) []CatalogEntry {
	tokens := briefKeywordTokens(brief)
	scored := make([]CatalogEntry, len(entries))
	copy(scored, entries)

	scores := make(map[string]int, len(entries))
	for _, e := range entries {
		scores[e.ID] = normalize.MatchScore(e.Name, tokens)
	}

	// stable sort by score desc, preserving catalog order among ties
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scores[scored[j].ID] > scores[scored[j-1].ID]; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}
	return scored
}
