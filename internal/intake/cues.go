package intake

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/komposer-mcp/komposer/internal/normalize"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

var (
	secondsRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:-|\s)?sec(?:ond)?s?\b`)
	bpmRe         = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*bpm\b`)
	segmentCountRe = regexp.MustCompile(`(\d+)\s*segments?\b`)
	portraitWords = []string{"portrait", "vertical", "tiktok", "reel", "shorts"}
	effectsWords  = []string{"effects-heavy", "effects heavy", "heavy effects", "fx-heavy"}
	multiSegWords = []string{"multi-segment", "multi segment"}
)

// defaultBPM is used when the brief names no explicit tempo.
const defaultBPM = 120.0

// extractedCues is the parsed set of parameters drawn from a free-text
// brief, before any catalog-dependent decisions (source selection, filter
// overrides) are made.
type extractedCues struct {
	timeoutmgr.Cues
	SegmentCount int
}

// extractCues scans brief for explicit duration, BPM, segment count,
// orientation, and complexity-class cues, per spec.md §4.7 step 1.
func extractCues(brief string) extractedCues {
	lower := strings.ToLower(brief)

	cues := extractedCues{}
	cues.BPM = defaultBPM
	if m := bpmRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			cues.BPM = v
		}
	}

	if m := secondsRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			cues.DurationS = v
		}
	}

	if m := segmentCountRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			cues.SegmentCount = n
		}
	}

	cues.Portrait = containsAny(lower, portraitWords)

	switch {
	case containsAny(lower, effectsWords):
		cues.Complexity = timeoutmgr.ComplexityEffectsHeavy
	case containsAny(lower, multiSegWords) || cues.SegmentCount > 4:
		cues.Complexity = timeoutmgr.ComplexityMultiSegment
	default:
		cues.Complexity = timeoutmgr.ComplexitySimple
	}

	if cues.DurationS == 0 && cues.SegmentCount == 0 {
		cues.Beats = 32 // a reasonable default phrase length absent any cue
	}

	return cues
}

// ExtractCues exposes the brief's duration/BPM/complexity/orientation cues
// for callers (estimate_processing_time) that want the Timeout Manager's
// cost model applied without running the rest of the pipeline.
func ExtractCues(brief string) timeoutmgr.Cues {
	return extractCues(brief).Cues
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// briefKeywordTokens splits brief into normalized tokens used for both
// source ranking and filter-keyword matching.
func briefKeywordTokens(brief string) []string {
	return normalize.Words(brief)
}
