package timeoutmgr

import (
	"math"

	"github.com/komposer-mcp/komposer/internal/config"
)

// Cues are the signals the estimator extracts from a description or a
// compiled build plan before a task ever runs: either an explicit duration
// or a beat count plus BPM, an orientation, and a coarse complexity class.
type Cues struct {
	DurationS  float64 // explicit, if known
	Beats      int
	BPM        float64
	Portrait   bool
	Complexity Complexity
	Quality    Quality
}

// ResolvedDurationS returns the explicit duration if set, else derives one
// from beats/BPM*60, per spec.md §4.4.
func (c Cues) ResolvedDurationS() float64 {
	if c.DurationS > 0 {
		return c.DurationS
	}
	if c.BPM > 0 && c.Beats > 0 {
		return float64(c.Beats) / c.BPM * 60.0
	}
	return 0
}

// ComputeEstimate derives a cost and hard deadline from cues using model's
// tunable coefficients: cost_s = duration_s * complexity_factor *
// resolution_factor * quality_factor, then deadline = clamp(cost*multiplier,
// min, max).
func ComputeEstimate(cues Cues, model config.CostModel) Estimate {
	duration := cues.ResolvedDurationS()

	complexityFactor := model.SimpleFactor
	switch cues.Complexity {
	case ComplexityEffectsHeavy:
		complexityFactor = model.EffectsHeavyFactor
	case ComplexityMultiSegment:
		complexityFactor = model.MultiSegmentFactor
	}

	resolutionFactor := model.LandscapeResolutionFactor
	if cues.Portrait {
		resolutionFactor = model.PortraitResolutionFactor
	}

	qualityFactor := model.QualityStandardFactor
	switch cues.Quality {
	case QualityDraft:
		qualityFactor = model.QualityDraftFactor
	case QualityHigh:
		qualityFactor = model.QualityHighFactor
	}

	cost := duration * complexityFactor * resolutionFactor * qualityFactor
	deadline := math.Max(model.MinDeadlineS, math.Min(cost*model.DeadlineMultiplier, model.MaxDeadlineS))

	return Estimate{
		DurationS:  duration,
		Complexity: cues.Complexity,
		Quality:    cues.Quality,
		Portrait:   cues.Portrait,
		CostS:      cost,
		DeadlineS:  deadline,
	}
}
