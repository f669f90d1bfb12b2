// Package compiler validates komposition documents and compiles them into
// an executable build-plan DAG.
package compiler

import (
	"fmt"
	"math"

	"github.com/komposer-mcp/komposer/internal/komposition"
)

// ValidationIssue is one structural, semantic, referential, or numeric
// problem found while validating a komposition document.
type ValidationIssue struct {
	Field   string
	Message string
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidationReport accumulates every issue found during validation.
// Warnings never abort compilation; errors do.
type ValidationReport struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

func (r *ValidationReport) addError(field, format string, args ...any) {
	r.Errors = append(r.Errors, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationReport) addWarning(field, format string, args ...any) {
	r.Warnings = append(r.Warnings, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Fatal reports whether the report contains at least one error.
func (r *ValidationReport) Fatal() bool {
	return len(r.Errors) > 0
}

// FileResolver is the subset of the registry that the compiler needs: a
// way to check that a sourceRef is a file the kernel actually knows about.
type FileResolver interface {
	Resolve(id string) (string, error)
}

const durationEpsilon = 0.01 // 10ms, per the estimatedDuration invariant

// Validate runs structural, semantic, referential, and numeric checks over
// doc and returns the accumulated report. A non-fatal report (no Errors)
// means Compile may proceed.
func Validate(doc *komposition.Document, files FileResolver) ValidationReport {
	var report ValidationReport

	validateStructure(doc, &report)
	validateSemantics(doc, &report)
	if files != nil {
		validateReferences(doc, files, &report)
	}
	validateNumerics(doc, &report)

	return report
}

func validateStructure(doc *komposition.Document, report *ValidationReport) {
	if len(doc.Segments) == 0 {
		report.addError("segments", "komposition must declare at least one segment")
	}
	for i, seg := range doc.Segments {
		if seg.SourceRef == "" {
			report.addError(fmt.Sprintf("segments[%d].sourceRef", i), "sourceRef is required")
		}
		if seg.ID == "" {
			report.addError(fmt.Sprintf("segments[%d].id", i), "id is required")
		}
	}
}

func validateSemantics(doc *komposition.Document, report *ValidationReport) {
	if doc.Metadata.BPM <= 0 {
		report.addError("metadata.bpm", "bpm must be > 0, got %v", doc.Metadata.BPM)
	}
	if doc.Metadata.TotalBeats <= 0 {
		report.addError("metadata.totalBeats", "totalBeats must be positive, got %d", doc.Metadata.TotalBeats)
	}

	if doc.Metadata.BPM > 0 && doc.Metadata.TotalBeats > 0 {
		expected := float64(doc.Metadata.TotalBeats) / doc.Metadata.BPM * 60.0
		if math.Abs(expected-doc.Metadata.EstimatedDuration) > expected*0.05+durationEpsilon {
			report.addWarning("metadata.estimatedDuration",
				"estimatedDuration %.3fs is inconsistent with totalBeats/bpm (expected ~%.3fs)",
				doc.Metadata.EstimatedDuration, expected)
		}
	}

	for i, seg := range doc.Segments {
		if seg.Params.Duration <= 0 {
			report.addError(fmt.Sprintf("segments[%d].params.duration", i), "duration must be > 0")
		}
		if seg.Params.Start < 0 {
			report.addError(fmt.Sprintf("segments[%d].params.start", i), "start must be >= 0")
		}
	}

	if doc.Audio != nil {
		if doc.Audio.MusicVolume < 0 || doc.Audio.MusicVolume > 1 {
			report.addError("audio.musicVolume", "musicVolume must be within [0,1], got %v", doc.Audio.MusicVolume)
		}
	}

	sum := 0.0
	for _, seg := range doc.Segments {
		sum += seg.Params.Duration
	}
	if doc.Metadata.EstimatedDuration > 0 {
		if math.Abs(sum-doc.Metadata.EstimatedDuration) > durationEpsilon {
			report.addError("segments", "sum(segment.duration)=%.3f does not match metadata.estimatedDuration=%.3f",
				sum, doc.Metadata.EstimatedDuration)
		}
	}
}

func validateReferences(doc *komposition.Document, files FileResolver, report *ValidationReport) {
	for i, seg := range doc.Segments {
		if seg.SourceRef == "" {
			continue
		}
		if _, err := files.Resolve(seg.SourceRef); err != nil {
			report.addError(fmt.Sprintf("segments[%d].sourceRef", i), "does not resolve to a registered file: %s", seg.SourceRef)
		}
	}
	if doc.Audio != nil && doc.Audio.BackgroundMusic != "" {
		if _, err := files.Resolve(doc.Audio.BackgroundMusic); err != nil {
			report.addError("audio.backgroundMusic", "does not resolve to a registered file: %s", doc.Audio.BackgroundMusic)
		}
	}
}

func validateNumerics(doc *komposition.Document, report *ValidationReport) {
	for i, seg := range doc.Segments {
		for j, f := range seg.Filters {
			validateFilterParams(fmt.Sprintf("segments[%d].filters[%d]", i, j), f, report)
		}
	}
	for i, f := range doc.GlobalFilters {
		validateFilterParams(fmt.Sprintf("global_filters[%d]", i), f, report)
	}
}

func validateFilterParams(field string, f komposition.FilterSpec, report *ValidationReport) {
	switch f.Type {
	case komposition.FilterBlur:
		if f.Radius <= 0 {
			report.addError(field+".radius", "blur radius must be > 0")
		}
	case komposition.FilterFade:
		if f.In < 0 || f.Out < 0 {
			report.addError(field, "fade in/out must be >= 0")
		}
	case komposition.FilterCustom:
		if err := SanitizeCustomFilter(f.FFmpegFilter); err != nil {
			report.addError(field+".ffmpeg_filter", err.Error())
		}
	case komposition.FilterColor:
		// params is a free-form map; nothing to range-check generically.
	default:
		report.addError(field+".type", "unknown filter type: %q", f.Type)
	}
}
