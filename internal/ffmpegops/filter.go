package ffmpegops

import (
	"fmt"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/komposition"
)

// filterSpecFromAny accepts either a komposition.FilterSpec (the shape the
// plan executor passes through) or a decoded JSON map (the shape a direct
// process_file("apply_filter", ...) call passes through) and normalizes
// both into a komposition.FilterSpec.
func filterSpecFromAny(v any) (komposition.FilterSpec, error) {
	switch f := v.(type) {
	case komposition.FilterSpec:
		return f, nil
	case map[string]any:
		spec := komposition.FilterSpec{
			Type:         komposition.FilterKind(stringParam(f, "type", "")),
			Radius:       floatParam(f, "radius", 0),
			In:           floatParam(f, "in", 0),
			Out:          floatParam(f, "out", 0),
			FFmpegFilter: stringParam(f, "ffmpeg_filter", ""),
		}
		if params, ok := f["params"].(map[string]any); ok {
			spec.Params = params
		}
		return spec, nil
	default:
		return komposition.FilterSpec{}, apierr.Validation("filter", "missing or malformed filter spec")
	}
}

// ffmpegFilterString renders a single -vf/-af compatible filter chain
// fragment for one filter spec. Every escape hatch through FilterCustom is
// sanitized with the same rules the compiler enforces at plan-compile time
// — apply_filter can be invoked directly via process_file, bypassing the
// compiler entirely, so the dispatcher must re-check it here.
func ffmpegFilterString(f komposition.FilterSpec) (string, error) {
	switch f.Type {
	case komposition.FilterBlur:
		if f.Radius <= 0 {
			return "", apierr.Validation("radius", "blur radius must be > 0")
		}
		return fmt.Sprintf("gblur=sigma=%g", f.Radius), nil
	case komposition.FilterFade:
		if f.In < 0 || f.Out < 0 {
			return "", apierr.Validation("in/out", "fade in/out must be >= 0")
		}
		parts := ""
		if f.In > 0 {
			parts += fmt.Sprintf("fade=t=in:st=0:d=%g", f.In)
		}
		if f.Out > 0 {
			if parts != "" {
				parts += ","
			}
			parts += fmt.Sprintf("fade=t=out:d=%g", f.Out)
		}
		if parts == "" {
			return "null", nil
		}
		return parts, nil
	case komposition.FilterCustom:
		if err := compiler.SanitizeCustomFilter(f.FFmpegFilter); err != nil {
			return "", apierr.New(apierr.KindValidation, err.Error()).WithField("ffmpeg_filter")
		}
		return f.FFmpegFilter, nil
	case komposition.FilterColor:
		return colorFilterString(f.Params)
	default:
		return "", apierr.Validation("type", fmt.Sprintf("unknown filter type: %q", f.Type))
	}
}

func colorFilterString(params map[string]any) (string, error) {
	preset := stringParam(params, "preset", "")
	switch preset {
	case "vintage":
		return "curves=vintage,vignette", nil
	case "dreamy":
		return "gblur=sigma=3,eq=brightness=0.05:saturation=0.85", nil
	case "dramatic":
		return "eq=contrast=1.3:saturation=1.2", nil
	case "dark":
		return "eq=brightness=-0.12:contrast=1.1", nil
	case "bright":
		return "eq=brightness=0.12:saturation=1.1", nil
	default:
		return "", apierr.Validation("params.preset", fmt.Sprintf("unknown color preset: %q", preset))
	}
}
