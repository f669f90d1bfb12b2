package ffmpegops

import (
	"fmt"
	"os"
	"strings"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/komposition"
)

// buildTrim slices [start, start+duration) out of a single input. By
// default it re-encodes so the cut lands exactly on the requested times;
// passing params["fast"]=true switches to stream copy, which is faster but
// only keyframe-accurate (start rounds down, duration rounds up to the
// nearest keyframe boundary, per the dispatcher's stated trim policy).
func buildTrim(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	start, err := requireFloat(params, "start")
	if err != nil {
		return nil, err
	}
	if start < 0 {
		return nil, apierr.Validation("start", "must be >= 0")
	}
	duration, err := requireFloat(params, "duration")
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, apierr.Validation("duration", "must be > 0")
	}

	argv := []string{ffmpegBin, "-y", "-ss", fmt.Sprintf("%g", start), "-i", inputs[0], "-t", fmt.Sprintf("%g", duration)}
	if boolParam(params, "fast", false) {
		argv = append(argv, "-c", "copy")
	} else {
		argv = append(argv, "-c:v", "libx264", "-preset", "fast", "-c:a", "aac")
	}
	return append(argv, outputPath), nil
}

// buildResize scales a single input to width x height under the requested
// fit policy: cover crops to fill, contain letterboxes, stretch ignores
// aspect ratio entirely.
func buildResize(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	width, err := requireInt(params, "width")
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, apierr.Validation("width", "must be > 0")
	}
	height, err := requireInt(params, "height")
	if err != nil {
		return nil, err
	}
	if height <= 0 {
		return nil, apierr.Validation("height", "must be > 0")
	}
	fit := Fit(stringParam(params, "fit", string(FitCover)))

	var vf string
	switch fit {
	case FitCover:
		vf = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", width, height, width, height)
	case FitContain:
		vf = fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black", width, height, width, height)
	case FitStretch:
		vf = fmt.Sprintf("scale=%d:%d", width, height)
	default:
		return nil, apierr.Validation("fit", fmt.Sprintf("unknown fit policy: %q", fit))
	}

	return []string{
		ffmpegBin, "-y", "-i", inputs[0], "-vf", vf,
		"-c:v", "libx264", "-preset", "fast", "-c:a", "aac",
		outputPath,
	}, nil
}

// canonicalConcatCanvas picks the normalization target described by the
// concat algorithmic notes: the largest landscape canvas (1920x1080 with
// letterbox-center) unless every input is portrait, in which case 1080x1920.
func canonicalConcatCanvas(allPortrait bool) (w, h int) {
	if allPortrait {
		return 1080, 1920
	}
	return 1920, 1080
}

// buildConcat joins two or more inputs in order. When normalize is true
// (the default, and the only safe choice absent proof every input shares
// resolution/fps/codec) each input is first scaled and padded onto a
// shared canonical canvas via filter_complex before concatenation, which
// necessarily re-encodes. When the caller has confirmed every input
// already shares SAR/PAR/fps/codec (normalize=false), concatenation goes
// through the concat demuxer with "-c copy" instead: no filter graph, no
// re-encode, per the §8 boundary behavior that same-format concat must not
// re-encode.
func buildConcat(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	if len(inputs) < 2 {
		return nil, apierr.Validation("inputs", "concat requires at least 2 inputs")
	}
	normalize := boolParam(params, "normalize", true)

	if !normalize {
		return buildConcatStreamCopy(ffmpegBin, inputs, outputPath)
	}

	allPortrait := boolParam(params, "all_portrait", false)
	w, h := canonicalConcatCanvas(allPortrait)

	argv := []string{ffmpegBin, "-y"}
	for _, in := range inputs {
		argv = append(argv, "-i", in)
	}

	filter := ""
	for i := range inputs {
		filter += fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1[v%d];",
			i, w, h, w, h, i)
		filter += fmt.Sprintf("[%d:a]aresample=async=1[a%d];", i, i)
	}
	for i := range inputs {
		filter += fmt.Sprintf("[v%d][a%d]", i, i)
	}
	filter += fmt.Sprintf("concat=n=%d:v=1:a=1[outv][outa]", len(inputs))

	argv = append(argv,
		"-filter_complex", filter,
		"-map", "[outv]", "-map", "[outa]",
		"-c:v", "libx264", "-preset", "fast", "-c:a", "aac",
		outputPath,
	)
	return argv, nil
}

// buildConcatStreamCopy joins inputs via ffmpeg's concat demuxer and
// "-c copy", the only concat path that never re-encodes. The demuxer reads
// its input list from a file rather than argv, so one is written to a temp
// file here; ffmpeg removes nothing from disk itself, so the dispatcher's
// normal temp-root bookkeeping is untouched — this list file is a plumbing
// artifact, never registered as an output.
func buildConcatStreamCopy(ffmpegBin string, inputs []string, outputPath string) ([]string, error) {
	listPath, err := writeConcatListFile(inputs)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindInternal, "failed to write concat list file", err)
	}
	return []string{
		ffmpegBin, "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy",
		outputPath,
	}, nil
}

// writeConcatListFile renders inputs as an ffmpeg concat-demuxer list
// ("file '<path>'" per line, with any single quote in path escaped per the
// demuxer's own quoting rule) and writes it to a fresh temp file, returning
// its path.
func writeConcatListFile(inputs []string) (string, error) {
	f, err := os.CreateTemp("", "komposer-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for _, in := range inputs {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(in, "'", `'\''`))
		b.WriteString("'\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// buildReplaceAudio drops the video's own audio track and mixes in the
// given audio file at music_volume, with optional fade in/out.
func buildReplaceAudio(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	video, audio := inputs[0], inputs[1]
	volume := floatParam(params, "music_volume", 0.8)
	if volume < 0 || volume > 1 {
		return nil, apierr.Validation("music_volume", "must be within [0,1]")
	}
	fadeIn := floatParam(params, "fade_in", 0)
	fadeOut := floatParam(params, "fade_out", 0)
	if fadeIn < 0 || fadeOut < 0 {
		return nil, apierr.Validation("fade_in/fade_out", "must be >= 0")
	}

	af := fmt.Sprintf("volume=%g", volume)
	if fadeIn > 0 {
		af += fmt.Sprintf(",afade=t=in:st=0:d=%g", fadeIn)
	}
	if fadeOut > 0 {
		af += fmt.Sprintf(",afade=t=out:d=%g", fadeOut)
	}

	return []string{
		ffmpegBin, "-y",
		"-i", video, "-i", audio,
		"-map", "0:v:0", "-map", "1:a:0",
		"-af", af,
		"-c:v", "copy", "-c:a", "aac",
		"-shortest",
		outputPath,
	}, nil
}

// buildExtractAudio pulls the audio stream out of a single input in the
// requested container format.
func buildExtractAudio(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	format := stringParam(params, "format", "flac")
	var codec string
	switch format {
	case "flac":
		codec = "flac"
	case "mp3":
		codec = "libmp3lame"
	case "aac":
		codec = "aac"
	default:
		return nil, apierr.Validation("format", fmt.Sprintf("unsupported audio format: %q", format))
	}
	return []string{ffmpegBin, "-y", "-i", inputs[0], "-vn", "-c:a", codec, outputPath}, nil
}

// buildApplyFilter wraps a single komposition.FilterSpec as a -vf chain,
// except FilterFade, which is audio/video agnostic and is applied via -af
// when the source carries no video stream worth filtering — callers pass
// is_audio_only to select that path.
func buildApplyFilter(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	rawFilter, ok := params["filter"]
	if !ok {
		return nil, apierr.Validation("filter", "is required")
	}
	spec, err := filterSpecFromAny(rawFilter)
	if err != nil {
		return nil, err
	}
	chain, err := ffmpegFilterString(spec)
	if err != nil {
		return nil, err
	}

	flag := "-vf"
	if spec.Type == komposition.FilterFade && boolParam(params, "is_audio_only", false) {
		flag = "-af"
	}

	return []string{
		ffmpegBin, "-y", "-i", inputs[0], flag, chain,
		"-c:v", "libx264", "-preset", "fast", "-c:a", "aac",
		outputPath,
	}, nil
}

// buildYouTubeEncode produces the terminal user-facing artifact: yuv420p
// pixel format, H.264 video, AAC audio, with the moov atom moved to the
// front of the file (faststart) for progressive playback.
func buildYouTubeEncode(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error) {
	return []string{
		ffmpegBin, "-y", "-i", inputs[0],
		"-pix_fmt", "yuv420p",
		"-c:v", "libx264", "-profile:v", "high", "-level", "4.2", "-preset", "medium", "-crf", "20",
		"-c:a", "aac", "-b:a", "192k", "-ar", "48000",
		"-maxrate", "12M", "-bufsize", "24M",
		"-movflags", "+faststart",
		outputPath,
	}, nil
}
