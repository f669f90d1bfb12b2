// Package ffmpegops is the closed registry of named FFmpeg operations the
// kernel dispatches against: trim, resize, concat, replace_audio,
// extract_audio, apply_filter, and the mandatory terminal
// youtube_recommended_encode. Every operation maps a params map to an argv
// slice; none of them ever touch a shell.
package ffmpegops

import "github.com/komposer-mcp/komposer/internal/apierr"

// OpName is the closed tag of a dispatchable operation.
type OpName string

const (
	OpTrim          OpName = "trim"
	OpResize        OpName = "resize"
	OpConcat        OpName = "concat"
	OpReplaceAudio  OpName = "replace_audio"
	OpExtractAudio  OpName = "extract_audio"
	OpApplyFilter   OpName = "apply_filter"
	OpYouTubeEncode OpName = "youtube_recommended_encode"
)

// Fit is the resize cropping policy.
type Fit string

const (
	FitCover   Fit = "cover"
	FitContain Fit = "contain"
	FitStretch Fit = "stretch"
)

// buildFunc builds the full argv (ffmpeg binary included at index 0) for
// one operation invocation, given its resolved absolute input paths and
// output path.
type buildFunc func(ffmpegBin string, inputs []string, outputPath string, params map[string]any) ([]string, error)

// operation is one entry of the closed operation table: its name, input
// arity, output extension, and argv builder.
type operation struct {
	name      OpName
	minInputs int
	outputExt func(params map[string]any) string
	build     buildFunc
}

var table = map[OpName]operation{
	OpTrim:          {name: OpTrim, minInputs: 1, outputExt: fixedExt(".mp4"), build: buildTrim},
	OpResize:        {name: OpResize, minInputs: 1, outputExt: fixedExt(".mp4"), build: buildResize},
	OpConcat:        {name: OpConcat, minInputs: 2, outputExt: fixedExt(".mp4"), build: buildConcat},
	OpReplaceAudio:  {name: OpReplaceAudio, minInputs: 2, outputExt: fixedExt(".mp4"), build: buildReplaceAudio},
	OpExtractAudio:  {name: OpExtractAudio, minInputs: 1, outputExt: extractAudioExt, build: buildExtractAudio},
	OpApplyFilter:   {name: OpApplyFilter, minInputs: 1, outputExt: fixedExt(".mp4"), build: buildApplyFilter},
	OpYouTubeEncode: {name: OpYouTubeEncode, minInputs: 1, outputExt: fixedExt(".mp4"), build: buildYouTubeEncode},
}

func fixedExt(ext string) func(map[string]any) string {
	return func(map[string]any) string { return ext }
}

func extractAudioExt(params map[string]any) string {
	switch stringParam(params, "format", "flac") {
	case "mp3":
		return ".mp3"
	case "aac":
		return ".aac"
	default:
		return ".flac"
	}
}

// Lookup returns the operation registered under name, or a ValidationError
// if name is not one of the closed set.
func Lookup(name OpName) (operation, error) {
	op, ok := table[name]
	if !ok {
		return operation{}, apierr.Validation("op_name", "unknown operation: "+string(name))
	}
	return op, nil
}

// Names lists every operation in the closed set, for introspection.
func Names() []OpName {
	names := make([]OpName, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	return names
}
