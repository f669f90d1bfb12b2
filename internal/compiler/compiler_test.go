package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/komposition"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(id string) (string, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return "", errNotFound
}

var errNotFound = fakeErr("not found")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

func sampleDoc() *komposition.Document {
	return &komposition.Document{
		Metadata: komposition.Metadata{BPM: 120, TotalBeats: 32, EstimatedDuration: 16.0},
		Segments: []komposition.Segment{
			{ID: "s1", SourceRef: "id_v1", Params: komposition.SegmentParams{Start: 0, Duration: 4}},
			{ID: "s2", SourceRef: "id_v2", Params: komposition.SegmentParams{Start: 0, Duration: 4}},
			{ID: "s3", SourceRef: "id_v1", Params: komposition.SegmentParams{Start: 5, Duration: 4}},
			{ID: "s4", SourceRef: "id_v1", Params: komposition.SegmentParams{Start: 10, Duration: 4}},
		},
		Audio: &komposition.Audio{BackgroundMusic: "id_a", MusicVolume: 0.8},
	}
}

func sampleResolver() fakeResolver {
	return fakeResolver{"id_v1": "/source/v1.mp4", "id_v2": "/source/v2.mp4", "id_a": "/source/a.mp3"}
}

func TestValidateAcceptsWellFormedDoc(t *testing.T) {
	report := Validate(sampleDoc(), sampleResolver())
	require.False(t, report.Fatal(), "errors: %v", report.Errors)
}

func TestValidateRejectsZeroDuration(t *testing.T) {
	doc := sampleDoc()
	doc.Segments[0].Params.Duration = 0
	report := Validate(doc, sampleResolver())
	require.True(t, report.Fatal())
}

func TestValidateRejectsNonPositiveBPM(t *testing.T) {
	doc := sampleDoc()
	doc.Metadata.BPM = 0
	report := Validate(doc, sampleResolver())
	require.True(t, report.Fatal())
}

func TestValidateRejectsUnresolvedSourceRef(t *testing.T) {
	doc := sampleDoc()
	doc.Segments[0].SourceRef = "id_missing"
	report := Validate(doc, sampleResolver())
	require.True(t, report.Fatal())
}

func TestValidateRejectsInjectionInCustomFilter(t *testing.T) {
	doc := sampleDoc()
	doc.Segments[0].Filters = []komposition.FilterSpec{
		{Type: komposition.FilterCustom, FFmpegFilter: "-vf eq=brightness=0.1; rm -rf /"},
	}
	report := Validate(doc, sampleResolver())
	require.True(t, report.Fatal())
}

func TestCompileProducesExpectedTopology(t *testing.T) {
	plan, report := Compile(sampleDoc(), sampleResolver())
	require.False(t, report.Fatal())
	require.NotNil(t, plan)

	var trims, concats, replaces, encodes int
	for _, n := range plan.Nodes {
		switch n.Op {
		case OpTrim:
			trims++
		case OpConcat:
			concats++
		case OpReplaceAudio:
			replaces++
		case OpYouTubeEncode:
			encodes++
		}
	}
	require.Equal(t, 4, trims)
	require.Equal(t, 1, concats)
	require.Equal(t, 1, replaces)
	require.Equal(t, 1, encodes)
	require.Equal(t, plan.Terminal, plan.Nodes[len(plan.Nodes)-1].ID)
}

func TestCompileAbortsOnFatalValidation(t *testing.T) {
	doc := sampleDoc()
	doc.Metadata.BPM = -1
	plan, report := Compile(doc, sampleResolver())
	require.True(t, report.Fatal())
	require.Nil(t, plan)
}

// TestCompileIsDeterministic guards an invariant the executor depends on:
// compiling the same document twice must produce the identical node order,
// since planexec's progress reporting and cleanup bookkeeping are both
// keyed by node position.
func TestCompileIsDeterministic(t *testing.T) {
	doc := sampleDoc()
	planA, reportA := Compile(doc, sampleResolver())
	planB, reportB := Compile(doc, sampleResolver())
	require.False(t, reportA.Fatal())
	require.False(t, reportB.Fatal())

	if diff := cmp.Diff(planA, planB); diff != "" {
		t.Errorf("Compile is not deterministic (-first +second):\n%s", diff)
	}
}
