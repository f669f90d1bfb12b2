package planexec

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/ffmpegops"
)

type fakeDispatcher struct {
	calls     []string
	failOn    string
	seq       int
}

func (f *fakeDispatcher) Run(ctx context.Context, op ffmpegops.OpName, inputIDs []string, params map[string]any, outputRoot string) (string, error) {
	f.calls = append(f.calls, string(op))
	if f.failOn != "" && string(op) == f.failOn {
		return "", errors.New("boom")
	}
	f.seq++
	return fmt.Sprintf("file_%d", f.seq), nil
}

type fakeFiles struct {
	unregistered []string
}

func (f *fakeFiles) Unregister(id string) error {
	f.unregistered = append(f.unregistered, id)
	return nil
}

func samplePlan() *compiler.Plan {
	return &compiler.Plan{
		Nodes: []compiler.Node{
			{ID: "trim_1", Op: compiler.OpTrim, Inputs: []string{"id_v1"}, Produces: compiler.Produces{Name: "trim_1", Ext: ".mp4"}, EstimatedCostS: 2},
			{ID: "trim_2", Op: compiler.OpTrim, Inputs: []string{"id_v2"}, Produces: compiler.Produces{Name: "trim_2", Ext: ".mp4"}, EstimatedCostS: 2},
			{ID: "concat_1", Op: compiler.OpConcat, Inputs: []string{"trim_1", "trim_2"}, Produces: compiler.Produces{Name: "concat_1", Ext: ".mp4"}, EstimatedCostS: 4},
			{ID: "encode_1", Op: compiler.OpYouTubeEncode, Inputs: []string{"concat_1"}, Produces: compiler.Produces{Name: "encode_1", Ext: ".mp4"}, EstimatedCostS: 4},
		},
		Terminal: "encode_1",
	}
}

func TestExecuteChainsNodeOutputsAsInputs(t *testing.T) {
	d := &fakeDispatcher{}
	files := &fakeFiles{}
	exec := New(d, files, config.DeleteIntermediates)

	result, err := exec.Execute(context.Background(), samplePlan(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.OutputID)
	require.Equal(t, []string{"trim", "trim", "concat", "youtube_recommended_encode"}, d.calls)
	require.Len(t, result.Produced, 4)
	require.Equal(t, result.Produced[3], result.OutputID)
}

func TestExecuteFailsFastAndDiscardsIntermediates(t *testing.T) {
	d := &fakeDispatcher{failOn: "concat"}
	files := &fakeFiles{}
	exec := New(d, files, config.DeleteIntermediates)

	result, err := exec.Execute(context.Background(), samplePlan(), nil)
	require.Error(t, err)
	require.Empty(t, result.OutputID)
	require.Equal(t, []string{"trim", "trim", "concat"}, d.calls)
	require.Len(t, files.unregistered, 2) // the two trim outputs, not the failed concat
}

func TestExecuteRetainsIntermediatesWhenPolicySaysRetain(t *testing.T) {
	d := &fakeDispatcher{failOn: "concat"}
	files := &fakeFiles{}
	exec := New(d, files, config.RetainIntermediates)

	_, err := exec.Execute(context.Background(), samplePlan(), nil)
	require.Error(t, err)
	require.Empty(t, files.unregistered)
}

func TestExecuteRespectsCancellation(t *testing.T) {
	d := &fakeDispatcher{}
	files := &fakeFiles{}
	exec := New(d, files, config.DeleteIntermediates)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, samplePlan(), nil)
	require.Error(t, err)
	require.Empty(t, d.calls)
}

func TestExecuteEmitsProgressEvents(t *testing.T) {
	d := &fakeDispatcher{}
	files := &fakeFiles{}
	exec := New(d, files, config.DeleteIntermediates)

	var events []ProgressEvent
	_, err := exec.Execute(context.Background(), samplePlan(), func(e ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, events, 8) // start+end per node, 4 nodes
}
