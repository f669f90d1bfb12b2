package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/ffmpegops"
	"github.com/komposer-mcp/komposer/internal/intake"
	"github.com/komposer-mcp/komposer/internal/planexec"
	"github.com/komposer-mcp/komposer/internal/registry"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

// fakeCatalog adapts a fixed set of catalog entries to intake.SourceCatalog
// without going through a registry, mirroring planexec_test.go's
// fakeDispatcher pattern for isolating the pipeline's collaborators.
type fakeCatalog struct {
	videos []intake.CatalogEntry
	audio  []intake.CatalogEntry
}

func (c fakeCatalog) ListVideos() []intake.CatalogEntry { return c.videos }
func (c fakeCatalog) ListAudio() []intake.CatalogEntry  { return c.audio }

// videoServer wires a Server whose Intake pipeline can actually produce a
// komposition document that resolves against Registry: one registered
// video and one registered audio file, with a catalog naming the same IDs.
func videoServer(t *testing.T) *Server {
	t.Helper()
	reg := testRegistry(t)

	videoPath := filepath.Join(t.TempDir(), "intro.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake mp4"), 0o600))
	videoID, err := reg.Register(context.Background(), videoPath, registry.OriginSource)
	require.NoError(t, err)

	audioPath := filepath.Join(t.TempDir(), "music.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake mp3"), 0o600))
	audioID, err := reg.Register(context.Background(), audioPath, registry.OriginSource)
	require.NoError(t, err)

	catalog := fakeCatalog{
		videos: []intake.CatalogEntry{{ID: videoID, Name: "intro.mp4"}},
		audio:  []intake.CatalogEntry{{ID: audioID, Name: "music.mp3"}},
	}
	pipeline := intake.New(catalog, nil, intake.PresetEven, docFileResolver{reg: reg})

	return &Server{
		Config:     config.Load(),
		Registry:   reg,
		Intake:     pipeline,
		TimeoutMgr: timeoutmgr.New(15 * time.Minute),
	}
}

func TestCreateVideoFromDescriptionPlanOnlyCompilesWithoutExecuting(t *testing.T) {
	s := videoServer(t)

	res := s.CreateVideoFromDescription(context.Background(), "16 second landscape video", ModePlanOnly, timeoutmgr.QualityStandard)
	require.True(t, res.OK)
	require.NotNil(t, res.Value.Plan)
	require.NotEmpty(t, res.Value.Plan.Nodes)
	require.Equal(t, res.Value.Plan.Terminal, res.Value.Plan.Nodes[len(res.Value.Plan.Nodes)-1].ID)
	require.Empty(t, res.Value.OutputID)
	require.Greater(t, res.Value.TimeoutInfo.DeadlineS, 0.0)
}

// stubDispatcher implements planexec.Dispatcher without touching a shell
// or a real ffmpeg binary, the same isolation fakeDispatcher gives
// planexec's own tests.
type stubDispatcher struct {
	seq int
}

func (d *stubDispatcher) Run(ctx context.Context, op ffmpegops.OpName, inputIDs []string, params map[string]any, outputRoot string) (string, error) {
	d.seq++
	return fmt.Sprintf("file_stub_%d", d.seq), nil
}

func TestCreateVideoFromDescriptionFullModeExecutesPlan(t *testing.T) {
	s := videoServer(t)
	s.PlanExec = planexec.New(&stubDispatcher{}, s.Registry, config.DeleteIntermediates)

	res := s.CreateVideoFromDescription(context.Background(), "16 second landscape video", ModeFull, timeoutmgr.QualityStandard)
	require.True(t, res.OK)
	require.NotEmpty(t, res.Value.OutputID)
}

// slowDispatcher blocks past any reasonable deadline, so wrapping it in
// ExecuteWithTimeout's deadline (forced tiny via a custom CostModel below)
// reliably exercises the Timeout Manager's cancellation path end to end,
// mirroring spec.md §8 scenario S4.
type slowDispatcher struct{}

func (slowDispatcher) Run(ctx context.Context, op ffmpegops.OpName, inputIDs []string, params map[string]any, outputRoot string) (string, error) {
	select {
	case <-time.After(300 * time.Millisecond):
		return "file_too_slow", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestCreateVideoFromDescriptionTimesOutOnSlowPlanExecution(t *testing.T) {
	s := videoServer(t)
	s.PlanExec = planexec.New(slowDispatcher{}, s.Registry, config.DeleteIntermediates)
	s.Config.CostModel = config.CostModel{
		SimpleFactor:              1,
		EffectsHeavyFactor:        1,
		MultiSegmentFactor:        1,
		PortraitResolutionFactor:  1,
		LandscapeResolutionFactor: 1,
		QualityDraftFactor:        1,
		QualityStandardFactor:     1,
		QualityHighFactor:         1,
		MinDeadlineS:              0.05,
		MaxDeadlineS:              0.05,
		DeadlineMultiplier:        1,
	}

	res := s.CreateVideoFromDescription(context.Background(), "16 second landscape video", ModeFull, timeoutmgr.QualityStandard)
	require.False(t, res.OK)
	require.Empty(t, res.Value.OutputID)
}

func TestEstimateProcessingTimeThreadsQuality(t *testing.T) {
	s := &Server{Config: config.Load()}

	draft := s.EstimateProcessingTime("16 second video", ModePlanOnly, timeoutmgr.QualityDraft)
	high := s.EstimateProcessingTime("16 second video", ModePlanOnly, timeoutmgr.QualityHigh)

	require.True(t, draft.OK)
	require.True(t, high.OK)
	require.Less(t, draft.Value.EstimatedSeconds, high.Value.EstimatedSeconds)
}
