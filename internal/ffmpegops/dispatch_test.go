package ffmpegops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/execx"
	"github.com/komposer-mcp/komposer/internal/registry"
)

// fakeFiles is a minimal in-memory stand-in for the registry, enough to
// drive the dispatcher's resolving_inputs / registering_output stages.
type fakeFiles struct {
	dir     string
	byID    map[string]string
	nextID  int
}

func newFakeFiles(dir string) *fakeFiles {
	return &fakeFiles{dir: dir, byID: map[string]string{}}
}

func (f *fakeFiles) Resolve(id string) (string, error) {
	p, ok := f.byID[id]
	if !ok {
		return "", os.ErrNotExist
	}
	return p, nil
}

func (f *fakeFiles) DeriveOutputPath(baseName, ext, rootName string) (string, error) {
	return filepath.Join(f.dir, baseName+ext), nil
}

func (f *fakeFiles) Register(ctx context.Context, path string, origin registry.Origin) (string, error) {
	f.nextID++
	id := "file_test_" + string(rune('a'+f.nextID))
	f.byID[id] = path
	return id, nil
}

func (f *fakeFiles) put(id, path string) { f.byID[id] = path }

// shimFFmpeg points FFmpegBin at a tiny shell script that, instead of
// actually transcoding, just writes a marker file at its last argv
// element — enough to exercise the dispatcher's state machine without an
// actual ffmpeg binary on PATH.
func shimFFmpeg(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	contents := "#!/bin/sh\nfor a; do :; done\ntouch \"$a\"\n"
	require.NoError(t, os.WriteFile(script, []byte(contents), 0o755))
	return script
}

func TestDispatcherRunTrimProducesAndRegistersOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.mp4")
	require.NoError(t, os.WriteFile(in, []byte("fake"), 0o644))

	files := newFakeFiles(dir)
	files.put("file_in", in)

	d := New(files, execx.New(0, 0, 0), shimFFmpeg(t))
	id, err := d.Run(context.Background(), OpTrim, []string{"file_in"}, map[string]any{"start": 0.0, "duration": 4.0}, "temp")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	out, err := files.Resolve(id)
	require.NoError(t, err)
	_, statErr := os.Stat(out)
	require.NoError(t, statErr)
}

func TestDispatcherRunRejectsUnknownOp(t *testing.T) {
	files := newFakeFiles(t.TempDir())
	d := New(files, execx.New(0, 0, 0), shimFFmpeg(t))
	_, err := d.Run(context.Background(), OpName("not_a_real_op"), []string{"file_in"}, nil, "temp")
	require.Error(t, err)
}

func TestDispatcherRunFailsOnUnresolvedInput(t *testing.T) {
	files := newFakeFiles(t.TempDir())
	d := New(files, execx.New(0, 0, 0), shimFFmpeg(t))
	_, err := d.Run(context.Background(), OpTrim, []string{"missing"}, map[string]any{"start": 0.0, "duration": 4.0}, "temp")
	require.Error(t, err)
}

func TestDispatcherRunRejectsTooFewInputsForConcat(t *testing.T) {
	files := newFakeFiles(t.TempDir())
	d := New(files, execx.New(0, 0, 0), shimFFmpeg(t))
	_, err := d.Run(context.Background(), OpConcat, []string{"only_one"}, nil, "temp")
	require.Error(t, err)
}
