package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/komposer-mcp/komposer/internal/apierr"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	base := t.TempDir()
	source := filepath.Join(base, "source")
	temp := filepath.Join(base, "temp")

	r, err := New(map[string]string{"source": source, "temp": temp})
	require.NoError(t, err)
	return r, source
}

func TestRegisterIsIdempotent(t *testing.T) {
	r, source := newTestRegistry(t)
	path := filepath.Join(source, "a.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake mp4"), 0o600))

	id1, err := r.Register(context.Background(), path, OriginSource)
	require.NoError(t, err)

	id2, err := r.Register(context.Background(), path, OriginSource)
	require.NoError(t, err)

	require.Equal(t, id1, id2)
}

func TestRegisterRejectsOutsideRoot(t *testing.T) {
	r, _ := newTestRegistry(t)
	outside := t.TempDir()
	path := filepath.Join(outside, "sneaky.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := r.Register(context.Background(), path, OriginSource)
	require.Error(t, err)
	require.True(t, apierr.As(err, apierr.KindOutsidePolicy))
}

func TestResolveUnknownID(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.Resolve("file_deadbeef")
	require.Error(t, err)
	require.True(t, apierr.As(err, apierr.KindUnknownFileID))
}

func TestListOrdersByKindThenName(t *testing.T) {
	r, source := newTestRegistry(t)

	mustWrite := func(name string, data []byte) string {
		p := filepath.Join(source, name)
		require.NoError(t, os.WriteFile(p, data, 0o600))
		id, err := r.Register(context.Background(), p, OriginSource)
		require.NoError(t, err)
		return id
	}

	mustWrite("zzz.mp3", []byte("ID3fake"))
	mustWrite("aaa.mp4", append([]byte{0, 0, 0, 0x20}, []byte("ftypisom")...))

	entries := r.List(Filter{})
	require.Len(t, entries, 2)
	require.Equal(t, KindAudio, entries[0].Kind)
	require.Equal(t, KindVideo, entries[1].Kind)
}

func TestRescanRemovesDeletedFiles(t *testing.T) {
	r, source := newTestRegistry(t)
	path := filepath.Join(source, "gone.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	id, err := r.Register(context.Background(), path, OriginSource)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	result, err := r.Rescan(context.Background(), "source")
	require.NoError(t, err)
	require.Contains(t, result.Removed, id)

	_, err = r.Resolve(id)
	require.Error(t, err)
}

func TestDeriveOutputPathAvoidsCollision(t *testing.T) {
	r, _ := newTestRegistry(t)

	p1, err := r.DeriveOutputPath("clip", ".mp4", "temp")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p1, []byte("x"), 0o600))

	p2, err := r.DeriveOutputPath("clip", ".mp4", "temp")
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	base := t.TempDir()
	source := filepath.Join(base, "source")
	snapshot := filepath.Join(base, "registry.json")

	r, err := New(map[string]string{"source": source})
	require.NoError(t, err)
	r = r.WithSnapshot(snapshot)

	path := filepath.Join(source, "a.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	id, err := r.Register(context.Background(), path, OriginSource)
	require.NoError(t, err)
	require.NoError(t, r.Save())

	r2, err := New(map[string]string{"source": source})
	require.NoError(t, err)
	r2 = r2.WithSnapshot(snapshot)
	require.NoError(t, r2.Load())

	resolved, err := r2.Resolve(id)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
}
