package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/fsutil"
	"github.com/komposer-mcp/komposer/internal/log"
)

// Registry is the workspace's file bookkeeper: every path it hands back is
// guaranteed to live under one of its configured roots.
type Registry struct {
	roots    map[string]string // name -> absolute root path, immutable after New
	rootList []string          // stable iteration order matching Roots() keys

	mu      sync.RWMutex
	entries map[string]*Entry // id -> entry
	byPath  map[string]string // canonical path -> id

	sf singleflight.Group

	snapshotPath string // optional; empty disables persistence
}

// New constructs a Registry over the given root set. Root paths are
// resolved to absolute form immediately; the root set itself is fixed for
// the registry's lifetime.
func New(roots map[string]string) (*Registry, error) {
	r := &Registry{
		roots:   make(map[string]string, len(roots)),
		entries: make(map[string]*Entry),
		byPath:  make(map[string]string),
	}
	for name, p := range roots {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve root %q: %w", name, err)
		}
		if err := os.MkdirAll(abs, 0o750); err != nil {
			return nil, fmt.Errorf("create root %q: %w", name, err)
		}
		r.roots[name] = abs
		r.rootList = append(r.rootList, name)
	}
	sort.Strings(r.rootList)
	return r, nil
}

// WithSnapshot enables persisting the registry's entry table to path via
// atomic renameio writes, so a restart does not need to re-probe every
// file's duration immediately.
func (r *Registry) WithSnapshot(path string) *Registry {
	r.snapshotPath = path
	return r
}

// rootFor returns the declared root name owning absPath, or "" if none.
func (r *Registry) rootFor(absPath string) string {
	for _, name := range r.rootList {
		root := r.roots[name]
		if rel, err := filepath.Rel(root, absPath); err == nil && rel != ".." &&
			!hasDotDotPrefix(rel) {
			return name
		}
	}
	return ""
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".." && (len(rel) == 2 || rel[2] == filepath.Separator)
}

// canonicalize resolves path against the owning root using fsutil's
// confinement guarantees, rejecting anything outside every declared root.
func (r *Registry) canonicalize(path string) (absPath, root string, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", apierr.OutsidePolicy(path)
	}

	for _, name := range r.rootList {
		rootPath := r.roots[name]
		if rel, relErr := filepath.Rel(rootPath, abs); relErr == nil && rel != ".." && !hasDotDotPrefix(rel) {
			confined, cErr := fsutil.ConfineRelPath(rootPath, rel)
			if cErr != nil {
				return "", "", apierr.OutsidePolicy(path)
			}
			return confined, name, nil
		}
	}
	return "", "", apierr.OutsidePolicy(path)
}

// deriveID computes a stable opaque ID from the canonical path plus the
// file's size and modification time, so unchanged files get the same ID
// across restarts and changed files get a fresh one.
func deriveID(canonicalPath string, size int64, modTime time.Time) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d", canonicalPath, size, modTime.UnixNano())
	return "file_" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Register records path in the registry and returns its stable ID.
// Registering an already-known canonical path is idempotent. Concurrent
// registrations of the same path are deduplicated via singleflight.
func (r *Registry) Register(ctx context.Context, path string, origin Origin) (string, error) {
	abs, root, err := r.canonicalize(path)
	if err != nil {
		return "", err
	}

	v, err, _ := r.sf.Do(abs, func() (any, error) {
		info, statErr := os.Stat(abs)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				return nil, apierr.New(apierr.KindUnknownFileID, "file does not exist: "+abs)
			}
			return nil, fmt.Errorf("stat %s: %w", abs, statErr)
		}

		id := deriveID(abs, info.Size(), info.ModTime())

		r.mu.Lock()
		defer r.mu.Unlock()

		if existingID, ok := r.byPath[abs]; ok && existingID != id {
			delete(r.entries, existingID)
		}
		if e, ok := r.entries[id]; ok {
			return e.ID, nil
		}

		kind, format := sniffKind(abs)
		e := &Entry{
			ID:           id,
			Path:         abs,
			Root:         root,
			Kind:         kind,
			Format:       format,
			SizeBytes:    info.Size(),
			ModTime:      info.ModTime(),
			RegisteredAt: time.Now(),
			Origin:       origin,
		}
		r.entries[id] = e
		r.byPath[abs] = id
		log.WithComponent("registry").Debug().
			Str("file_id", id).Str("root", root).Str("kind", string(kind)).
			Msg("registered file")
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Resolve returns the absolute path for id, or an UnknownFileID error.
func (r *Registry) Resolve(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return "", apierr.UnknownFileID(id)
	}
	return e.Path, nil
}

// Get returns a copy of the entry for id.
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, apierr.UnknownFileID(id)
	}
	return *e, nil
}

// List returns entries matching filter, ordered by kind then name (stable).
func (r *Registry) List(filter Filter) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if filter.matches(e) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return filepath.Base(out[i].Path) < filepath.Base(out[j].Path)
	})
	return out
}

// Rescan walks the named root, registering newly discovered files and
// removing entries whose backing file no longer exists.
func (r *Registry) Rescan(ctx context.Context, rootName string) (RescanResult, error) {
	rootPath, ok := r.roots[rootName]
	if !ok {
		return RescanResult{}, apierr.New(apierr.KindValidation, "unknown root: "+rootName).WithField("root")
	}

	result := RescanResult{}

	seen := make(map[string]bool)
	walkErr := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			return nil
		}
		seen[abs] = true

		r.mu.RLock()
		_, known := r.byPath[abs]
		r.mu.RUnlock()
		if known {
			return nil
		}

		id, regErr := r.Register(ctx, abs, OriginSource)
		if regErr != nil {
			log.WithComponent("registry").Warn().Err(regErr).Str("path", abs).Msg("rescan: failed to register file")
			return nil
		}
		result.Added = append(result.Added, id)
		return nil
	})
	if walkErr != nil {
		return result, walkErr
	}

	r.mu.Lock()
	for abs, id := range r.byPath {
		if root := r.rootFor(abs); root != rootName {
			continue
		}
		if !seen[abs] {
			delete(r.byPath, abs)
			delete(r.entries, id)
			result.Removed = append(result.Removed, id)
		}
	}
	r.mu.Unlock()

	return result, nil
}

// DeriveOutputPath returns a non-colliding absolute path under root for a
// new file named baseName.ext, suffixing a short random token on conflict.
func (r *Registry) DeriveOutputPath(baseName, ext, rootName string) (string, error) {
	rootPath, ok := r.roots[rootName]
	if !ok {
		return "", apierr.New(apierr.KindValidation, "unknown root: "+rootName).WithField("root")
	}

	candidate := filepath.Join(rootPath, baseName+ext)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	for i := 0; i < 8; i++ {
		token := randToken(6)
		candidate = filepath.Join(rootPath, fmt.Sprintf("%s-%s%s", baseName, token, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", apierr.New(apierr.KindInternal, "could not derive a non-colliding output path")
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}

// Unregister removes id's entry and deletes its backing file. Used by the
// build plan executor and cleanup_partial_operations to discard
// intermediates from a non-terminal operation. Unregistering an unknown ID
// is a no-op so cleanup remains idempotent.
func (r *Registry) Unregister(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.entries, id)
	delete(r.byPath, e.Path)
	r.mu.Unlock()

	if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", e.Path, err)
	}
	log.WithComponent("registry").Debug().Str("file_id", id).Str("path", e.Path).Msg("unregistered file")
	return nil
}

// Roots returns the declared root name->absolute path map.
func (r *Registry) Roots() map[string]string {
	out := make(map[string]string, len(r.roots))
	for k, v := range r.roots {
		out[k] = v
	}
	return out
}

// snapshot is the on-disk persisted form of the entry table.
type snapshot struct {
	Entries []Entry `json:"entries"`
}

// Save persists the current entry table to the configured snapshot path.
// A no-op if no snapshot path was configured.
func (r *Registry) Save() error {
	if r.snapshotPath == "" {
		return nil
	}
	r.mu.RLock()
	snap := snapshot{Entries: make([]Entry, 0, len(r.entries))}
	for _, e := range r.entries {
		snap.Entries = append(snap.Entries, *e)
	}
	r.mu.RUnlock()

	return atomicWriteJSON(r.snapshotPath, snap)
}

// Load restores the entry table from the configured snapshot path, skipping
// entries whose backing file has since changed or disappeared.
func (r *Registry) Load() error {
	if r.snapshotPath == "" {
		return nil
	}
	data, err := os.ReadFile(r.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode registry snapshot: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range snap.Entries {
		e := snap.Entries[i]
		info, statErr := os.Stat(e.Path)
		if statErr != nil || info.Size() != e.SizeBytes || !info.ModTime().Equal(e.ModTime) {
			continue // stale; a rescan will re-register it under a fresh ID
		}
		entry := e
		r.entries[entry.ID] = &entry
		r.byPath[entry.Path] = entry.ID
	}
	return nil
}
