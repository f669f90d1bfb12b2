package registry

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/komposer-mcp/komposer/internal/log"
)

// Watch observes the source root for newly created files and registers
// them as they land, so natural-language intake always sees fresh media
// without requiring an explicit rescan. It runs until ctx is cancelled.
func (r *Registry) Watch(ctx context.Context, rootName string) error {
	rootPath, ok := r.roots[rootName]
	if !ok {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(rootPath); err != nil {
		return err
	}

	logger := log.WithComponent("registry")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if _, err := r.Register(ctx, event.Name, OriginSource); err != nil {
				logger.Debug().Err(err).Str("path", event.Name).Msg("watch: skip unregisterable path")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("registry watcher error")
		}
	}
}
