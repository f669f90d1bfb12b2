package registry

import (
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
)

// atomicWriteJSON marshals v and writes it to path via renameio: a
// temp-file-then-rename sequence that fsyncs before the rename, so a
// crash mid-write never leaves a truncated snapshot in place.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending snapshot file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write snapshot data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace snapshot file: %w", err)
	}
	return nil
}
