package mcpserver

import (
	"context"

	"github.com/komposer-mcp/komposer/internal/registry"
)

// ListFiles implements the list_files tool (spec.md §6).
func (s *Server) ListFiles(filter registry.Filter) Result[[]registry.Entry] {
	return ok(s.Registry.List(filter))
}

// RegisterFile implements the register_file tool.
func (s *Server) RegisterFile(ctx context.Context, path string) Result[string] {
	id, err := s.Registry.Register(ctx, path, registry.OriginSource)
	if err != nil {
		return fail[string](err)
	}
	return ok(id)
}
