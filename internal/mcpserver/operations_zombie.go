package mcpserver

import (
	"context"

	"github.com/komposer-mcp/komposer/internal/hygiene"
)

// ScanZombieProcesses implements the scan_zombie_processes tool: a
// read-only classification pass over the host process table.
func (s *Server) ScanZombieProcesses(ctx context.Context) Result[ZombieScanResult] {
	records, err := s.Hygiene.Scan(ctx)
	if err != nil {
		return fail[ZombieScanResult](err)
	}
	return ok(ZombieScanResult{Records: records})
}

// KillZombieProcesses implements the kill_zombie_processes tool: each pid
// is re-classified at the moment of the call, so a pid scanned as
// safe_to_kill a minute ago but since claimed by a new operation is
// refused (spec.md §4.8).
func (s *Server) KillZombieProcesses(ctx context.Context, pids []int32, force bool) Result[[]hygiene.KillResult] {
	results, err := s.Hygiene.Kill(ctx, pids, force)
	if err != nil {
		return fail[[]hygiene.KillResult](err)
	}
	return ok(results)
}

// KillAllSafeZombies implements the kill_all_safe_zombies tool: scans and
// kills every process currently classified safe_to_kill. Never touches a
// caution or protected process, regardless of force.
func (s *Server) KillAllSafeZombies(ctx context.Context, force bool) Result[hygiene.Summary] {
	summary, err := s.Hygiene.KillAllSafe(ctx, force)
	if err != nil {
		return fail[hygiene.Summary](err)
	}
	return ok(summary)
}
