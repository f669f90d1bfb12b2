package mcpserver

import (
	"context"

	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

// GetOperationStatus implements the get_operation_status tool. With opID
// empty it returns every handle still within its retention window, split
// into still-running and recently-terminated; with opID set it returns
// just that handle, in whichever of the two buckets it currently belongs.
func (s *Server) GetOperationStatus(opID string) Result[OperationStatusResult] {
	s.TimeoutMgr.Prune()

	if opID != "" {
		h, err := s.TimeoutMgr.Status(opID)
		if err != nil {
			return fail[OperationStatusResult](err)
		}
		if h.Status == timeoutmgr.StatusRunning || h.Status == timeoutmgr.StatusPending {
			return ok(OperationStatusResult{Active: []timeoutmgr.Handle{h}})
		}
		return ok(OperationStatusResult{Recent: []timeoutmgr.Handle{h}})
	}

	var result OperationStatusResult
	for _, h := range s.TimeoutMgr.ListActive() {
		if h.Status == timeoutmgr.StatusRunning || h.Status == timeoutmgr.StatusPending {
			result.Active = append(result.Active, h)
		} else {
			result.Recent = append(result.Recent, h)
		}
	}
	return ok(result)
}

// CleanupPartialOperations implements the cleanup_partial_operations tool:
// it cancels every still-active handle, sweeps the registry for files that
// no longer exist on disk, and always reports ok:true with a summary of
// what it did (spec.md §7: idempotent, never a hard failure).
func (s *Server) CleanupPartialOperations(ctx context.Context) Result[CleanupResult] {
	var result CleanupResult

	for _, h := range s.TimeoutMgr.ListActive() {
		if h.Status != timeoutmgr.StatusRunning && h.Status != timeoutmgr.StatusPending {
			continue
		}
		if err := s.TimeoutMgr.Cancel(h.OpID); err != nil {
			result.Warnings = append(result.Warnings, "failed to cancel "+h.OpID+": "+err.Error())
			continue
		}
		result.Warnings = append(result.Warnings, "cancelled in-flight operation "+h.OpID)
	}

	for rootName := range s.Registry.Roots() {
		rescan, err := s.Registry.Rescan(ctx, rootName)
		if err != nil {
			result.Warnings = append(result.Warnings, "registry rescan of "+rootName+" failed: "+err.Error())
			continue
		}
		result.RemovedFiles = append(result.RemovedFiles, rescan.Removed...)
	}

	return Result[CleanupResult]{OK: true, Value: result}
}
