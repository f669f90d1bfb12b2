// Package mcpserver exposes the kernel's operation surface as a plain Go
// struct, one method per MCP tool (spec.md §6). Binding this struct to an
// actual MCP JSON-RPC transport is out of scope here: a concrete transport
// would call these methods directly and serialize Result[T] as the
// client-visible {ok, ...} / {ok:false, error_kind, message, context} shape.
package mcpserver

import (
	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/hygiene"
	"github.com/komposer-mcp/komposer/internal/registry"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

// Result is the tagged outcome every tool method returns: either ok with a
// value, or a structured apierr.Error.
type Result[T any] struct {
	OK    bool
	Value T
	Error *apierr.Error
}

func ok[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

func fail[T any](err error) Result[T] {
	var zero T
	var aerr *apierr.Error
	if e, match := err.(*apierr.Error); match {
		aerr = e
	} else {
		aerr = apierr.Wrap(apierr.KindInternal, err.Error(), err)
	}
	return Result[T]{OK: false, Value: zero, Error: aerr}
}

// ExecutionMode selects how create_video_from_description behaves: compute
// and return the plan only, or compute and run it.
type ExecutionMode string

const (
	ModePlanOnly ExecutionMode = "plan_only"
	ModeFull     ExecutionMode = "full"
)

// BatchStep is one step of a batch_process call. InputIDs may contain the
// sentinel OutputPrevious to chain the previous step's produced file ID.
type BatchStep struct {
	Op        string
	InputIDs  []string
	Params    map[string]any
	OutputExt string
}

// OutputPrevious is the sentinel a BatchStep's InputIDs may contain to
// reference the immediately preceding step's output file ID.
const OutputPrevious = "OUTPUT_PREVIOUS"

// CreateVideoResult is the payload of a successful or plan_only
// create_video_from_description call.
type CreateVideoResult struct {
	Plan        *compiler.Plan
	OutputID    string
	TimeoutInfo TimeoutInfo
	Warnings    []string
}

// TimeoutInfo surfaces the deadline the Timeout Manager derived for this
// operation, regardless of whether it was hit.
type TimeoutInfo struct {
	EstimateS float64
	DeadlineS float64
}

// EstimateResult is the payload of estimate_processing_time.
type EstimateResult struct {
	EstimatedSeconds  float64
	Complexity        timeoutmgr.Complexity
	RecommendedTimeoutS float64
}

// OperationStatusResult is the payload of get_operation_status.
type OperationStatusResult struct {
	Active []timeoutmgr.Handle
	Recent []timeoutmgr.Handle
}

// CleanupResult is the payload of cleanup_partial_operations. Always
// returned with OK:true, per spec.md §7 ("idempotent and always returns
// ok:true with a summary").
type CleanupResult struct {
	RemovedFiles    []string
	KilledProcesses []int32
	Warnings        []string
}

// FileEntry is the client-visible projection of a registry.Entry.
type FileEntry = registry.Entry

// ZombieScanResult is the payload of scan_zombie_processes.
type ZombieScanResult struct {
	Records []hygiene.Record
}
