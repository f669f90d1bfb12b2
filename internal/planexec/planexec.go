// Package planexec executes a compiled build plan: a topologically ordered
// DAG of operation nodes, chaining each node's output into the inputs of
// the nodes that depend on it, until the plan's single terminal node
// produces the final user artifact.
package planexec

import (
	"context"
	"time"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/config"
	"github.com/komposer-mcp/komposer/internal/ffmpegops"
	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/metrics"
)

// Dispatcher is the subset of ffmpegops.Dispatcher the executor needs.
type Dispatcher interface {
	Run(ctx context.Context, op ffmpegops.OpName, inputIDs []string, params map[string]any, outputRoot string) (string, error)
}

// Files is the subset of the registry needed to discard intermediates from
// a failed or cancelled run.
type Files interface {
	Unregister(id string) error
}

// Phase tags a ProgressEvent as the start or end of a node's execution.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

// ProgressEvent reports one node's start or end, with elapsed and
// estimated-remaining totals for the surrounding plan.
type ProgressEvent struct {
	NodeID              string
	Op                  compiler.NodeOp
	Phase               Phase
	Elapsed             time.Duration
	EstimatedRemainingS float64
	Err                 error
}

// ProgressSink receives ProgressEvents as the plan executes. May be nil.
type ProgressSink func(ProgressEvent)

// Executor runs a compiled Plan node by node in topological order.
type Executor struct {
	Dispatcher    Dispatcher
	Files         Files
	CleanupPolicy config.CleanupPolicy
}

// New builds an Executor.
func New(dispatcher Dispatcher, files Files, cleanupPolicy config.CleanupPolicy) *Executor {
	return &Executor{Dispatcher: dispatcher, Files: files, CleanupPolicy: cleanupPolicy}
}

// Result is the outcome of a completed plan run.
type Result struct {
	OutputID string
	Produced []string // every file ID registered during this run, in order
}

// Execute runs every node of plan in order, chaining node outputs into
// downstream inputs, and returns the terminal node's registered file ID.
// On node failure or cancellation the plan fails fast; per e.CleanupPolicy,
// every intermediate file registered during this run is discarded before
// the error is returned, since none of them is the plan's declared final
// output.
func (e *Executor) Execute(ctx context.Context, plan *compiler.Plan, sink ProgressSink) (Result, error) {
	logger := log.WithComponent("planexec")
	nodeOutputs := make(map[string]string, len(plan.Nodes))
	var produced []string

	totalCost := plan.TotalEstimatedCostS()
	var elapsedSoFar float64

	fail := func(err error) (Result, error) {
		if e.CleanupPolicy == config.DeleteIntermediates {
			for _, id := range produced {
				if uerr := e.Files.Unregister(id); uerr != nil {
					logger.Warn().Err(uerr).Str("file_id", id).Msg("failed to discard intermediate during plan cleanup")
				}
			}
		}
		return Result{Produced: produced}, err
	}

	for _, node := range plan.Nodes {
		if err := ctx.Err(); err != nil {
			return fail(apierr.Cancelled(""))
		}

		inputs := make([]string, 0, len(node.Inputs))
		for _, in := range node.Inputs {
			if outID, isNode := nodeOutputs[in]; isNode {
				inputs = append(inputs, outID)
			} else {
				inputs = append(inputs, in)
			}
		}

		outputRoot := "temp"
		if node.ID == plan.Terminal {
			outputRoot = "finished"
		}

		remaining := totalCost - elapsedSoFar
		if sink != nil {
			sink(ProgressEvent{NodeID: node.ID, Op: node.Op, Phase: PhaseStart, EstimatedRemainingS: remaining})
		}

		start := time.Now()
		outID, err := e.Dispatcher.Run(ctx, ffmpegops.OpName(node.Op), inputs, node.Params, outputRoot)
		elapsed := time.Since(start)
		elapsedSoFar += elapsed.Seconds()

		status := "ok"
		if err != nil {
			status = "failed"
		}
		metrics.PlanNodeDuration.WithLabelValues(string(node.Op), status).Observe(elapsed.Seconds())

		if sink != nil {
			sink(ProgressEvent{NodeID: node.ID, Op: node.Op, Phase: PhaseEnd, Elapsed: elapsed, EstimatedRemainingS: totalCost - elapsedSoFar, Err: err})
		}

		if err != nil {
			logger.Warn().Str("node_id", node.ID).Str("op", string(node.Op)).Err(err).Msg("plan node failed; aborting plan")
			return fail(err)
		}

		produced = append(produced, outID)
		nodeOutputs[node.ID] = outID
	}

	return Result{OutputID: nodeOutputs[plan.Terminal], Produced: produced}, nil
}
