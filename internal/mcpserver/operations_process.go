package mcpserver

import (
	"context"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/ffmpegops"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

// outputRootFor picks the workspace root a dispatched operation's result
// belongs under: the terminal encode always lands in "finished", every
// other operation produces a "temp" intermediate.
func outputRootFor(op ffmpegops.OpName) string {
	if op == ffmpegops.OpYouTubeEncode {
		return "finished"
	}
	return "temp"
}

// ProcessFile implements the process_file tool: a single named FFmpeg
// operation, wrapped by the Timeout Manager with the configured default
// process deadline (spec.md §6).
func (s *Server) ProcessFile(ctx context.Context, opName string, inputIDs []string, params map[string]any) Result[string] {
	op := ffmpegops.OpName(opName)
	opID := timeoutmgr.NewOpID()
	estimate := timeoutmgr.Estimate{
		Complexity: timeoutmgr.ComplexitySimple,
		DeadlineS:  s.Config.DefaultProcessDeadline.Seconds(),
	}

	id, err := timeoutmgr.ExecuteWithTimeout(s.TimeoutMgr, ctx, opID, estimate, nil, func(runCtx context.Context) (string, error) {
		return s.Dispatcher.Run(runCtx, op, inputIDs, params, outputRootFor(op))
	})
	if err != nil {
		return fail[string](err)
	}
	return ok(id)
}

// BatchProcess implements the batch_process tool: a sequence of steps run
// in order, each individually wrapped by the Timeout Manager. A step's
// InputIDs may reference OutputPrevious to chain the prior step's output;
// the first step may not, since there is no previous output to chain.
func (s *Server) BatchProcess(ctx context.Context, steps []BatchStep) Result[[]string] {
	outputs := make([]string, 0, len(steps))
	var previous string

	for _, step := range steps {
		inputIDs := make([]string, len(step.InputIDs))
		for j, in := range step.InputIDs {
			if in == OutputPrevious {
				if previous == "" {
					return fail[[]string](apierr.Validation("steps", "step references OUTPUT_PREVIOUS with no prior step output"))
				}
				inputIDs[j] = previous
			} else {
				inputIDs[j] = in
			}
		}

		res := s.ProcessFile(ctx, step.Op, inputIDs, step.Params)
		if !res.OK {
			return Result[[]string]{OK: false, Error: res.Error, Value: outputs}
		}

		outputs = append(outputs, res.Value)
		previous = res.Value
	}

	return ok(outputs)
}
