package ffmpegops

import (
	"context"
	"fmt"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/execx"
	"github.com/komposer-mcp/komposer/internal/log"
	"github.com/komposer-mcp/komposer/internal/registry"
)

// State is one stage of a dispatched operation's lifecycle.
type State string

const (
	StateValidating      State = "validating"
	StateResolvingInputs State = "resolving_inputs"
	StateExecuting       State = "executing"
	StateRegisteringOutput State = "registering_output"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Files is the subset of the registry the dispatcher needs: resolving
// input file IDs to paths, deriving a collision-free output path, and
// registering the file that operation produces.
type Files interface {
	Resolve(id string) (string, error)
	DeriveOutputPath(baseName, ext, rootName string) (string, error)
	Register(ctx context.Context, path string, origin registry.Origin) (string, error)
}

// Dispatcher runs one named operation end to end: validate params, resolve
// every input file ID to a path, build and run the ffmpeg invocation, and
// register the resulting output back into the registry.
type Dispatcher struct {
	Files     Files
	Executor  *execx.Executor
	FFmpegBin string
}

// New builds a Dispatcher over the given registry and executor.
func New(files Files, executor *execx.Executor, ffmpegBin string) *Dispatcher {
	return &Dispatcher{Files: files, Executor: executor, FFmpegBin: ffmpegBin}
}

// Run executes op against inputIDs (registry file IDs) and params,
// producing and registering an output file under outputRoot (typically
// "temp" for intermediates or "finished" for the terminal encode). It
// returns the new file's ID.
func (d *Dispatcher) Run(ctx context.Context, op OpName, inputIDs []string, params map[string]any, outputRoot string) (string, error) {
	logger := log.WithComponent("ffmpegops").With().Str("op", string(op)).Logger()

	// validating
	spec, err := Lookup(op)
	if err != nil {
		return "", err
	}
	if len(inputIDs) < spec.minInputs {
		return "", apierr.Validation("inputs", fmt.Sprintf("%s requires at least %d input(s), got %d", op, spec.minInputs, len(inputIDs)))
	}

	// resolving_inputs
	inputs := make([]string, 0, len(inputIDs))
	for _, id := range inputIDs {
		path, err := d.Files.Resolve(id)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, path)
	}

	outputPath, err := d.Files.DeriveOutputPath(string(op), spec.outputExt(params), outputRoot)
	if err != nil {
		return "", err
	}

	argv, err := spec.build(d.FFmpegBin, inputs, outputPath, params)
	if err != nil {
		return "", err
	}

	// executing
	logger.Debug().Strs("argv", argv).Str("output", outputPath).Msg("dispatching ffmpeg operation")
	if _, err := d.Executor.Run(ctx, string(op), execx.Spec{Argv: argv}); err != nil {
		logger.Warn().Err(err).Msg("operation failed")
		return "", err
	}

	// registering_output
	id, err := d.Files.Register(ctx, outputPath, registry.OriginGenerated)
	if err != nil {
		return "", err
	}

	// done
	logger.Debug().Str("file_id", id).Msg("operation complete")
	return id, nil
}
