package mcpserver

import (
	"context"

	"github.com/komposer-mcp/komposer/internal/apierr"
	"github.com/komposer-mcp/komposer/internal/compiler"
	"github.com/komposer-mcp/komposer/internal/intake"
	"github.com/komposer-mcp/komposer/internal/timeoutmgr"
)

// CreateVideoFromDescription implements the create_video_from_description
// tool: Intake turns brief into a komposition document, the Compiler
// validates and compiles it into a build plan, and (unless mode is
// plan_only) the Plan Executor runs it to completion. Each stage is
// individually wrapped by the Timeout Manager, so a slow Adapter call
// cannot stall plan execution's own deadline and vice versa.
func (s *Server) CreateVideoFromDescription(ctx context.Context, brief string, mode ExecutionMode, quality timeoutmgr.Quality) Result[CreateVideoResult] {
	doc, warnings, err := s.Intake.Generate(ctx, brief)
	if err != nil {
		return fail[CreateVideoResult](err)
	}

	plan, report := compiler.Compile(&doc, docFileResolver{reg: s.Registry})
	if report.Fatal() {
		issues := make([]*apierr.Error, 0, len(report.Errors))
		for _, iss := range report.Errors {
			issues = append(issues, apierr.Validation(iss.Field, iss.Message))
		}
		return fail[CreateVideoResult](apierr.PlanCompile(issues))
	}
	estimate := timeoutmgr.ComputeEstimate(timeoutmgr.Cues{
		DurationS:  doc.Metadata.EstimatedDuration,
		Complexity: complexityFromPlan(plan),
		Quality:    quality,
	}, s.Config.CostModel)

	result := CreateVideoResult{
		Plan:     plan,
		Warnings: warnings,
		TimeoutInfo: TimeoutInfo{
			EstimateS: estimate.CostS,
			DeadlineS: estimate.DeadlineS,
		},
	}

	if mode == ModePlanOnly {
		return ok(result)
	}

	opID := timeoutmgr.NewOpID()
	cleanup := func(cleanupCtx context.Context) []string {
		return []string{"build plan cancelled before completion; partial intermediates discarded per cleanup policy"}
	}

	execResult, err := timeoutmgr.ExecuteWithTimeout(s.TimeoutMgr, ctx, opID, estimate, cleanup, func(runCtx context.Context) (string, error) {
		planResult, perr := s.PlanExec.Execute(runCtx, plan, nil)
		if perr != nil {
			return "", perr
		}
		return planResult.OutputID, nil
	})
	if err != nil {
		return fail[CreateVideoResult](err)
	}

	result.OutputID = execResult
	return ok(result)
}

// complexityFromPlan classifies a compiled plan's complexity for the
// estimator: a plan with more than one filter or concat node counts as
// multi_segment, matching the brief-side heuristic in intake.
func complexityFromPlan(plan *compiler.Plan) timeoutmgr.Complexity {
	filterCount := 0
	for _, n := range plan.Nodes {
		if n.Op == compiler.OpApplyFilter {
			filterCount++
		}
	}
	if filterCount > 2 {
		return timeoutmgr.ComplexityEffectsHeavy
	}
	if len(plan.Nodes) > 6 {
		return timeoutmgr.ComplexityMultiSegment
	}
	return timeoutmgr.ComplexitySimple
}

// EstimateProcessingTime implements the estimate_processing_time tool: runs
// the same cue extraction and cost model the Timeout Manager uses, without
// compiling or running anything. mode is accepted for parity with
// create_video_from_description's signature but does not affect the
// estimate: plan_only and full cost the same to compute, only execution
// differs.
func (s *Server) EstimateProcessingTime(brief string, mode ExecutionMode, quality timeoutmgr.Quality) Result[EstimateResult] {
	cues := intake.ExtractCues(brief)
	cues.Quality = quality
	estimate := timeoutmgr.ComputeEstimate(cues, s.Config.CostModel)
	return ok(EstimateResult{
		EstimatedSeconds:    estimate.CostS,
		Complexity:          estimate.Complexity,
		RecommendedTimeoutS: estimate.DeadlineS,
	})
}
