package compiler

import (
	"fmt"

	"github.com/komposer-mcp/komposer/internal/komposition"
)

// NodeOp is the closed set of operations a build-plan node may invoke.
type NodeOp string

const (
	OpTrim          NodeOp = "trim"
	OpApplyFilter   NodeOp = "apply_filter"
	OpConcat        NodeOp = "concat"
	OpReplaceAudio  NodeOp = "replace_audio"
	OpYouTubeEncode NodeOp = "youtube_recommended_encode"
)

// Produces names the output a node will register.
type Produces struct {
	Name string
	Ext  string
}

// Node is one vertex of the build-plan DAG. Inputs reference either a
// prior node's ID or a registered file ID — the executor tells these
// apart by checking the in-memory node-output table first.
type Node struct {
	ID             string
	Op             NodeOp
	Inputs         []string
	Params         map[string]any
	Produces       Produces
	EstimatedCostS float64
}

// Plan is the DAG compiled from a komposition document: a topologically
// ordered node list with exactly one terminal node.
type Plan struct {
	Nodes    []Node
	Terminal string // ID of the plan's sole terminal node
}

// TotalEstimatedCostS sums every node's estimated cost; used by the
// timeout manager to derive the plan's overall deadline.
func (p Plan) TotalEstimatedCostS() float64 {
	total := 0.0
	for _, n := range p.Nodes {
		total += n.EstimatedCostS
	}
	return total
}

// sameResolutionAndFPS reports whether every segment's source can be
// concatenated without a normalization pass. The compiler conservatively
// answers false whenever it cannot prove equality — normalize=true is the
// safe default per the concat algorithmic notes.
func sameResolutionAndFPS(doc *komposition.Document) bool {
	return false
}

// Compile validates doc (aborting on fatal errors) and compiles it into a
// topologically-ordered build plan terminating in a single
// youtube_recommended_encode node.
func Compile(doc *komposition.Document, files FileResolver) (*Plan, ValidationReport) {
	report := Validate(doc, files)
	if report.Fatal() {
		return nil, report
	}

	var nodes []Node
	nodeSeq := 0
	newNodeID := func(prefix string) string {
		nodeSeq++
		return fmt.Sprintf("%s_%d", prefix, nodeSeq)
	}

	// 1: one trim node per segment, chained through any per-segment filters.
	segmentTerminals := make([]string, 0, len(doc.Segments))
	for _, seg := range doc.Segments {
		trimID := newNodeID("trim")
		nodes = append(nodes, Node{
			ID:     trimID,
			Op:     OpTrim,
			Inputs: []string{seg.SourceRef},
			Params: map[string]any{
				"start":    seg.Params.Start,
				"duration": seg.Params.Duration,
			},
			Produces:       Produces{Name: trimID, Ext: ".mp4"},
			EstimatedCostS: seg.Params.Duration * 0.5,
		})

		prev := trimID
		for _, f := range seg.Filters {
			filterID := newNodeID("filter")
			nodes = append(nodes, Node{
				ID:             filterID,
				Op:             OpApplyFilter,
				Inputs:         []string{prev},
				Params:         map[string]any{"filter": f},
				Produces:       Produces{Name: filterID, Ext: ".mp4"},
				EstimatedCostS: seg.Params.Duration * 0.6,
			})
			prev = filterID
		}
		segmentTerminals = append(segmentTerminals, prev)
	}

	// 3: single concat over every segment's terminal node.
	concatID := newNodeID("concat")
	normalize := !sameResolutionAndFPS(doc)
	nodes = append(nodes, Node{
		ID:             concatID,
		Op:             OpConcat,
		Inputs:         segmentTerminals,
		Params:         map[string]any{"normalize": normalize},
		Produces:       Produces{Name: concatID, Ext: ".mp4"},
		EstimatedCostS: doc.Metadata.EstimatedDuration * 0.8,
	})
	terminal := concatID

	// 4: replace_audio if a background track is declared.
	if doc.Audio != nil && doc.Audio.BackgroundMusic != "" {
		audioID := newNodeID("audio")
		params := map[string]any{
			"audio":         doc.Audio.BackgroundMusic,
			"music_volume":  doc.Audio.MusicVolume,
		}
		for _, f := range doc.GlobalFilters {
			if f.Type == komposition.FilterFade {
				params["fade_in"] = f.In
				params["fade_out"] = f.Out
			}
		}
		nodes = append(nodes, Node{
			ID:             audioID,
			Op:             OpReplaceAudio,
			Inputs:         []string{terminal, doc.Audio.BackgroundMusic},
			Params:         params,
			Produces:       Produces{Name: audioID, Ext: ".mp4"},
			EstimatedCostS: doc.Metadata.EstimatedDuration * 0.3,
		})
		terminal = audioID
	}

	// 5: remaining global filters (fade already folded into replace_audio above).
	for _, f := range doc.GlobalFilters {
		if f.Type == komposition.FilterFade {
			continue
		}
		filterID := newNodeID("global_filter")
		nodes = append(nodes, Node{
			ID:             filterID,
			Op:             OpApplyFilter,
			Inputs:         []string{terminal},
			Params:         map[string]any{"filter": f},
			Produces:       Produces{Name: filterID, Ext: ".mp4"},
			EstimatedCostS: doc.Metadata.EstimatedDuration * 0.4,
		})
		terminal = filterID
	}

	// 6: mandatory terminal encode producing the final user artifact.
	encodeID := newNodeID("encode")
	nodes = append(nodes, Node{
		ID:             encodeID,
		Op:             OpYouTubeEncode,
		Inputs:         []string{terminal},
		Params:         map[string]any{},
		Produces:       Produces{Name: encodeID, Ext: ".mp4"},
		EstimatedCostS: doc.Metadata.EstimatedDuration * 1.0,
	})

	return &Plan{Nodes: nodes, Terminal: encodeID}, report
}
