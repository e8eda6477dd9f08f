package agent

import "ai-jobanalyzer-be/pkg/events"

// Stage identifies a node in the analysis flow.
type Stage string

const (
	StageExtractSkills    Stage = "extract_skills"
	StageRetrieveBasic    Stage = "retrieve_basic"
	StageRetrieveAdvanced Stage = "retrieve_advanced"
	StageAnalyzeGaps      Stage = "analyze_gaps"
	StageReflect          Stage = "reflect"
	StageGeneratePlan     Stage = "generate_plan"
	StageValidate         Stage = "validate"
	StageDone             Stage = "done"
)

// stageOrder is the linear backbone of the flow. The only branch is at
// reflect, which may loop back to retrieve_advanced.
var stageOrder = []Stage{
	StageExtractSkills,
	StageRetrieveBasic,
	StageRetrieveAdvanced,
	StageAnalyzeGaps,
	StageReflect,
	StageGeneratePlan,
	StageValidate,
	StageDone,
}

// Edge is a directed transition in the flow graph.
type Edge struct {
	From        Stage  `json:"from"`
	To          Stage  `json:"to"`
	Conditional bool   `json:"conditional"`
	Label       string `json:"label,omitempty"`
}

// GraphEdges returns the static topology of the flow, including both
// outcomes of the reflect decision.
func GraphEdges() []Edge {
	return []Edge{
		{From: StageExtractSkills, To: StageRetrieveBasic},
		{From: StageRetrieveBasic, To: StageRetrieveAdvanced},
		{From: StageRetrieveAdvanced, To: StageAnalyzeGaps},
		{From: StageAnalyzeGaps, To: StageReflect},
		{From: StageReflect, To: StageRetrieveAdvanced, Conditional: true, Label: "quality below threshold"},
		{From: StageReflect, To: StageGeneratePlan, Conditional: true, Label: "quality acceptable"},
		{From: StageGeneratePlan, To: StageValidate},
		{From: StageValidate, To: StageDone},
	}
}

var stageLabels = map[Stage]string{
	StageExtractSkills:    "Extract Skills",
	StageRetrieveBasic:    "Retrieve Resources",
	StageRetrieveAdvanced: "Focused Retrieval",
	StageAnalyzeGaps:      "Analyze Gaps",
	StageReflect:          "Review Quality",
	StageGeneratePlan:     "Generate Plan",
	StageValidate:         "Validate Output",
	StageDone:             "Done",
}

// Label returns the human-readable name of a stage for graph rendering.
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// StageStatus is the observed state of a stage, derived from events.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageCompleted  StageStatus = "completed"
	StageErrored    StageStatus = "error"
)

// GraphNode is a stage plus its observed status for visualization.
type GraphNode struct {
	ID     Stage       `json:"id"`
	Label  string      `json:"label"`
	Status StageStatus `json:"status"`
}

// GraphSnapshot derives the current node statuses from a session's event
// log. A stage that started but has not ended is processing; a later start
// of the same stage (retry) overrides an earlier completion.
func GraphSnapshot(log []events.Event) []GraphNode {
	statuses := make(map[Stage]StageStatus, len(stageOrder))
	for _, s := range stageOrder {
		statuses[s] = StagePending
	}

	for _, e := range log {
		stage := Stage(e.Stage)
		if _, known := statuses[stage]; !known {
			continue
		}
		switch e.Type {
		case events.TypeNodeStart:
			statuses[stage] = StageProcessing
		case events.TypeNodeEnd:
			statuses[stage] = StageCompleted
		case events.TypeNodeError:
			statuses[stage] = StageErrored
		}
	}

	nodes := make([]GraphNode, 0, len(stageOrder))
	for _, s := range stageOrder {
		nodes = append(nodes, GraphNode{ID: s, Label: s.Label(), Status: statuses[s]})
	}
	return nodes
}
