package events

import "time"

// Type identifies the kind of agent event.
type Type string

const (
	TypeAgentStart Type = "agent_start"
	TypeAgentEnd   Type = "agent_end"

	TypeNodeStart Type = "node_start"
	TypeNodeEnd   Type = "node_end"
	TypeNodeError Type = "node_error"

	TypeToolStart Type = "tool_start"
	TypeToolEnd   Type = "tool_end"
	TypeToolError Type = "tool_error"

	TypeThinking  Type = "thinking"
	TypeReasoning Type = "reasoning"

	TypeDegradedRetrieval Type = "degraded_retrieval"
	TypeValidationResult  Type = "validation_result"

	TypeAnalysisComplete Type = "analysis_complete"
)

// Event is a single immutable fact in a session's execution log.
// Seq is assigned by the bus and is strictly increasing per session.
type Event struct {
	Seq       int                    `json:"seq"`
	Type      Type                   `json:"type"`
	SessionID string                 `json:"session_id"`
	Stage     string                 `json:"node_name,omitempty"`
	Tool      string                 `json:"tool_name,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
