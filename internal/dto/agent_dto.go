package dto

import (
	"ai-jobanalyzer-be/pkg/agent"
	"ai-jobanalyzer-be/pkg/events"
)

type GraphResponse struct {
	SessionId   string            `json:"session_id"`
	Nodes       []agent.GraphNode `json:"nodes"`
	Edges       []agent.Edge      `json:"edges"`
	TotalEvents int               `json:"total_events"`
}

type EventLogResponse struct {
	SessionId string         `json:"session_id"`
	Events    []events.Event `json:"events"`
	Count     int            `json:"count"`
	LastSeq   int            `json:"last_seq"`
}
