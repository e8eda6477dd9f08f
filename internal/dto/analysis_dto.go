package dto

import (
	"time"

	"ai-jobanalyzer-be/pkg/agent"
	"ai-jobanalyzer-be/pkg/plan"
	"ai-jobanalyzer-be/pkg/rag/eval"
	"ai-jobanalyzer-be/pkg/tools"
)

type AnalyzeJobRequest struct {
	JobDescription string   `json:"job_description" validate:"required,min=20"`
	CurrentSkills  []string `json:"current_skills" validate:"max=100"`
	GithubUsername string   `json:"github_username,omitempty" validate:"omitempty,max=64"`
}

type AnalyzeJobResponse struct {
	SessionId string `json:"session_id"`
	Status    string `json:"status"`
}

type AnalysisResultDTO struct {
	RequiredSkills   []string              `json:"required_skills"`
	CurrentSkills    []string              `json:"current_skills"`
	Gaps             []string              `json:"gaps"`
	Analysis         string                `json:"analysis"`
	Evaluation       eval.Record           `json:"evaluation"`
	Plan             *plan.Plan            `json:"plan,omitempty"`
	Enrichment       *tools.EnrichmentData `json:"enrichment,omitempty"`
	Degraded         bool                  `json:"degraded"`
	RetrievalRetries int                   `json:"retrieval_retries"`
}

type SessionResponse struct {
	SessionId string              `json:"session_id"`
	Status    string              `json:"status"`
	Stages    []agent.StageRecord `json:"stages"`
	Result    *AnalysisResultDTO  `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	EndedAt   *time.Time          `json:"ended_at,omitempty"`
}

// FromSessionView maps the domain view onto the transport shape.
func FromSessionView(view agent.View) SessionResponse {
	res := SessionResponse{
		SessionId: view.ID,
		Status:    string(view.Status),
		Stages:    view.Stages,
		Error:     view.Error,
		CreatedAt: view.CreatedAt,
		EndedAt:   view.EndedAt,
	}
	if view.Result != nil {
		res.Result = &AnalysisResultDTO{
			RequiredSkills:   view.Result.RequiredSkills,
			CurrentSkills:    view.Result.CurrentSkills,
			Gaps:             view.Result.Gaps,
			Analysis:         view.Result.Analysis,
			Evaluation:       view.Result.Evaluation,
			Plan:             view.Result.Plan,
			Enrichment:       view.Result.Enrichment,
			Degraded:         view.Result.Degraded,
			RetrievalRetries: view.Result.RetrievalRetries,
		}
	}
	return res
}
