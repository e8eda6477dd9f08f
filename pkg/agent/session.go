package agent

import (
	"sync"
	"time"

	"ai-jobanalyzer-be/pkg/plan"
	"ai-jobanalyzer-be/pkg/rag/eval"
	"ai-jobanalyzer-be/pkg/tools"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an analysis session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Input is the validated request an analysis session runs on.
type Input struct {
	JobDescription string   `json:"job_description"`
	CurrentSkills  []string `json:"current_skills"`
	GithubUsername string   `json:"github_username,omitempty"`
}

// Result is the accumulated output of a completed session.
type Result struct {
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

// StageRecord traces one execution of a stage. Retried stages get a new
// record each pass.
type StageRecord struct {
	Stage     Stage       `json:"stage"`
	Status    StageStatus `json:"status"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   time.Time   `json:"ended_at,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Session tracks one analysis run. All mutation goes through methods so the
// read endpoints can observe an in-flight session safely.
type Session struct {
	mu sync.RWMutex

	ID        string
	Input     Input
	status    Status
	stages    []StageRecord
	result    *Result
	errMsg    string
	createdAt time.Time
	endedAt   time.Time
}

func NewSession(input Input) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Input:     input,
		status:    StatusRunning,
		createdAt: time.Now().UTC(),
	}
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) beginStage(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, StageRecord{
		Stage:     stage,
		Status:    StageProcessing,
		StartedAt: time.Now().UTC(),
	})
}

func (s *Session) endStage(stage Stage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.stages) - 1; i >= 0; i-- {
		if s.stages[i].Stage != stage {
			continue
		}
		s.stages[i].EndedAt = time.Now().UTC()
		if err != nil {
			s.stages[i].Status = StageErrored
			s.stages[i].Error = err.Error()
		} else {
			s.stages[i].Status = StageCompleted
		}
		return
	}
}

func (s *Session) complete(result *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusCompleted
	s.result = result
	s.endedAt = time.Now().UTC()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.errMsg = err.Error()
	s.endedAt = time.Now().UTC()
}

func (s *Session) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusCancelled
	s.endedAt = time.Now().UTC()
}

// View is an immutable copy of a session's state for the read endpoints.
type View struct {
	ID        string        `json:"session_id"`
	Status    Status        `json:"status"`
	Input     Input         `json:"input"`
	Stages    []StageRecord `json:"stages"`
	Result    *Result       `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
}

// Snapshot returns a consistent copy of the session's current state.
func (s *Session) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		ID:        s.ID,
		Status:    s.status,
		Input:     s.Input,
		Stages:    make([]StageRecord, len(s.stages)),
		Result:    s.result,
		Error:     s.errMsg,
		CreatedAt: s.createdAt,
	}
	copy(v.Stages, s.stages)
	if !s.endedAt.IsZero() {
		ended := s.endedAt
		v.EndedAt = &ended
	}
	return v
}

// SessionStore persists sessions for the read endpoints. The in-memory
// implementation lives in internal/repository/memory.
type SessionStore interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}
