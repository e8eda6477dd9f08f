package service

import (
	"context"
	"sync"

	"ai-jobanalyzer-be/internal/dto"
	"ai-jobanalyzer-be/internal/pkg/logger"
	"ai-jobanalyzer-be/pkg/agent"
	"ai-jobanalyzer-be/pkg/events"
)

type IAnalysisService interface {
	Analyze(ctx context.Context, req *dto.AnalyzeJobRequest) (*dto.AnalyzeJobResponse, error)
	GetSession(sessionID string) (*dto.SessionResponse, error)
	GetGraph(sessionID string) (*dto.GraphResponse, error)
	GetEvents(sessionID string, since int) (*dto.EventLogResponse, error)
	Cancel(sessionID string) error
	Delete(sessionID string) error
}

type analysisService struct {
	orchestrator *agent.Orchestrator
	sessions     agent.SessionStore
	bus          *events.Bus
	logger       logger.ILogger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewAnalysisService(
	orchestrator *agent.Orchestrator,
	sessions agent.SessionStore,
	bus *events.Bus,
	log logger.ILogger,
) IAnalysisService {
	return &analysisService{
		orchestrator: orchestrator,
		sessions:     sessions,
		bus:          bus,
		logger:       log,
		cancels:      make(map[string]context.CancelFunc),
	}
}

// Analyze starts an analysis run in the background and returns its session
// id immediately. Progress is observable via the graph, event and websocket
// endpoints.
func (s *analysisService) Analyze(ctx context.Context, req *dto.AnalyzeJobRequest) (*dto.AnalyzeJobResponse, error) {
	session, err := s.orchestrator.Prepare(agent.Input{
		JobDescription: req.JobDescription,
		CurrentSkills:  req.CurrentSkills,
		GithubUsername: req.GithubUsername,
	})
	if err != nil {
		return nil, err
	}

	// The run outlives the HTTP request; it gets its own cancellable context.
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[session.ID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.mu.Lock()
			delete(s.cancels, session.ID)
			s.mu.Unlock()
		}()

		if err := s.orchestrator.RunSession(runCtx, session); err != nil {
			s.logger.Warn("AnalysisService", "Session finished with error", map[string]interface{}{
				"session_id": session.ID,
				"error":      err.Error(),
			})
			return
		}
		s.logger.Info("AnalysisService", "Session completed", map[string]interface{}{"session_id": session.ID})
	}()

	return &dto.AnalyzeJobResponse{
		SessionId: session.ID,
		Status:    string(agent.StatusRunning),
	}, nil
}

func (s *analysisService) GetSession(sessionID string) (*dto.SessionResponse, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, agent.ErrSessionNotFound
	}
	res := dto.FromSessionView(session.Snapshot())
	return &res, nil
}

func (s *analysisService) GetGraph(sessionID string) (*dto.GraphResponse, error) {
	sessionID = s.resolveSessionID(sessionID)
	if _, ok := s.sessions.Get(sessionID); !ok {
		return nil, agent.ErrSessionNotFound
	}

	log := s.bus.Events(sessionID)
	return &dto.GraphResponse{
		SessionId:   sessionID,
		Nodes:       agent.GraphSnapshot(log),
		Edges:       agent.GraphEdges(),
		TotalEvents: s.bus.Count(sessionID),
	}, nil
}

func (s *analysisService) GetEvents(sessionID string, since int) (*dto.EventLogResponse, error) {
	sessionID = s.resolveSessionID(sessionID)
	if _, ok := s.sessions.Get(sessionID); !ok {
		return nil, agent.ErrSessionNotFound
	}

	var log []events.Event
	if since > 0 {
		log = s.bus.EventsSince(sessionID, since)
	} else {
		log = s.bus.Events(sessionID)
	}

	lastSeq := since
	if len(log) > 0 {
		lastSeq = log[len(log)-1].Seq
	}
	return &dto.EventLogResponse{
		SessionId: sessionID,
		Events:    log,
		Count:     len(log),
		LastSeq:   lastSeq,
	}, nil
}

// Cancel stops an in-flight session. Already-finished sessions are a no-op.
func (s *analysisService) Cancel(sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return agent.ErrSessionNotFound
	}

	s.mu.Lock()
	cancel, running := s.cancels[sessionID]
	s.mu.Unlock()

	if running {
		cancel()
		s.logger.Info("AnalysisService", "Session cancellation requested", map[string]interface{}{"session_id": sessionID})
	}
	return nil
}

// Delete removes a session and its event log. In-flight sessions are
// cancelled first.
func (s *analysisService) Delete(sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return agent.ErrSessionNotFound
	}

	if err := s.Cancel(sessionID); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	s.bus.Drop(sessionID)
	s.logger.Info("AnalysisService", "Session deleted", map[string]interface{}{"session_id": sessionID})
	return nil
}

// resolveSessionID maps an empty id to the most recently active session, so
// dashboards can follow along without tracking ids themselves.
func (s *analysisService) resolveSessionID(sessionID string) string {
	if sessionID == "" {
		return s.bus.LatestSessionID()
	}
	return sessionID
}
