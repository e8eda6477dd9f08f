package service

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-jobanalyzer-be/internal/dto"
	"ai-jobanalyzer-be/internal/pkg/logger"
	"ai-jobanalyzer-be/internal/repository/memory"
	"ai-jobanalyzer-be/pkg/agent"
	"ai-jobanalyzer-be/pkg/events"
	"ai-jobanalyzer-be/pkg/plan"
	"ai-jobanalyzer-be/pkg/rag"
	"ai-jobanalyzer-be/pkg/rag/eval"
	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct{}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "Extract the technical skills"):
		return "Go, Kubernetes", nil
	case strings.Contains(prompt, "related search queries"):
		return "1. kubernetes basics", nil
	case strings.Contains(prompt, "Rate the relevance"):
		return "no scores", nil
	case strings.Contains(prompt, "reviewing an AI-generated skill gap analysis"):
		return `{"quality": 0.9, "feedback": "fine"}`, nil
	case strings.Contains(prompt, "career development assistant"):
		return "Summary.\n1. Step one", nil
	default:
		return strings.Repeat("analysis text ", 30), nil
	}
}

type fixedSearch struct{}

func (f *fixedSearch) Search(ctx context.Context, query string, k int) ([]store.ScoredDocument, error) {
	return []store.ScoredDocument{
		{Document: store.Document{ID: "k8s", Title: "Kubernetes Guide", Content: "pods and services"}, Score: 0.8},
	}, nil
}

func newTestService(t *testing.T) (IAnalysisService, *events.Bus) {
	t.Helper()
	plainLogger := log.New(&strings.Builder{}, "", 0)
	registry := tools.NewRegistry(tools.DefaultTimeouts(), plainLogger)
	registry.RegisterCompletion(&scriptedLLM{})
	registry.RegisterSearch(&fixedSearch{})

	bus := events.NewBus(nil, plainLogger)
	sessions := memory.NewSessionRepository()
	orchestrator := agent.NewOrchestrator(
		registry,
		rag.NewPipeline(registry, rag.DefaultConfig(), plainLogger),
		eval.NewEvaluator(registry, plainLogger),
		plan.NewGenerator(registry, plainLogger),
		bus,
		sessions,
		agent.DefaultOrchestratorConfig(),
		plainLogger,
	)

	sysLogger := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "test.log"))
	return NewAnalysisService(orchestrator, sessions, bus, sysLogger), bus
}

func analyzeRequest() *dto.AnalyzeJobRequest {
	return &dto.AnalyzeJobRequest{
		JobDescription: "Platform engineer role working with Go services and Kubernetes clusters in production.",
		CurrentSkills:  []string{"Go"},
	}
}

func TestAnalyzeRunsInBackground(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionId)
	assert.Equal(t, "running", res.Status)

	require.Eventually(t, func() bool {
		session, err := svc.GetSession(res.SessionId)
		return err == nil && session.Status == string(agent.StatusCompleted)
	}, 5*time.Second, 20*time.Millisecond)

	session, err := svc.GetSession(res.SessionId)
	require.NoError(t, err)
	require.NotNil(t, session.Result)
	assert.Equal(t, []string{"Kubernetes"}, session.Result.Gaps)
}

func TestGetGraphAndEvents(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		session, err := svc.GetSession(res.SessionId)
		return err == nil && session.Status != string(agent.StatusRunning)
	}, 5*time.Second, 20*time.Millisecond)

	graph, err := svc.GetGraph(res.SessionId)
	require.NoError(t, err)
	assert.Equal(t, res.SessionId, graph.SessionId)
	assert.NotEmpty(t, graph.Nodes)
	assert.NotEmpty(t, graph.Edges)
	assert.Greater(t, graph.TotalEvents, 0)

	all, err := svc.GetEvents(res.SessionId, 0)
	require.NoError(t, err)
	require.NotEmpty(t, all.Events)
	assert.Equal(t, len(all.Events), all.Count)

	// Incremental fetch returns only what came after the cursor
	mid := all.Events[len(all.Events)/2].Seq
	newer, err := svc.GetEvents(res.SessionId, mid)
	require.NoError(t, err)
	for _, e := range newer.Events {
		assert.Greater(t, e.Seq, mid)
	}
}

func TestUnknownSessionReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetSession("missing")
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)

	_, err = svc.GetGraph("missing")
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)

	_, err = svc.GetEvents("missing", 0)
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)

	err = svc.Cancel("missing")
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)
}

func TestGetGraphDefaultsToLatestSession(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		session, err := svc.GetSession(res.SessionId)
		return err == nil && session.Status != string(agent.StatusRunning)
	}, 5*time.Second, 20*time.Millisecond)

	graph, err := svc.GetGraph("")
	require.NoError(t, err)
	assert.Equal(t, res.SessionId, graph.SessionId)
}

func TestDeleteRemovesSessionAndEvents(t *testing.T) {
	svc, bus := newTestService(t)

	res, err := svc.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		session, err := svc.GetSession(res.SessionId)
		return err == nil && session.Status == string(agent.StatusCompleted)
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, svc.Delete(res.SessionId))

	_, err = svc.GetSession(res.SessionId)
	assert.ErrorIs(t, err, agent.ErrSessionNotFound)
	assert.Empty(t, bus.Events(res.SessionId))

	assert.ErrorIs(t, svc.Delete(res.SessionId), agent.ErrSessionNotFound)
}

func TestCancelFinishedSessionIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Analyze(context.Background(), analyzeRequest())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		session, err := svc.GetSession(res.SessionId)
		return err == nil && session.Status != string(agent.StatusRunning)
	}, 5*time.Second, 20*time.Millisecond)

	assert.NoError(t, svc.Cancel(res.SessionId))
}
