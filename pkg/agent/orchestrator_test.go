package agent

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"ai-jobanalyzer-be/pkg/events"
	"ai-jobanalyzer-be/pkg/plan"
	"ai-jobanalyzer-be/pkg/rag"
	"ai-jobanalyzer-be/pkg/rag/eval"
	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM answers each prompt family with a canned response so a full
// flow run is deterministic.
type scriptedLLM struct {
	mu            sync.Mutex
	judgeResponse string
	judgeCalls    int
	err           error
}

func (s *scriptedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	switch {
	case strings.Contains(prompt, "Extract the technical skills"):
		return "Python, LangGraph, Docker", nil
	case strings.Contains(prompt, "related search queries"):
		return "1. langgraph orchestration tutorial\n2. docker for python developers", nil
	case strings.Contains(prompt, "Rate the relevance"):
		// No JSON array: the re-ranker keeps vector order, which keeps
		// the flow deterministic.
		return "keeping original order", nil
	case strings.Contains(prompt, "reviewing an AI-generated skill gap analysis"):
		s.judgeCalls++
		return s.judgeResponse, nil
	case strings.Contains(prompt, "career development assistant"):
		return "Work through the gaps in order of difficulty.\n1. Study LangGraph using the retrieved guide\n2. Practice Docker basics", nil
	default:
		return strings.Repeat("The candidate should focus on agent orchestration concepts. ", 10), nil
	}
}

type mapSearch struct {
	docs []store.ScoredDocument
	err  error
}

func (m *mapSearch) Search(ctx context.Context, query string, k int) ([]store.ScoredDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.docs) > k {
		return m.docs[:k], nil
	}
	return m.docs, nil
}

type mapStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMapStore() *mapStore {
	return &mapStore{sessions: make(map[string]*Session)}
}

func (m *mapStore) Save(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
}

func (m *mapStore) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *mapStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

type fixedEnrichment struct {
	data *tools.EnrichmentData
	err  error
}

func (f *fixedEnrichment) Lookup(ctx context.Context, identifier string) (*tools.EnrichmentData, error) {
	return f.data, f.err
}

func corpusDocs() []store.ScoredDocument {
	return []store.ScoredDocument{
		{Document: store.Document{ID: "lg", Title: "LangGraph Guide", Content: "state machines for agents", Metadata: map[string]interface{}{"url": "https://example.com/lg"}}, Score: 0.9},
		{Document: store.Document{ID: "dk", Title: "Docker Basics", Content: "containers explained", Metadata: map[string]interface{}{"url": "https://example.com/dk"}}, Score: 0.8},
		{Document: store.Document{ID: "py", Title: "Python Patterns", Content: "idiomatic python", Metadata: map[string]interface{}{"url": "https://example.com/py"}}, Score: 0.7},
	}
}

type testHarness struct {
	orchestrator *Orchestrator
	bus          *events.Bus
	store        *mapStore
	llm          *scriptedLLM
}

func newHarness(t *testing.T, llm *scriptedLLM, search tools.VectorSearch, enrichment tools.EnrichmentLookup) *testHarness {
	t.Helper()
	logger := log.New(&strings.Builder{}, "", 0)
	registry := tools.NewRegistry(tools.DefaultTimeouts(), logger)
	registry.RegisterCompletion(llm)
	registry.RegisterSearch(search)
	if enrichment != nil {
		registry.RegisterEnrichment(enrichment)
	}

	bus := events.NewBus(nil, logger)
	sessions := newMapStore()
	orchestrator := NewOrchestrator(
		registry,
		rag.NewPipeline(registry, rag.DefaultConfig(), logger),
		eval.NewEvaluator(registry, logger),
		plan.NewGenerator(registry, logger),
		bus,
		sessions,
		DefaultOrchestratorConfig(),
		logger,
	)
	return &testHarness{orchestrator: orchestrator, bus: bus, store: sessions, llm: llm}
}

func validInput() Input {
	return Input{
		JobDescription: "We are looking for a backend engineer to build AI agent pipelines with LangGraph, Python and Docker.",
		CurrentSkills:  []string{"Python"},
	}
}

func (h *testHarness) eventTypes(sessionID string) []events.Type {
	var types []events.Type
	for _, e := range h.bus.Events(sessionID) {
		types = append(types, e.Type)
	}
	return types
}

func TestRunHappyPath(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9, "feedback": "well grounded"}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	session, err := h.orchestrator.Run(context.Background(), validInput())

	require.NoError(t, err)
	view := session.Snapshot()
	assert.Equal(t, StatusCompleted, view.Status)
	require.NotNil(t, view.Result)
	assert.ElementsMatch(t, []string{"LangGraph", "Docker"}, view.Result.Gaps)
	assert.Equal(t, 0, view.Result.RetrievalRetries)
	require.NotNil(t, view.Result.Plan)
	assert.NotEmpty(t, view.Result.Plan.Resources)

	types := h.eventTypes(session.ID)
	assert.Contains(t, types, events.TypeAgentStart)
	assert.Contains(t, types, events.TypeAnalysisComplete)
	assert.Contains(t, types, events.TypeAgentEnd)
	assert.NotContains(t, types, events.TypeDegradedRetrieval)
}

func TestRunGapsAreSubsetOfRequired(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	session, err := h.orchestrator.Run(context.Background(), validInput())

	require.NoError(t, err)
	result := session.Snapshot().Result
	required := make(map[string]bool)
	for _, s := range result.RequiredSkills {
		required[strings.ToLower(s)] = true
	}
	for _, gap := range result.Gaps {
		assert.True(t, required[strings.ToLower(gap)], "gap %q not in required skills", gap)
	}
}

func TestRunEmptyCurrentSkills(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	input := validInput()
	input.CurrentSkills = nil
	session, err := h.orchestrator.Run(context.Background(), input)

	require.NoError(t, err)
	result := session.Snapshot().Result
	assert.ElementsMatch(t, result.RequiredSkills, result.Gaps, "with no current skills every required skill is a gap")
}

func TestRunNoGaps(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	input := validInput()
	input.CurrentSkills = []string{"python", "LANGGRAPH", "Docker"}
	session, err := h.orchestrator.Run(context.Background(), input)

	require.NoError(t, err)
	result := session.Snapshot().Result
	assert.Empty(t, result.Gaps, "matching is case-insensitive")
	assert.Equal(t, 0, result.RetrievalRetries)
	require.NotNil(t, result.Plan)
	assert.Contains(t, result.Plan.Summary, "No skill gaps")
}

func TestRunRetryBudget(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.2, "feedback": "missing practical resources"}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	session, err := h.orchestrator.Run(context.Background(), validInput())

	require.NoError(t, err, "exhausting the retry budget completes the session, it does not fail it")
	result := session.Snapshot().Result
	assert.Equal(t, 2, result.RetrievalRetries)
	assert.Equal(t, 3, llm.judgeCalls, "one evaluation per reflect pass")
	require.NotNil(t, result.Plan)
	assert.Contains(t, strings.Join(result.Plan.Caveats, " "), "quality below threshold")

	advancedStarts := 0
	for _, e := range h.bus.Events(session.ID) {
		if e.Type == events.TypeNodeStart && e.Stage == string(StageRetrieveAdvanced) {
			advancedStarts++
		}
	}
	assert.Equal(t, 3, advancedStarts)
}

func TestRunDegradedRetrieval(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{err: errors.New("index offline")}, nil)

	session, err := h.orchestrator.Run(context.Background(), validInput())

	require.NoError(t, err, "retrieval failure degrades the session, it does not fail it")
	result := session.Snapshot().Result
	assert.True(t, result.Degraded)
	assert.Empty(t, result.Plan.Resources)
	assert.Contains(t, h.eventTypes(session.ID), events.TypeDegradedRetrieval)
}

func TestRunValidationError(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	_, err := h.orchestrator.Run(context.Background(), Input{JobDescription: "  "})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "job_description", verr.Field)
}

func TestRunExtractionFailureIsCritical(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("provider down")}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	session, err := h.orchestrator.Run(context.Background(), validInput())

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageExtractSkills, serr.Stage)
	assert.Equal(t, StatusFailed, session.Snapshot().Status)
}

func TestRunCancellation(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session, err := h.orchestrator.Run(ctx, validInput())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, session.Snapshot().Status)
}

func TestRunWithEnrichment(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	enrichment := &fixedEnrichment{data: &tools.EnrichmentData{
		Identifier:  "octocat",
		ProfileURL:  "https://github.com/octocat",
		PublicRepos: 8,
		Languages:   []string{"Python", "Go"},
	}}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, enrichment)

	input := validInput()
	input.GithubUsername = "octocat"
	session, err := h.orchestrator.Run(context.Background(), input)

	require.NoError(t, err)
	result := session.Snapshot().Result
	require.NotNil(t, result.Enrichment)
	assert.Equal(t, "octocat", result.Enrichment.Identifier)
	assert.Contains(t, h.eventTypes(session.ID), events.TypeToolEnd)
}

func TestRunEnrichmentFailureIsNonCritical(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	enrichment := &fixedEnrichment{err: errors.New("rate limited")}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, enrichment)

	input := validInput()
	input.GithubUsername = "octocat"
	session, err := h.orchestrator.Run(context.Background(), input)

	require.NoError(t, err)
	view := session.Snapshot()
	assert.Equal(t, StatusCompleted, view.Status)
	assert.Nil(t, view.Result.Enrichment)
	assert.Contains(t, h.eventTypes(session.ID), events.TypeToolError)
}

func TestRunDeterministicAcrossRuns(t *testing.T) {
	run := func() *Result {
		llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
		h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)
		session, err := h.orchestrator.Run(context.Background(), validInput())
		require.NoError(t, err)
		return session.Snapshot().Result
	}

	first := run()
	second := run()

	assert.Equal(t, first.Gaps, second.Gaps)
	assert.Equal(t, first.RequiredSkills, second.RequiredSkills)
	assert.Equal(t, first.Plan.Resources, second.Plan.Resources)
}

func TestGraphSnapshotFromEvents(t *testing.T) {
	llm := &scriptedLLM{judgeResponse: `{"quality": 0.9}`}
	h := newHarness(t, llm, &mapSearch{docs: corpusDocs()}, nil)

	session, err := h.orchestrator.Run(context.Background(), validInput())
	require.NoError(t, err)

	nodes := GraphSnapshot(h.bus.Events(session.ID))
	byID := make(map[Stage]StageStatus)
	for _, n := range nodes {
		byID[n.ID] = n.Status
	}
	assert.Equal(t, StageCompleted, byID[StageExtractSkills])
	assert.Equal(t, StageCompleted, byID[StageGeneratePlan])
	assert.Equal(t, StageCompleted, byID[StageValidate])
	assert.Equal(t, StagePending, byID[StageDone], "done is a terminal marker, not an executed stage")
}

func TestSummarizeTruncatesOnRuneBoundary(t *testing.T) {
	text := strings.Repeat("日", 100) // 3 bytes per rune

	out := summarize(text, 200)

	assert.True(t, utf8.ValidString(out), "truncation must not split a rune")
	assert.Equal(t, 198, len(out))

	assert.Equal(t, "short text", summarize("short  text", 200))
	assert.Equal(t, "", summarize("日本語", 2))
}
