package rag

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompletion struct {
	response string
	err      error
}

func (s *stubCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

type stubSearch struct {
	byQuery map[string][]store.ScoredDocument
	fallback []store.ScoredDocument
	err     error
	queries []string
}

func (s *stubSearch) Search(ctx context.Context, query string, k int) ([]store.ScoredDocument, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	if docs, ok := s.byQuery[query]; ok {
		return docs, nil
	}
	return s.fallback, nil
}

func testLogger() *log.Logger {
	return log.New(&strings.Builder{}, "", 0)
}

func scored(id string, score float64) store.ScoredDocument {
	return store.ScoredDocument{
		Document: store.Document{ID: id, Title: id, Content: "about " + id},
		Score:    score,
	}
}

func newTestPipeline(search tools.VectorSearch, completion tools.Completion) *Pipeline {
	logger := testLogger()
	registry := tools.NewRegistry(tools.DefaultTimeouts(), logger)
	registry.RegisterSearch(search)
	if completion != nil {
		registry.RegisterCompletion(completion)
	}
	return NewPipeline(registry, DefaultConfig(), logger)
}

func TestBasicReturnsAssembledContext(t *testing.T) {
	search := &stubSearch{fallback: []store.ScoredDocument{scored("go-basics", 0.9), scored("docker-intro", 0.7)}}
	p := newTestPipeline(search, nil)

	res := p.Basic(context.Background(), []string{"Go", "Docker"})

	require.Len(t, res.Documents, 2)
	assert.False(t, res.Degraded)
	assert.Contains(t, res.Context, "about go-basics")
	require.Len(t, res.Queries, 1)
	assert.Contains(t, res.Queries[0], "Go, Docker")
}

func TestBasicDegradesOnSearchFailure(t *testing.T) {
	search := &stubSearch{err: errors.New("index offline")}
	p := newTestPipeline(search, nil)

	res := p.Basic(context.Background(), []string{"Go"})

	assert.True(t, res.Degraded)
	assert.Empty(t, res.Documents)
	assert.Empty(t, res.Context)
}

func TestBasicDegradesOnEmptyResults(t *testing.T) {
	search := &stubSearch{}
	p := newTestPipeline(search, nil)

	res := p.Basic(context.Background(), []string{"Go"})

	assert.True(t, res.Degraded)
}

func TestAdvancedExpandsMergesAndDeduplicates(t *testing.T) {
	// Completion serves both expansion and re-rank judging; a numbered list
	// with no JSON array means the re-ranker keeps vector order.
	completion := &stubCompletion{response: "1. langgraph tutorial\n2. agent orchestration"}
	search := &stubSearch{
		fallback: []store.ScoredDocument{scored("shared", 0.6)},
	}
	p := newTestPipeline(search, completion)

	res := p.Advanced(context.Background(), []string{"LangGraph"}, "backend AI services", "")

	// 1 original + 2 expansions, each returning the same doc.
	assert.Len(t, res.Queries, 3)
	require.Len(t, res.Documents, 1, "duplicate results collapse to one document")
	assert.Equal(t, "shared", res.Documents[0].ID)
	assert.False(t, res.Degraded)
}

func TestAdvancedRetryHintSteersQuery(t *testing.T) {
	completion := &stubCompletion{err: errors.New("llm down")}
	search := &stubSearch{fallback: []store.ScoredDocument{scored("doc", 0.5)}}
	p := newTestPipeline(search, completion)

	res := p.Advanced(context.Background(), []string{"Kubernetes"}, "platform team", "hands-on deployment examples")

	require.NotEmpty(t, res.Queries)
	assert.Contains(t, res.Queries[0], "hands-on deployment examples")
	require.NotEmpty(t, search.queries)
	assert.Contains(t, search.queries[0], "Kubernetes")
}

func TestAdvancedDegradesWhenAllSearchesFail(t *testing.T) {
	completion := &stubCompletion{err: errors.New("llm down")}
	search := &stubSearch{err: errors.New("index offline")}
	p := newTestPipeline(search, completion)

	res := p.Advanced(context.Background(), []string{"Terraform"}, "infra", "")

	assert.True(t, res.Degraded)
	assert.Empty(t, res.Documents)
	assert.Empty(t, res.Context)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 5, cfg.PerQueryK)
	assert.Equal(t, 5, cfg.RerankK)
	assert.Equal(t, 3, cfg.MaxQueries)
}
