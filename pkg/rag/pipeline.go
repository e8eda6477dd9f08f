package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-jobanalyzer-be/pkg/rag/expansion"
	"ai-jobanalyzer-be/pkg/rag/ragcontext"
	"ai-jobanalyzer-be/pkg/rag/rerank"
	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"
)

// Config bounds the retrieval pipeline. Zero values fall back to defaults.
type Config struct {
	TopK       int // documents in the basic pass
	PerQueryK  int // documents fetched per expanded query
	RerankK    int // documents kept after re-ranking
	MaxQueries int // expanded query variants (excluding the original)
}

func DefaultConfig() Config {
	return Config{
		TopK:       5,
		PerQueryK:  5,
		RerankK:    5,
		MaxQueries: 3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.PerQueryK <= 0 {
		c.PerQueryK = d.PerQueryK
	}
	if c.RerankK <= 0 {
		c.RerankK = d.RerankK
	}
	if c.MaxQueries <= 0 {
		c.MaxQueries = d.MaxQueries
	}
	return c
}

// Result is the output of a retrieval pass. Degraded marks a pass that
// produced less than it should have (search failure, empty corpus); the
// caller surfaces that instead of treating it as a hard error.
type Result struct {
	Documents []store.ScoredDocument
	Context   string
	Queries   []string
	Degraded  bool
}

// Pipeline runs the two retrieval passes of the analysis flow: a broad pass
// over the required skills and a focused multi-query pass over the gaps.
type Pipeline struct {
	registry *tools.Registry
	expander *expansion.Expander
	reranker *rerank.Reranker
	cfg      Config
	logger   *log.Logger
}

func NewPipeline(registry *tools.Registry, cfg Config, logger *log.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		expander: expansion.NewExpander(registry, logger),
		reranker: rerank.NewReranker(registry, logger),
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// Basic performs a single broad search over the required skills. A failed or
// empty search degrades the result rather than failing it; downstream stages
// still run with whatever context exists.
func (p *Pipeline) Basic(ctx context.Context, skills []string) *Result {
	query := fmt.Sprintf("Learning resources for skills: %s", strings.Join(skills, ", "))

	docs, err := p.registry.Search(ctx, query, p.cfg.TopK)
	if err != nil {
		p.logger.Printf("[WARN] Basic retrieval failed, continuing degraded: %v", err)
		return &Result{Queries: []string{query}, Degraded: true}
	}

	return &Result{
		Documents: docs,
		Context:   ragcontext.Assemble(docs),
		Queries:   []string{query},
		Degraded:  len(docs) == 0,
	}
}

// Advanced runs the focused pass over the identified skill gaps: query
// expansion, per-query search, merge with de-duplication, then LLM re-rank.
// retryHint carries reviewer feedback from a previous pass and steers the
// expansion toward what was missing.
func (p *Pipeline) Advanced(ctx context.Context, gaps []string, jobContext, retryHint string) *Result {
	query := fmt.Sprintf("How to learn %s for a role involving %s", strings.Join(gaps, ", "), jobContext)
	if retryHint != "" {
		query = fmt.Sprintf("%s. Focus on: %s", query, retryHint)
	}

	queries := p.expander.Expand(ctx, query, p.cfg.MaxQueries)

	var resultSets [][]store.ScoredDocument
	degraded := false
	for _, q := range queries {
		docs, err := p.registry.Search(ctx, q, p.cfg.PerQueryK)
		if err != nil {
			p.logger.Printf("[WARN] Search failed for query %q: %v", q, err)
			degraded = true
			continue
		}
		resultSets = append(resultSets, docs)
	}

	merged := ragcontext.Merge(resultSets...)
	if len(merged) == 0 {
		return &Result{Queries: queries, Degraded: true}
	}

	reranked := p.reranker.Rerank(ctx, query, merged, p.cfg.RerankK)

	return &Result{
		Documents: reranked,
		Context:   ragcontext.Assemble(reranked),
		Queries:   queries,
		Degraded:  degraded,
	}
}
