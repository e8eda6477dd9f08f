package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"
)

// Reranker reorders retrieved documents using an LLM relevance judgment as
// the secondary signal, replacing the original broad vector-similarity
// ordering with a more precise one.
type Reranker struct {
	registry *tools.Registry
	logger   *log.Logger
}

func NewReranker(registry *tools.Registry, logger *log.Logger) *Reranker {
	return &Reranker{
		registry: registry,
		logger:   logger,
	}
}

// Rerank scores each candidate against the query and returns them in
// descending judge-score order, truncated to topN. If the judge call fails
// or returns an unusable result, the incoming vector order is kept so
// retrieval degrades instead of failing.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []store.ScoredDocument, topN int) []store.ScoredDocument {
	if len(candidates) <= 1 {
		return truncate(candidates, topN)
	}

	var sb strings.Builder
	sb.WriteString("Rate the relevance of each document to the query on a scale of 0 to 10.\n\n")
	sb.WriteString(fmt.Sprintf("Query: %s\n\n", query))
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("Document %d (%s):\n%s\n\n", i+1, c.Title, c.Content))
	}
	sb.WriteString(fmt.Sprintf("Respond ONLY with a JSON array of %d numbers, one score per document in order. Example: [7, 2, 9]", len(candidates)))

	raw, err := r.registry.Judge(ctx, sb.String())
	if err != nil {
		r.logger.Printf("[WARN] Re-rank judge call failed, keeping vector order: %v", err)
		return truncate(candidates, topN)
	}

	scores, ok := ParseScores(raw, len(candidates))
	if !ok {
		r.logger.Printf("[WARN] Re-rank judge output unusable, keeping vector order: %s", firstLine(raw))
		return truncate(candidates, topN)
	}

	reranked := make([]store.ScoredDocument, len(candidates))
	copy(reranked, candidates)
	sort.SliceStable(reranked, func(i, j int) bool {
		return scoreOf(scores, candidates, reranked[i].ID) > scoreOf(scores, candidates, reranked[j].ID)
	})

	return truncate(reranked, topN)
}

// ParseScores extracts a JSON array of n numbers from model output, which
// may be wrapped in prose or a code fence.
func ParseScores(raw string, n int) ([]float64, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}

	var scores []float64
	if err := json.Unmarshal([]byte(raw[start:end+1]), &scores); err != nil {
		return nil, false
	}
	if len(scores) != n {
		return nil, false
	}
	return scores, true
}

func scoreOf(scores []float64, original []store.ScoredDocument, id string) float64 {
	for i, c := range original {
		if c.ID == id {
			return scores[i]
		}
	}
	return 0
}

func truncate(docs []store.ScoredDocument, topN int) []store.ScoredDocument {
	if topN > 0 && len(docs) > topN {
		return docs[:topN]
	}
	return docs
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
