package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"
)

// Record is the evaluation outcome for one generated-answer/context pair.
// Quality is in [0, 1]; the reviewer stage decides on it.
type Record struct {
	AnswerLength    int     `json:"answer_length"`
	ContextDocsUsed int     `json:"context_docs_used"`
	Judgment        string  `json:"judgment"`
	Quality         float64 `json:"quality"`
	Feedback        string  `json:"feedback,omitempty"`
}

// Evaluator scores generated text against the retrieval context that
// produced it. The LLM judge is best-effort: when it times out or returns
// garbage the record carries an "unavailable" judgment and a heuristic
// quality so the flow never blocks on evaluation.
type Evaluator struct {
	registry *tools.Registry
	logger   *log.Logger
}

func NewEvaluator(registry *tools.Registry, logger *log.Logger) *Evaluator {
	return &Evaluator{
		registry: registry,
		logger:   logger,
	}
}

const judgePrompt = `You are reviewing an AI-generated skill gap analysis for faithfulness to its sources.

Generated analysis:
%s

Source documents it was based on:
%s

Rate the analysis from 0.0 to 1.0 on how well it is grounded in the sources and covers the question.
Respond ONLY with JSON: {"quality": <number>, "feedback": "<one sentence on what is missing or weak>"}`

// Evaluate scores answer against the documents it was grounded on.
func (e *Evaluator) Evaluate(ctx context.Context, answer string, docs []store.ScoredDocument) Record {
	rec := Record{
		AnswerLength:    len(answer),
		ContextDocsUsed: len(docs),
	}

	var sources strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&sources, "- %s: %s\n", d.Title, d.Content)
	}

	raw, err := e.registry.Judge(ctx, fmt.Sprintf(judgePrompt, answer, sources.String()))
	if err != nil {
		e.logger.Printf("[WARN] Quality judge unavailable, using heuristic: %v", err)
		rec.Judgment = "unavailable"
		rec.Quality = heuristicQuality(rec)
		return rec
	}

	quality, feedback, ok := ParseQuality(raw)
	if !ok {
		e.logger.Printf("[WARN] Quality judge output unusable, using heuristic")
		rec.Judgment = "unavailable"
		rec.Quality = heuristicQuality(rec)
		return rec
	}

	rec.Judgment = "judged"
	rec.Quality = clamp01(quality)
	rec.Feedback = feedback
	return rec
}

// ParseQuality extracts the quality score and feedback from judge output,
// tolerating prose or code fences around the JSON object.
func ParseQuality(raw string) (float64, string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return 0, "", false
	}

	var parsed struct {
		Quality  *float64 `json:"quality"`
		Feedback string   `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil || parsed.Quality == nil {
		return 0, "", false
	}
	return *parsed.Quality, parsed.Feedback, true
}

// heuristicQuality approximates quality from structural signals when no
// judge is available. A non-trivial answer grounded in several documents
// passes; anything thin does not.
func heuristicQuality(rec Record) float64 {
	score := 0.0
	if rec.AnswerLength >= 200 {
		score += 0.4
	} else if rec.AnswerLength >= 50 {
		score += 0.2
	}
	if rec.ContextDocsUsed >= 3 {
		score += 0.4
	} else if rec.ContextDocsUsed >= 1 {
		score += 0.2
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
