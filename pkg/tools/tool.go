package tools

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-jobanalyzer-be/pkg/store"
)

// Capability names, used in tool events and error reporting.
const (
	CapabilityComplete   = "llm_complete"
	CapabilityJudge      = "llm_judge"
	CapabilitySearch     = "vector_search"
	CapabilityEnrichment = "enrichment_lookup"
)

// Completion generates text from a prompt.
type Completion interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorSearch performs similarity search against the resource index.
type VectorSearch interface {
	Search(ctx context.Context, query string, k int) ([]store.ScoredDocument, error)
}

// EnrichmentLookup fetches optional external profile data (e.g. GitHub).
type EnrichmentLookup interface {
	Lookup(ctx context.Context, identifier string) (*EnrichmentData, error)
}

// EnrichmentData is the normalized output of an enrichment lookup.
type EnrichmentData struct {
	Identifier  string   `json:"identifier"`
	ProfileURL  string   `json:"profile_url"`
	PublicRepos int      `json:"public_repos"`
	Languages   []string `json:"languages"`
}

// ToolError wraps a failed capability call. Timeout distinguishes deadline
// overruns from plain failures, since the orchestrator treats them the same
// way but reports them differently.
type ToolError struct {
	Tool    string
	Timeout bool
	Err     error
}

func (e *ToolError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("tool %s timed out: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Timeouts bounds each capability call. Zero means no bound.
type Timeouts struct {
	Generation time.Duration
	Judge      time.Duration
	Search     time.Duration
	Enrichment time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Generation: 30 * time.Second,
		Judge:      10 * time.Second,
		Search:     5 * time.Second,
		Enrichment: 5 * time.Second,
	}
}

// Registry is the closed set of external capabilities the orchestrator may
// call. Capabilities are registered once at startup; every call goes through
// the registry so timeouts and error wrapping are applied uniformly.
type Registry struct {
	completion Completion
	search     VectorSearch
	enrichment EnrichmentLookup
	timeouts   Timeouts
	logger     *log.Logger
}

func NewRegistry(timeouts Timeouts, logger *log.Logger) *Registry {
	return &Registry{
		timeouts: timeouts,
		logger:   logger,
	}
}

func (r *Registry) RegisterCompletion(c Completion)       { r.completion = c }
func (r *Registry) RegisterSearch(s VectorSearch)         { r.search = s }
func (r *Registry) RegisterEnrichment(e EnrichmentLookup) { r.enrichment = e }

// HasEnrichment reports whether an enrichment capability was registered.
func (r *Registry) HasEnrichment() bool { return r.enrichment != nil }

// Complete runs an LLM generation bounded by the generation timeout.
func (r *Registry) Complete(ctx context.Context, prompt string) (string, error) {
	return r.complete(ctx, CapabilityComplete, prompt, r.timeouts.Generation)
}

// Judge runs an LLM evaluation call bounded by the (shorter) judge timeout.
func (r *Registry) Judge(ctx context.Context, prompt string) (string, error) {
	return r.complete(ctx, CapabilityJudge, prompt, r.timeouts.Judge)
}

func (r *Registry) complete(ctx context.Context, tool, prompt string, timeout time.Duration) (string, error) {
	if r.completion == nil {
		return "", &ToolError{Tool: tool, Err: errors.New("no completion capability registered")}
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	out, err := r.completion.Complete(ctx, prompt)
	if err != nil {
		return "", r.wrap(tool, ctx, err)
	}
	return out, nil
}

// Search runs a similarity search bounded by the search timeout.
func (r *Registry) Search(ctx context.Context, query string, k int) ([]store.ScoredDocument, error) {
	if r.search == nil {
		return nil, &ToolError{Tool: CapabilitySearch, Err: errors.New("no search capability registered")}
	}
	ctx, cancel := withTimeout(ctx, r.timeouts.Search)
	defer cancel()

	docs, err := r.search.Search(ctx, query, k)
	if err != nil {
		return nil, r.wrap(CapabilitySearch, ctx, err)
	}
	return docs, nil
}

// Enrich runs an enrichment lookup bounded by the enrichment timeout.
func (r *Registry) Enrich(ctx context.Context, identifier string) (*EnrichmentData, error) {
	if r.enrichment == nil {
		return nil, &ToolError{Tool: CapabilityEnrichment, Err: errors.New("no enrichment capability registered")}
	}
	ctx, cancel := withTimeout(ctx, r.timeouts.Enrichment)
	defer cancel()

	data, err := r.enrichment.Lookup(ctx, identifier)
	if err != nil {
		return nil, r.wrap(CapabilityEnrichment, ctx, err)
	}
	return data, nil
}

func (r *Registry) wrap(tool string, ctx context.Context, err error) error {
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	if r.logger != nil {
		r.logger.Printf("[ERROR] Tool %s failed (timeout=%v): %v", tool, timedOut, err)
	}
	return &ToolError{Tool: tool, Timeout: timedOut, Err: err}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
