package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"ai-jobanalyzer-be/pkg/events"
	"ai-jobanalyzer-be/pkg/plan"
	"ai-jobanalyzer-be/pkg/rag"
	"ai-jobanalyzer-be/pkg/rag/eval"
	"ai-jobanalyzer-be/pkg/rag/ragcontext"
	"ai-jobanalyzer-be/pkg/skills"
	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"
)

// Config bounds the analysis flow.
type Config struct {
	QualityThreshold    float64 // reviewer acceptance bar, in [0, 1]
	MaxRetrievalRetries int     // focused-retrieval retries the reviewer may spend
}

func DefaultOrchestratorConfig() Config {
	return Config{
		QualityThreshold:    0.6,
		MaxRetrievalRetries: 2,
	}
}

// Orchestrator runs the analysis flow as an explicit state machine over the
// stage graph. Each stage reads from and writes to the flow state; the only
// loop is reflect sending the flow back to focused retrieval.
type Orchestrator struct {
	registry  *tools.Registry
	pipeline  *rag.Pipeline
	evaluator *eval.Evaluator
	planner   *plan.Generator
	bus       *events.Bus
	sessions  SessionStore
	cfg       Config
	logger    *log.Logger
}

func NewOrchestrator(
	registry *tools.Registry,
	pipeline *rag.Pipeline,
	evaluator *eval.Evaluator,
	planner *plan.Generator,
	bus *events.Bus,
	sessions SessionStore,
	cfg Config,
	logger *log.Logger,
) *Orchestrator {
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = DefaultOrchestratorConfig().QualityThreshold
	}
	if cfg.MaxRetrievalRetries < 0 {
		cfg.MaxRetrievalRetries = DefaultOrchestratorConfig().MaxRetrievalRetries
	}
	return &Orchestrator{
		registry:  registry,
		pipeline:  pipeline,
		evaluator: evaluator,
		planner:   planner,
		bus:       bus,
		sessions:  sessions,
		cfg:       cfg,
		logger:    logger,
	}
}

// flowState is the mutable state threaded through the stages of one run.
type flowState struct {
	required *skills.SkillSet
	current  *skills.SkillSet
	gaps     *skills.SkillSet

	basic    *rag.Result
	advanced *rag.Result

	analysis       string
	evaluation     eval.Record
	enrichment     *tools.EnrichmentData
	enrichmentDone bool
	plan           *plan.Plan

	retries   int
	retryHint string
	degraded  bool
}

// Prepare validates the input and registers a new running session without
// executing anything. Callers then drive it with RunSession, possibly on
// another goroutine.
func (o *Orchestrator) Prepare(input Input) (*Session, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	session := NewSession(input)
	o.sessions.Save(session)
	return session, nil
}

// Run validates the input and executes the flow to completion. It blocks
// until the session finishes; callers wanting async execution use Prepare
// plus RunSession and observe progress through the event bus.
func (o *Orchestrator) Run(ctx context.Context, input Input) (*Session, error) {
	session, err := o.Prepare(input)
	if err != nil {
		return nil, err
	}
	return session, o.RunSession(ctx, session)
}

// RunSession executes a prepared session to completion.
func (o *Orchestrator) RunSession(ctx context.Context, session *Session) error {
	o.publish(events.Event{Type: events.TypeAgentStart, SessionID: session.ID})

	result, err := o.execute(ctx, session)
	switch {
	case ctx.Err() != nil:
		session.cancel()
		o.publish(events.Event{Type: events.TypeAgentEnd, SessionID: session.ID, Status: string(StatusCancelled)})
	case err != nil:
		session.fail(err)
		o.publish(events.Event{Type: events.TypeAgentEnd, SessionID: session.ID, Status: string(StatusFailed), Error: err.Error()})
	default:
		session.complete(result)
		o.publish(events.Event{
			Type:      events.TypeAnalysisComplete,
			SessionID: session.ID,
			Data: map[string]interface{}{
				"gaps":    result.Gaps,
				"quality": result.Evaluation.Quality,
			},
		})
		o.publish(events.Event{Type: events.TypeAgentEnd, SessionID: session.ID, Status: string(StatusCompleted)})
	}

	o.sessions.Save(session)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (o *Orchestrator) execute(ctx context.Context, session *Session) (*Result, error) {
	state := &flowState{}
	stage := StageExtractSkills

	// Enrichment is optional and slow, so it runs alongside the early
	// stages and is collected before gap analysis needs it.
	enrichmentCh := o.startEnrichment(ctx, session)

	for stage != StageDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session.beginStage(stage)
		o.publish(events.Event{Type: events.TypeNodeStart, SessionID: session.ID, Stage: string(stage)})

		next, err := o.runStage(ctx, session, stage, state, enrichmentCh)

		session.endStage(stage, err)
		if err != nil {
			o.publish(events.Event{Type: events.TypeNodeError, SessionID: session.ID, Stage: string(stage), Error: err.Error()})
			return nil, &StageError{Stage: stage, Err: err}
		}
		o.publish(events.Event{Type: events.TypeNodeEnd, SessionID: session.ID, Stage: string(stage)})

		stage = next
	}

	return o.buildResult(state), nil
}

func (o *Orchestrator) runStage(ctx context.Context, session *Session, stage Stage, state *flowState, enrichmentCh <-chan *tools.EnrichmentData) (Stage, error) {
	switch stage {
	case StageExtractSkills:
		return StageRetrieveBasic, o.extractSkills(ctx, session, state)
	case StageRetrieveBasic:
		return StageRetrieveAdvanced, o.retrieveBasic(ctx, session, state)
	case StageRetrieveAdvanced:
		return StageAnalyzeGaps, o.retrieveAdvanced(ctx, session, state)
	case StageAnalyzeGaps:
		if enrichmentCh != nil && !state.enrichmentDone {
			state.enrichment = <-enrichmentCh
			state.enrichmentDone = true
		}
		return StageReflect, o.analyzeGaps(ctx, session, state)
	case StageReflect:
		return o.reflect(ctx, session, state), nil
	case StageGeneratePlan:
		return StageValidate, o.generatePlan(ctx, session, state)
	case StageValidate:
		return StageDone, o.validate(session, state)
	default:
		return StageDone, fmt.Errorf("unknown stage %q", stage)
	}
}

// extractSkills parses the required skills out of the job description and
// normalizes the user's current skills. This stage is critical; without a
// skill set nothing downstream can run.
func (o *Orchestrator) extractSkills(ctx context.Context, session *Session, state *flowState) error {
	prompt := fmt.Sprintf(`Extract the technical skills required by this job description.
Respond ONLY with a comma-separated list of skill names, nothing else.

Job description:
%s`, session.Input.JobDescription)

	raw, err := o.registry.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("skill extraction: %w", err)
	}

	required := skills.ParseList(raw)
	if required.Len() == 0 {
		return fmt.Errorf("skill extraction: no skills found in model output")
	}

	state.required = required
	state.current = skills.New(session.Input.CurrentSkills...)
	state.gaps = state.required.Subtract(state.current)

	o.publish(events.Event{
		Type:      events.TypeThinking,
		SessionID: session.ID,
		Stage:     string(StageExtractSkills),
		Data: map[string]interface{}{
			"required_skills": state.required.Items(),
			"gaps":            state.gaps.Items(),
		},
	})
	return nil
}

// retrieveBasic runs the broad retrieval pass. Failure degrades, never
// aborts.
func (o *Orchestrator) retrieveBasic(ctx context.Context, session *Session, state *flowState) error {
	state.basic = o.pipeline.Basic(ctx, state.required.Items())
	if state.basic.Degraded {
		state.degraded = true
		o.publishDegraded(session, StageRetrieveBasic)
	}
	return nil
}

// retrieveAdvanced runs the focused multi-query pass over the gaps. On a
// reviewer-triggered retry the hint from the previous evaluation steers the
// queries.
func (o *Orchestrator) retrieveAdvanced(ctx context.Context, session *Session, state *flowState) error {
	if state.gaps.Len() == 0 {
		state.advanced = &rag.Result{}
		return nil
	}

	jobContext := summarize(session.Input.JobDescription, 200)
	state.advanced = o.pipeline.Advanced(ctx, state.gaps.Items(), jobContext, state.retryHint)
	if state.advanced.Degraded {
		state.degraded = true
		o.publishDegraded(session, StageRetrieveAdvanced)
	}
	return nil
}

// analyzeGaps produces the narrative gap analysis grounded in the focused
// retrieval context. An LLM failure falls back to a deterministic narrative
// so the flow continues degraded rather than failing.
func (o *Orchestrator) analyzeGaps(ctx context.Context, session *Session, state *flowState) error {
	if state.gaps.Len() == 0 {
		state.analysis = "All required skills are already covered by the current skill set. No gaps to analyze."
		return nil
	}

	var enrichmentNote string
	if state.enrichment != nil {
		enrichmentNote = fmt.Sprintf("\nThe candidate's public profile (%s) shows %d repositories, mainly in: %s.",
			state.enrichment.ProfileURL, state.enrichment.PublicRepos, strings.Join(state.enrichment.Languages, ", "))
	}

	prompt := fmt.Sprintf(`Analyze the gap between a candidate's skills and a job's requirements.

Required skills: %s
Current skills: %s
Missing skills: %s%s

Learning resources found for the missing skills:
%s

Write a concise analysis of each missing skill: why the role needs it, how it
relates to what the candidate already knows, and how hard it will be to pick up.
Base resource recommendations only on the resources listed above.`,
		strings.Join(state.required.Items(), ", "),
		strings.Join(state.current.Items(), ", "),
		strings.Join(state.gaps.Items(), ", "),
		enrichmentNote,
		state.advanced.Context)

	raw, err := o.registry.Complete(ctx, prompt)
	if err != nil {
		o.logger.Printf("[WARN] Gap analysis generation failed, using deterministic fallback: %v", err)
		state.analysis = fmt.Sprintf("Missing skills relative to the role: %s. Review the retrieved resources for each.", strings.Join(state.gaps.Items(), ", "))
		state.degraded = true
		return nil
	}
	state.analysis = raw

	o.publish(events.Event{
		Type:      events.TypeReasoning,
		SessionID: session.ID,
		Stage:     string(StageAnalyzeGaps),
		Data:      map[string]interface{}{"analysis_length": len(raw)},
	})
	return nil
}

// reflect scores the analysis and decides whether to loop back for another
// focused retrieval pass. The retry budget bounds the loop; once spent, the
// flow proceeds regardless and the low quality is recorded on the result.
func (o *Orchestrator) reflect(ctx context.Context, session *Session, state *flowState) Stage {
	state.evaluation = o.evaluator.Evaluate(ctx, state.analysis, state.advanced.Documents)

	accepted := state.evaluation.Quality >= o.cfg.QualityThreshold
	retry := !accepted && state.retries < o.cfg.MaxRetrievalRetries && state.gaps.Len() > 0

	o.publish(events.Event{
		Type:      events.TypeReasoning,
		SessionID: session.ID,
		Stage:     string(StageReflect),
		Data: map[string]interface{}{
			"quality":   state.evaluation.Quality,
			"judgment":  state.evaluation.Judgment,
			"threshold": o.cfg.QualityThreshold,
			"accepted":  accepted,
			"retry":     retry,
		},
	})

	if retry {
		state.retries++
		state.retryHint = state.evaluation.Feedback
		if state.retryHint == "" {
			state.retryHint = "more specific and practical learning material"
		}
		return StageRetrieveAdvanced
	}
	return StageGeneratePlan
}

// generatePlan builds the learning plan from the analysis and the focused
// retrieval documents, falling back to the broad pass when the focused pass
// came up empty.
func (o *Orchestrator) generatePlan(ctx context.Context, session *Session, state *flowState) error {
	docs := state.advanced.Documents
	if len(docs) == 0 && state.basic != nil {
		docs = state.basic.Documents
	}

	p := o.planner.Generate(ctx, state.gaps.Items(), state.analysis, docs, state.degraded)
	if state.evaluation.Quality < o.cfg.QualityThreshold {
		p.Caveats = append(p.Caveats, ErrQualityBelowThreshold.Error())
	}
	state.plan = p
	return nil
}

// validate checks the output invariants before the session completes: the
// gap set is a subset of the required set, and every cited resource traces
// back to a retrieved document.
func (o *Orchestrator) validate(session *Session, state *flowState) error {
	checks := map[string]bool{
		"gaps_subset_of_required": true,
		"resources_grounded":      true,
		"plan_present":            state.plan != nil,
	}

	for _, gap := range state.gaps.Items() {
		if !state.required.Contains(gap) {
			checks["gaps_subset_of_required"] = false
			break
		}
	}

	retrieved := make(map[string]bool)
	for _, d := range o.retrievedDocs(state) {
		retrieved[d.Title+"|"+d.URL()] = true
	}
	if state.plan != nil {
		grounded := state.plan.Resources[:0]
		for _, r := range state.plan.Resources {
			if retrieved[r.Title+"|"+r.URL] {
				grounded = append(grounded, r)
				continue
			}
			checks["resources_grounded"] = false
			o.logger.Printf("[WARN] Dropping ungrounded resource from plan: %s", r.Title)
		}
		state.plan.Resources = grounded
	}

	passed := true
	for _, ok := range checks {
		passed = passed && ok
	}

	o.publish(events.Event{
		Type:      events.TypeValidationResult,
		SessionID: session.ID,
		Stage:     string(StageValidate),
		Status:    validationStatus(passed),
		Data:      map[string]interface{}{"checks": checks},
	})

	if !passed && state.plan != nil {
		state.plan.Caveats = append(state.plan.Caveats, "Some output failed validation and was removed.")
	}
	return nil
}

func validationStatus(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

func (o *Orchestrator) retrievedDocs(state *flowState) []store.ScoredDocument {
	var sets [][]store.ScoredDocument
	if state.basic != nil {
		sets = append(sets, state.basic.Documents)
	}
	if state.advanced != nil {
		sets = append(sets, state.advanced.Documents)
	}
	return ragcontext.Merge(sets...)
}

// startEnrichment kicks off the optional profile lookup in the background.
// Returns nil when no lookup applies; otherwise the channel always yields
// exactly one value (possibly nil on failure).
func (o *Orchestrator) startEnrichment(ctx context.Context, session *Session) <-chan *tools.EnrichmentData {
	username := strings.TrimSpace(session.Input.GithubUsername)
	if username == "" || !o.registry.HasEnrichment() {
		return nil
	}

	ch := make(chan *tools.EnrichmentData, 1)
	go func() {
		defer close(ch)
		o.publish(events.Event{Type: events.TypeToolStart, SessionID: session.ID, Tool: tools.CapabilityEnrichment})
		data, err := o.registry.Enrich(ctx, username)
		if err != nil {
			o.logger.Printf("[WARN] Enrichment lookup failed for %s: %v", username, err)
			o.publish(events.Event{Type: events.TypeToolError, SessionID: session.ID, Tool: tools.CapabilityEnrichment, Error: err.Error()})
			ch <- nil
			return
		}
		o.publish(events.Event{Type: events.TypeToolEnd, SessionID: session.ID, Tool: tools.CapabilityEnrichment})
		ch <- data
	}()
	return ch
}

func (o *Orchestrator) buildResult(state *flowState) *Result {
	return &Result{
		RequiredSkills:   state.required.Items(),
		CurrentSkills:    state.current.Items(),
		Gaps:             state.gaps.Items(),
		Analysis:         state.analysis,
		Evaluation:       state.evaluation,
		Plan:             state.plan,
		Enrichment:       state.enrichment,
		Degraded:         state.degraded,
		RetrievalRetries: state.retries,
	}
}

func (o *Orchestrator) publishDegraded(session *Session, stage Stage) {
	o.publish(events.Event{
		Type:      events.TypeDegradedRetrieval,
		SessionID: session.ID,
		Stage:     string(stage),
	})
}

func (o *Orchestrator) publish(e events.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

func validateInput(input Input) error {
	desc := strings.TrimSpace(input.JobDescription)
	if desc == "" {
		return &ValidationError{Field: "job_description", Reason: "must not be empty"}
	}
	if len(desc) < 20 {
		return &ValidationError{Field: "job_description", Reason: "too short to analyze"}
	}
	return nil
}

// summarize collapses whitespace and truncates to at most max bytes, never
// splitting a multi-byte rune.
func summarize(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}
