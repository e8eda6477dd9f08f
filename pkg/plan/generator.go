package plan

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/tools"
)

// Resource is a learning resource cited by a plan. Resources come only from
// retrieved documents, never from model output, so every entry is traceable
// back to the corpus.
type Resource struct {
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Reference string `json:"reference"`
}

// Plan is the final learning plan for closing the identified skill gaps.
type Plan struct {
	Summary   string     `json:"summary"`
	Steps     []string   `json:"steps"`
	Resources []Resource `json:"resources"`
	Caveats   []string   `json:"caveats,omitempty"`
}

// Generator produces the learning plan narrative from the gap analysis and
// the retrieval context.
type Generator struct {
	registry *tools.Registry
	logger   *log.Logger
}

func NewGenerator(registry *tools.Registry, logger *log.Logger) *Generator {
	return &Generator{
		registry: registry,
		logger:   logger,
	}
}

const planPrompt = `You are a career development assistant. Based on the skill gap analysis and
the learning resources below, write a practical learning plan.

Skill gaps to close: %s

Gap analysis:
%s

Available learning resources (use ONLY these, do not invent others):
%s

Write the plan as:
- One short summary paragraph.
- A numbered list of concrete learning steps, each referencing which resource to use.

Do not mention resources that are not listed above.`

// Generate builds the plan. The narrative comes from the LLM; the resource
// list is taken verbatim from the retrieved documents. When generation
// fails, a minimal plan listing the resources is returned instead of an
// error so the session still completes with something actionable.
func (g *Generator) Generate(ctx context.Context, gaps []string, analysis string, docs []store.ScoredDocument, degraded bool) *Plan {
	p := &Plan{
		Resources: resourcesFrom(docs),
	}
	if degraded {
		p.Caveats = append(p.Caveats, "Resource retrieval was degraded; the resource list may be incomplete.")
	}
	if len(gaps) == 0 {
		p.Summary = "No skill gaps were identified. The current skill set already covers the role's requirements."
		return p
	}

	var sources strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&sources, "- %s\n", d.Reference())
	}
	if sources.Len() == 0 {
		sources.WriteString("(no resources retrieved)")
	}

	narrative, err := g.registry.Complete(ctx, fmt.Sprintf(planPrompt, strings.Join(gaps, ", "), analysis, sources.String()))
	if err != nil {
		g.logger.Printf("[WARN] Plan narrative generation failed, returning resource-only plan: %v", err)
		p.Summary = fmt.Sprintf("Focus on closing these gaps: %s. Work through the listed resources in order.", strings.Join(gaps, ", "))
		p.Steps = fallbackSteps(gaps, p.Resources)
		p.Caveats = append(p.Caveats, "Plan narrative could not be generated; steps are a direct mapping of gaps to resources.")
		return p
	}

	p.Summary, p.Steps = splitNarrative(narrative)
	return p
}

func resourcesFrom(docs []store.ScoredDocument) []Resource {
	seen := make(map[string]bool, len(docs))
	var out []Resource
	for _, d := range docs {
		key := d.Title + "|" + d.URL()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Resource{
			Title:     d.Title,
			URL:       d.URL(),
			Reference: d.Reference(),
		})
	}
	return out
}

func fallbackSteps(gaps []string, resources []Resource) []string {
	steps := make([]string, 0, len(gaps))
	for i, gap := range gaps {
		step := fmt.Sprintf("Learn %s", gap)
		if i < len(resources) {
			step = fmt.Sprintf("%s using %s", step, resources[i].Reference)
		}
		steps = append(steps, step)
	}
	return steps
}

// splitNarrative separates the summary paragraph from the numbered steps.
func splitNarrative(narrative string) (string, []string) {
	var summary []string
	var steps []string
	for _, line := range strings.Split(narrative, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isNumbered(line) {
			steps = append(steps, strings.TrimSpace(trimNumber(line)))
			continue
		}
		if len(steps) == 0 {
			summary = append(summary, line)
		}
	}
	return strings.Join(summary, " "), steps
}

func isNumbered(line string) bool {
	if len(line) < 2 {
		return false
	}
	return line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')')
}

func trimNumber(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '.' || line[i] == ')' {
			return line[i+1:]
		}
	}
	return line
}
