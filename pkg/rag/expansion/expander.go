package expansion

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-jobanalyzer-be/pkg/tools"
)

// Expander derives semantically distinct search queries from an original
// query using the LLM. The original query is always included first.
type Expander struct {
	registry *tools.Registry
	logger   *log.Logger
}

func NewExpander(registry *tools.Registry, logger *log.Logger) *Expander {
	return &Expander{
		registry: registry,
		logger:   logger,
	}
}

const expansionPrompt = `Given the following query, generate %d related search queries that
would help find more comprehensive information.
Focus on synonyms, related concepts, and broader/narrower terms.

Original Query: %s

Generate %d expanded queries:
1.
2.
3.
`

// Expand returns the original query plus up to extra LLM-generated variants.
// On LLM failure it falls back to the original query alone; expansion is
// never worth failing a retrieval over.
func (e *Expander) Expand(ctx context.Context, query string, extra int) []string {
	if extra <= 0 {
		return []string{query}
	}

	raw, err := e.registry.Complete(ctx, fmt.Sprintf(expansionPrompt, extra, query, extra))
	if err != nil {
		e.logger.Printf("[WARN] Query expansion failed, using original query only: %v", err)
		return []string{query}
	}

	return ParseExpansions(raw, query, extra)
}

// ParseExpansions pulls numbered queries ("1. ...", "2. ...") out of the
// model output. The original query leads the result; duplicates of it are
// skipped. At most 1+max queries are returned.
func ParseExpansions(raw, original string, max int) []string {
	queries := []string{original}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		numbered := false
		for i := 1; i <= 9; i++ {
			if strings.HasPrefix(line, fmt.Sprintf("%d.", i)) {
				numbered = true
				break
			}
		}
		if !numbered {
			continue
		}
		parts := strings.SplitN(line, ".", 2)
		if len(parts) != 2 {
			continue
		}
		q := strings.TrimSpace(parts[1])
		if q == "" || strings.EqualFold(q, original) {
			continue
		}
		queries = append(queries, q)
		if len(queries) == max+1 {
			break
		}
	}

	return queries
}
