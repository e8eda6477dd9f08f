package ragcontext

import (
	"fmt"
	"sort"
	"strings"

	"ai-jobanalyzer-be/pkg/store"
)

// Merge combines result sets from multiple queries into a single ranked
// list. Documents are de-duplicated by id keeping the highest score; ties
// break by first-seen order so the merge is deterministic.
func Merge(resultSets ...[]store.ScoredDocument) []store.ScoredDocument {
	var merged []store.ScoredDocument
	position := make(map[string]int) // doc id -> index in merged

	for _, set := range resultSets {
		for _, doc := range set {
			if idx, seen := position[doc.ID]; seen {
				if doc.Score > merged[idx].Score {
					merged[idx].Score = doc.Score
				}
				continue
			}
			position[doc.ID] = len(merged)
			merged = append(merged, doc)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}

// Assemble renders the retained documents into a single context block,
// preserving rank order. The block is what grounds plan generation: anything
// not in it must not be cited.
func Assemble(docs []store.ScoredDocument) string {
	if len(docs) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, doc := range docs {
		sb.WriteString(fmt.Sprintf("--- RESOURCE %d: %s ---\n", i+1, doc.Title))
		sb.WriteString(doc.Content)
		if u := doc.URL(); u != "" {
			sb.WriteString(fmt.Sprintf("\nSource: %s", u))
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
