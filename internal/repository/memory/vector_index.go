package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ai-jobanalyzer-be/pkg/embedding"
	"ai-jobanalyzer-be/pkg/store"
	"ai-jobanalyzer-be/pkg/utils"
)

// VectorIndex is an in-memory cosine-similarity index over the learning
// resource corpus. It is read-mostly: seeded once at startup and then shared
// across concurrent sessions.
type VectorIndex struct {
	mu       sync.RWMutex
	provider embedding.EmbeddingProvider
	entries  []indexEntry
}

type indexEntry struct {
	doc store.Document
	vec []float32
}

func NewVectorIndex(provider embedding.EmbeddingProvider) *VectorIndex {
	return &VectorIndex{
		provider: provider,
	}
}

// Index embeds a document's content and adds it to the index. Insertion
// order is preserved and used as the deterministic tie-break in Search.
func (ix *VectorIndex) Index(doc store.Document) error {
	res, err := ix.provider.Generate(doc.Content, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("embedding generation failed for %s: %w", doc.ID, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = append(ix.entries, indexEntry{
		doc: doc,
		vec: embedding.NormalizeVector(res.Embedding.Values),
	})
	return nil
}

// Seed chunks and indexes a document corpus. Chunks inherit the source
// document's title and metadata so citations stay readable.
func (ix *VectorIndex) Seed(docs []store.Document, chunkSize, overlap int) error {
	for _, doc := range docs {
		chunks := utils.SplitText(doc.Content, chunkSize, overlap)
		for i, chunk := range chunks {
			chunkDoc := doc
			chunkDoc.Content = chunk
			if len(chunks) > 1 {
				chunkDoc.ID = fmt.Sprintf("%s#%d", doc.ID, i)
			}
			if err := ix.Index(chunkDoc); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of indexed chunks.
func (ix *VectorIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search embeds the query and returns the top-k entries by descending cosine
// similarity. Ties break by insertion order, so results are deterministic for
// an identical index and query.
func (ix *VectorIndex) Search(ctx context.Context, query string, k int) ([]store.ScoredDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := ix.provider.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	queryVec := embedding.NormalizeVector(res.Embedding.Values)

	ix.mu.RLock()
	scored := make([]store.ScoredDocument, 0, len(ix.entries))
	for _, entry := range ix.entries {
		scored = append(scored, store.ScoredDocument{
			Document: entry.doc,
			Score:    dot(queryVec, entry.vec),
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
