package memory

import (
	"context"
	"testing"

	"ai-jobanalyzer-be/pkg/embedding"
	"ai-jobanalyzer-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder maps known texts to fixed vectors so similarity is exact.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	vec, ok := f.vectors[text]
	if !ok {
		vec = []float32{0, 0, 1}
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: vec},
	}, nil
}

func TestVectorIndexSearchOrdering(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"doc a": {1, 0, 0},
		"doc b": {0.8, 0.6, 0},
		"doc c": {0, 1, 0},
		"query": {1, 0, 0},
	}}
	ix := NewVectorIndex(emb)

	for _, d := range []store.Document{
		{ID: "a", Title: "A", Content: "doc a"},
		{ID: "b", Title: "B", Content: "doc b"},
		{ID: "c", Title: "C", Content: "doc c"},
	} {
		require.NoError(t, ix.Index(d))
	}

	results, err := ix.Search(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestVectorIndexTieBreakByInsertionOrder(t *testing.T) {
	// Identical vectors: scores tie exactly, insertion order must win
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"same": {0, 1, 0}, "query": {0, 1, 0},
	}}
	ix := NewVectorIndex(emb)

	require.NoError(t, ix.Index(store.Document{ID: "first", Content: "same"}))
	require.NoError(t, ix.Index(store.Document{ID: "second", Content: "same"}))

	results, err := ix.Search(context.Background(), "query", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
}

func TestVectorIndexSeedChunksLongDocuments(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{}}
	ix := NewVectorIndex(emb)

	long := make([]byte, 250)
	for i := range long {
		long[i] = 'x'
	}
	docs := []store.Document{
		{ID: "short", Content: "short doc"},
		{ID: "long", Content: string(long)},
	}

	require.NoError(t, ix.Seed(docs, 100, 20))
	assert.Greater(t, ix.Len(), 2, "long doc should produce multiple chunks")
}
