package services

import (
	"sort"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// Rank scores every chunk in the index against the query vector by cosine
// similarity and returns the k best, highest first.
//
// The scan is exhaustive. Ties keep index order. A chunk or query with zero
// norm, or a chunk whose length differs from the query, scores 0.
// TopScore is 0 for an empty result; Weak is set when TopScore is below
// minCitable.
func Rank(index *domain.RagIndex, query []float32, k int, minCitable float64) domain.RetrievalResult {
	chunks := index.Chunks()
	if k <= 0 || len(chunks) == 0 {
		return domain.RetrievalResult{
			Chunks: []domain.Chunk{},
			Scores: []float64{},
			Weak:   minCitable > 0,
		}
	}

	queryNorm := domain.VectorNorm(query)

	type scored struct {
		pos   int
		score float64
	}
	all := make([]scored, len(chunks))
	for i := range chunks {
		all[i] = scored{pos: i, score: cosine(query, queryNorm, &chunks[i])}
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].score > all[b].score
	})

	if k > len(all) {
		k = len(all)
	}

	result := domain.RetrievalResult{
		Chunks: make([]domain.Chunk, k),
		Scores: make([]float64, k),
	}
	for i := 0; i < k; i++ {
		result.Chunks[i] = chunks[all[i].pos]
		result.Scores[i] = all[i].score
	}
	result.TopScore = result.Scores[0]
	result.Weak = result.TopScore < minCitable

	return result
}

// cosine returns the cosine similarity between the query and a chunk,
// using the chunk's cached norm.
func cosine(query []float32, queryNorm float64, c *domain.Chunk) float64 {
	if queryNorm == 0 || c.EmbeddingNorm == 0 || len(query) != len(c.Embedding) {
		return 0
	}
	var dot float64
	for i, q := range query {
		dot += float64(q) * float64(c.Embedding[i])
	}
	return dot / (queryNorm * c.EmbeddingNorm)
}
