package domain

import (
	"fmt"
	"math"
)

// Chunk is a retrievable excerpt of a source document.
// Chunks are produced once per content build and never mutated afterwards.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// FilePath identifies the source document the chunk was extracted from.
	FilePath string

	// HeadingPath is the ordered list of section headings above the chunk.
	// Empty when the chunk sits before any heading.
	HeadingPath []string

	// ChunkIndex is the zero-based position of the chunk within its file.
	ChunkIndex int

	// Text is the literal excerpt text.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// EmbeddingNorm is the cached Euclidean norm of Embedding.
	EmbeddingNorm float64
}

// DisplayIndex returns the 1-based position used in citations.
func (c Chunk) DisplayIndex() int {
	return c.ChunkIndex + 1
}

// WithEmbedding returns a copy of the chunk carrying the vector and its norm.
func (c Chunk) WithEmbedding(embedding []float32) Chunk {
	c.Embedding = embedding
	c.EmbeddingNorm = VectorNorm(embedding)
	return c
}

// VectorNorm returns the Euclidean norm of v.
// Accumulation happens in float64 to keep long vectors stable.
func VectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// RagIndex is the complete retrievable corpus for one book.
// It is safe for concurrent readers because nothing mutates it after NewRagIndex.
type RagIndex struct {
	chunks     []Chunk
	model      string
	dimensions int
}

// NewRagIndex builds an index from chunks embedded with the given model.
// Every chunk must carry an embedding of the same length. Norms are
// recomputed so callers cannot smuggle in a stale value.
func NewRagIndex(model string, chunks []Chunk) (*RagIndex, error) {
	dims := 0
	owned := make([]Chunk, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return nil, fmt.Errorf("%w: chunk %d (%s) has no embedding", ErrInvalidInput, i, c.FilePath)
		}
		if dims == 0 {
			dims = len(c.Embedding)
		}
		if len(c.Embedding) != dims {
			return nil, fmt.Errorf("%w: chunk %d (%s) has %d dimensions, want %d",
				ErrDimensionMismatch, i, c.FilePath, len(c.Embedding), dims)
		}
		vec := make([]float32, dims)
		copy(vec, c.Embedding)
		c.HeadingPath = append([]string(nil), c.HeadingPath...)
		owned[i] = c.WithEmbedding(vec)
	}

	return &RagIndex{
		chunks:     owned,
		model:      model,
		dimensions: dims,
	}, nil
}

// Chunks returns the indexed chunks in storage order.
// The returned slice must be treated as read-only.
func (r *RagIndex) Chunks() []Chunk {
	if r == nil {
		return nil
	}
	return r.chunks
}

// Len returns the number of chunks.
func (r *RagIndex) Len() int {
	if r == nil {
		return 0
	}
	return len(r.chunks)
}

// Model returns the embedding model the index was built with.
func (r *RagIndex) Model() string {
	if r == nil {
		return ""
	}
	return r.model
}

// Dimensions returns the embedding length shared by every chunk, or 0 when empty.
func (r *RagIndex) Dimensions() int {
	if r == nil {
		return 0
	}
	return r.dimensions
}
