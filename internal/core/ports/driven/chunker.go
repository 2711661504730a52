package driven

import "github.com/quietpages/bookchat/internal/core/domain"

// DocumentChunker splits a source document into retrievable chunks.
// Returned chunks carry text and location but no embedding.
type DocumentChunker interface {
	ChunkDocument(path, content string) []domain.Chunk
}
