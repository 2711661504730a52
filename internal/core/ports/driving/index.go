package driving

import (
	"context"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// SourceDocument is a markdown document handed to the index builder.
type SourceDocument struct {
	// Path identifies the document, relative to the content root.
	Path string

	// Content is the raw markdown.
	Content string
}

// BuildStats summarises an index build.
type BuildStats struct {
	Documents  int
	Chunks     int
	Dimensions int
	Model      string
}

// IndexService builds and loads the chunk index.
type IndexService interface {
	// Build chunks and embeds the documents and replaces the stored index.
	Build(ctx context.Context, docs []SourceDocument) (BuildStats, error)

	// Load returns the stored index.
	Load(ctx context.Context) (*domain.RagIndex, error)
}
