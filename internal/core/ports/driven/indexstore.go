package driven

import (
	"context"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// IndexStore persists the chunk index between content builds.
// The index is replaced wholesale; there is no per-chunk mutation.
type IndexStore interface {
	// SaveIndex replaces the stored index with the given one.
	SaveIndex(ctx context.Context, index *domain.RagIndex) error

	// LoadIndex returns the stored index.
	// Returns domain.ErrNotFound if no index has been saved.
	LoadIndex(ctx context.Context) (*domain.RagIndex, error)
}

// TranscriptStore records answered questions.
type TranscriptStore interface {
	// SaveTranscript stores a transcript.
	SaveTranscript(ctx context.Context, t domain.Transcript) error

	// ListTranscripts returns the most recent transcripts, newest first.
	ListTranscripts(ctx context.Context, limit int) ([]domain.Transcript, error)
}
