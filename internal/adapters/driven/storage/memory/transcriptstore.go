package memory

import (
	"context"
	"sync"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
)

// Ensure TranscriptStore implements the interface.
var _ driven.TranscriptStore = (*TranscriptStore)(nil)

// TranscriptStore is an in-memory implementation of driven.TranscriptStore.
type TranscriptStore struct {
	mu          sync.RWMutex
	transcripts []domain.Transcript
}

// NewTranscriptStore creates a new in-memory transcript store.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{}
}

// SaveTranscript stores a transcript.
func (s *TranscriptStore) SaveTranscript(_ context.Context, t domain.Transcript) error {
	if t.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = append(s.transcripts, t)
	return nil
}

// ListTranscripts returns the most recent transcripts, newest first.
// A non-positive limit returns all of them.
func (s *TranscriptStore) ListTranscripts(_ context.Context, limit int) ([]domain.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.transcripts)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]domain.Transcript, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, s.transcripts[i])
	}
	return result, nil
}
