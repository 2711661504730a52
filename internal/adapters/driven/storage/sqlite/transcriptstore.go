package sqlite

import (
	"context"
	"fmt"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
)

// transcriptStore implements driven.TranscriptStore.
type transcriptStore struct {
	store *Store
}

var _ driven.TranscriptStore = (*transcriptStore)(nil)

// SaveTranscript stores a transcript.
func (s *transcriptStore) SaveTranscript(ctx context.Context, t domain.Transcript) error {
	if t.ID == "" {
		return fmt.Errorf("%w: transcript id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO transcripts (id, query, reply, grounded, top_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Query, t.Reply, t.Grounded, t.TopScore, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}
	return nil
}

// ListTranscripts returns the most recent transcripts, newest first.
// A non-positive limit returns all of them.
func (s *transcriptStore) ListTranscripts(ctx context.Context, limit int) ([]domain.Transcript, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, query, reply, grounded, top_score, created_at
		FROM transcripts
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying transcripts: %w", err)
	}
	defer rows.Close()

	var transcripts []domain.Transcript
	for rows.Next() {
		var t domain.Transcript
		if err := rows.Scan(&t.ID, &t.Query, &t.Reply, &t.Grounded, &t.TopScore, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning transcript: %w", err)
		}
		transcripts = append(transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transcripts: %w", err)
	}
	return transcripts, nil
}
