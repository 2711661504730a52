package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
)

// indexStore implements driven.IndexStore.
type indexStore struct {
	store *Store
}

var _ driven.IndexStore = (*indexStore)(nil)

// SaveIndex replaces the stored index in one transaction.
func (s *indexStore) SaveIndex(ctx context.Context, index *domain.RagIndex) error {
	if index == nil {
		return fmt.Errorf("%w: nil index", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, model, dimensions, chunk_count, built_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			model = excluded.model,
			dimensions = excluded.dimensions,
			chunk_count = excluded.chunk_count,
			built_at = excluded.built_at
	`, index.Model(), index.Dimensions(), index.Len(), time.Now().UTC()); err != nil {
		return fmt.Errorf("saving index metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (seq, id, file_path, heading_path, chunk_index, text, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range index.Chunks() {
		headings := chunk.HeadingPath
		if headings == nil {
			headings = []string{}
		}
		headingJSON, err := json.Marshal(headings)
		if err != nil {
			return fmt.Errorf("marshalling heading path: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, i, chunk.ID, chunk.FilePath, string(headingJSON),
			chunk.ChunkIndex, chunk.Text, float32SliceToBytes(chunk.Embedding)); err != nil {
			return fmt.Errorf("saving chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadIndex reads the stored index in its original order.
// Norms are recomputed by domain.NewRagIndex.
func (s *indexStore) LoadIndex(ctx context.Context) (*domain.RagIndex, error) {
	var (
		model      string
		dimensions int
		chunkCount int
	)
	row := s.store.db.QueryRowContext(ctx,
		"SELECT model, dimensions, chunk_count FROM index_meta WHERE id = 1")
	if err := row.Scan(&model, &dimensions, &chunkCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reading index metadata: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, file_path, heading_path, chunk_index, text, embedding
		FROM chunks
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]domain.Chunk, 0, chunkCount)
	for rows.Next() {
		var (
			chunk       domain.Chunk
			headingJSON string
			blob        []byte
		)
		if err := rows.Scan(&chunk.ID, &chunk.FilePath, &headingJSON, &chunk.ChunkIndex,
			&chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(headingJSON), &chunk.HeadingPath); err != nil {
			return nil, fmt.Errorf("unmarshalling heading path of %s: %w", chunk.ID, err)
		}
		if len(chunk.HeadingPath) == 0 {
			chunk.HeadingPath = nil
		}
		if chunk.Embedding, err = bytesToFloat32Slice(blob); err != nil {
			return nil, fmt.Errorf("decoding embedding of %s: %w", chunk.ID, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	if len(chunks) != chunkCount {
		return nil, fmt.Errorf("index metadata lists %d chunks, found %d", chunkCount, len(chunks))
	}

	index, err := domain.NewRagIndex(model, chunks)
	if err != nil {
		return nil, fmt.Errorf("rebuilding index: %w", err)
	}
	if index.Len() > 0 && index.Dimensions() != dimensions {
		return nil, fmt.Errorf("%w: stored vectors have %d dimensions, metadata says %d",
			domain.ErrDimensionMismatch, index.Dimensions(), dimensions)
	}
	return index, nil
}
