package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService builds the chunk index from source documents.
type IndexService struct {
	store            driven.IndexStore
	chunker          driven.DocumentChunker
	embeddingService driven.EmbeddingService
	settings         domain.IndexSettings
}

// NewIndexService creates an index service.
// Zero-valued settings fall back to the defaults.
func NewIndexService(
	store driven.IndexStore,
	chunker driven.DocumentChunker,
	embeddingService driven.EmbeddingService,
	settings domain.IndexSettings,
) *IndexService {
	defaults := domain.DefaultAppSettings().Index
	if settings.BatchSize <= 0 {
		settings.BatchSize = defaults.BatchSize
	}
	if settings.Concurrency <= 0 {
		settings.Concurrency = defaults.Concurrency
	}
	if settings.RequestsPerSecond < 0 {
		settings.RequestsPerSecond = 0
	}

	return &IndexService{
		store:            store,
		chunker:          chunker,
		embeddingService: embeddingService,
		settings:         settings,
	}
}

// Build chunks and embeds the documents, then replaces the stored index.
// Nothing is saved unless every chunk was embedded.
func (s *IndexService) Build(ctx context.Context, docs []driving.SourceDocument) (driving.BuildStats, error) {
	logger.Section("Index Build")

	if s.embeddingService == nil {
		return driving.BuildStats{}, fmt.Errorf("%w: not configured", domain.ErrEmbeddingUnavailable)
	}
	if s.store == nil {
		return driving.BuildStats{}, fmt.Errorf("%w: no index store", domain.ErrIndexUnavailable)
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			logger.Debug("Skipping empty document %s", doc.Path)
			continue
		}
		docChunks := s.chunker.ChunkDocument(doc.Path, doc.Content)
		logger.Debug("%s: %d chunks", doc.Path, len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return driving.BuildStats{}, fmt.Errorf("%w: no content to index in %d documents", domain.ErrInvalidInput, len(docs))
	}

	start := time.Now()
	if err := s.embedAll(ctx, chunks); err != nil {
		return driving.BuildStats{}, err
	}
	logger.Info("Embedded %d chunks in %s", len(chunks), time.Since(start).Round(time.Millisecond))

	index, err := domain.NewRagIndex(s.embeddingService.ModelName(), chunks)
	if err != nil {
		return driving.BuildStats{}, fmt.Errorf("build index: %w", err)
	}
	if want := s.embeddingService.Dimensions(); want > 0 && index.Dimensions() != want {
		return driving.BuildStats{}, fmt.Errorf("%w: provider returned %d dimensions, %s expects %d",
			domain.ErrDimensionMismatch, index.Dimensions(), index.Model(), want)
	}

	if err := s.store.SaveIndex(ctx, index); err != nil {
		return driving.BuildStats{}, fmt.Errorf("save index: %w", err)
	}

	return driving.BuildStats{
		Documents:  len(docs),
		Chunks:     index.Len(),
		Dimensions: index.Dimensions(),
		Model:      index.Model(),
	}, nil
}

// Load returns the stored index.
func (s *IndexService) Load(ctx context.Context) (*domain.RagIndex, error) {
	if s.store == nil {
		return nil, domain.ErrIndexUnavailable
	}
	index, err := s.store.LoadIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return index, nil
}

// embedAll fills in chunk embeddings in place, batch by batch.
// Batches run concurrently up to the configured limit and are throttled
// by a shared rate limiter. The first failure cancels the rest.
func (s *IndexService) embedAll(ctx context.Context, chunks []domain.Chunk) error {
	var limiter *rate.Limiter
	if s.settings.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.settings.RequestsPerSecond), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Concurrency)

	var done atomic.Int64
	for start := 0; start < len(chunks); start += s.settings.BatchSize {
		end := min(start+s.settings.BatchSize, len(chunks))
		batch := chunks[start:end]

		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
			}

			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}

			vectors, err := s.embeddingService.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("%w: got %d embeddings for %d chunks",
					domain.ErrEmbeddingUnavailable, len(vectors), len(batch))
			}

			for i := range batch {
				batch[i] = batch[i].WithEmbedding(vectors[i])
			}
			logger.Debug("Embedded %d/%d chunks", done.Add(int64(len(batch))), len(chunks))
			return nil
		})
	}

	return g.Wait()
}
