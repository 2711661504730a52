package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds a query and ranks the chunk index against it.
type RetrievalService struct {
	index            *domain.RagIndex
	embeddingService driven.EmbeddingService
	minCitable       float64
	timeout          time.Duration
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithMinCitableScore sets the similarity below which results are flagged weak.
func WithMinCitableScore(score float64) RetrievalOption {
	return func(s *RetrievalService) {
		s.minCitable = score
	}
}

// WithEmbeddingTimeout bounds each query embedding call.
func WithEmbeddingTimeout(d time.Duration) RetrievalOption {
	return func(s *RetrievalService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewRetrievalService creates a retrieval service over a loaded index.
// The index is shared read-only; the embedding service may be nil, in which
// case every call fails with domain.ErrEmbeddingUnavailable.
func NewRetrievalService(
	index *domain.RagIndex,
	embeddingService driven.EmbeddingService,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		index:            index,
		embeddingService: embeddingService,
		minCitable:       domain.DefaultMinCitableScore,
		timeout:          domain.DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the index being searched.
func (s *RetrievalService) Index() *domain.RagIndex {
	return s.index
}

// Retrieve embeds the query and returns the k most similar chunks.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RetrievalResult{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.index == nil {
		return domain.RetrievalResult{}, domain.ErrIndexUnavailable
	}
	if s.embeddingService == nil {
		return domain.RetrievalResult{}, fmt.Errorf("%w: not configured", domain.ErrEmbeddingUnavailable)
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	vec, err := s.embeddingService.Embed(embedCtx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return domain.RetrievalResult{}, err
		}
		return domain.RetrievalResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Embedded query in %s (%d dimensions)", time.Since(start).Round(time.Millisecond), len(vec))

	if dims := s.index.Dimensions(); dims > 0 && len(vec) != dims {
		return domain.RetrievalResult{}, fmt.Errorf("%w: query has %d dimensions, index built with %s has %d",
			domain.ErrDimensionMismatch, len(vec), s.index.Model(), dims)
	}

	result := Rank(s.index, vec, k, s.minCitable)
	logger.Debug("Ranked %d chunks, kept %d, top score %.3f, weak=%t",
		s.index.Len(), len(result.Chunks), result.TopScore, result.Weak)

	return result, nil
}
