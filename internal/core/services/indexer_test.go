package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
)

func testIndexSettings() domain.IndexSettings {
	return domain.IndexSettings{BatchSize: 2, Concurrency: 2}
}

func TestNewIndexService_Defaults(t *testing.T) {
	s := NewIndexService(nil, nil, nil, domain.IndexSettings{RequestsPerSecond: -1})

	defaults := domain.DefaultAppSettings().Index
	assert.Equal(t, defaults.BatchSize, s.settings.BatchSize)
	assert.Equal(t, defaults.Concurrency, s.settings.Concurrency)
	assert.Zero(t, s.settings.RequestsPerSecond)
}

func TestIndexService_Build(t *testing.T) {
	store := &mockIndexStore{}
	embedder := &mockEmbeddingService{
		embedding: []float32{0, 1},
		byText:    map[string][]float32{"light": {1, 0}},
		dims:      2,
	}
	s := NewIndexService(store, paragraphChunker{}, embedder, testIndexSettings())

	docs := []driving.SourceDocument{
		{Path: "one.md", Content: "light\n\ndark\n\ndusk"},
		{Path: "empty.md", Content: "   "},
		{Path: "two.md", Content: "dawn\n\nnoon"},
	}
	stats, err := s.Build(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, driving.BuildStats{Documents: 3, Chunks: 5, Dimensions: 2, Model: "mock-embed"}, stats)
	assert.Len(t, embedder.batches, 3)

	require.NotNil(t, store.saved)
	chunks := store.saved.Chunks()
	require.Len(t, chunks, 5)
	assert.Equal(t, "light", chunks[0].Text)
	assert.Equal(t, []float32{1, 0}, chunks[0].Embedding)
	assert.InDelta(t, 1.0, chunks[0].EmbeddingNorm, 1e-9)
	assert.Equal(t, "two.md", chunks[4].FilePath)
	assert.Equal(t, 1, chunks[4].ChunkIndex)

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, store.saved, loaded)
}

func TestIndexService_Build_EmbeddingFailureSavesNothing(t *testing.T) {
	store := &mockIndexStore{}
	s := NewIndexService(store, paragraphChunker{}, &mockEmbeddingService{embedErr: errProvider}, testIndexSettings())

	_, err := s.Build(context.Background(), []driving.SourceDocument{{Path: "a.md", Content: "a\n\nb\n\nc"}})

	require.ErrorIs(t, err, errProvider)
	assert.Nil(t, store.saved)
}

func TestIndexService_Build_NoContent(t *testing.T) {
	s := NewIndexService(&mockIndexStore{}, paragraphChunker{}, &mockEmbeddingService{embedding: []float32{1}}, testIndexSettings())

	_, err := s.Build(context.Background(), []driving.SourceDocument{{Path: "a.md", Content: ""}})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIndexService_Build_DimensionMismatch(t *testing.T) {
	embedder := &mockEmbeddingService{
		embedding: []float32{1, 0},
		byText:    map[string][]float32{"odd": {1, 0, 0}},
	}
	s := NewIndexService(&mockIndexStore{}, paragraphChunker{}, embedder, testIndexSettings())

	_, err := s.Build(context.Background(), []driving.SourceDocument{{Path: "a.md", Content: "even\n\nodd"}})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexService_Build_UnexpectedProviderDimensions(t *testing.T) {
	embedder := &mockEmbeddingService{embedding: []float32{1, 0}, dims: 3}
	s := NewIndexService(&mockIndexStore{}, paragraphChunker{}, embedder, testIndexSettings())

	_, err := s.Build(context.Background(), []driving.SourceDocument{{Path: "a.md", Content: "x"}})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndexService_Build_NotConfigured(t *testing.T) {
	s := NewIndexService(&mockIndexStore{}, paragraphChunker{}, nil, testIndexSettings())
	_, err := s.Build(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	s = NewIndexService(nil, paragraphChunker{}, &mockEmbeddingService{}, testIndexSettings())
	_, err = s.Build(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIndexService_Build_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	settings := testIndexSettings()
	settings.RequestsPerSecond = 1
	store := &mockIndexStore{}
	s := NewIndexService(store, paragraphChunker{}, &mockEmbeddingService{embedding: []float32{1}}, settings)

	_, err := s.Build(ctx, []driving.SourceDocument{{Path: "a.md", Content: "a\n\nb"}})

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, store.saved)
}

func TestIndexService_Load_NotFound(t *testing.T) {
	s := NewIndexService(&mockIndexStore{}, paragraphChunker{}, nil, testIndexSettings())

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
