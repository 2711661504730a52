package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpages/bookchat/internal/core/domain"
)

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newTestService(t *testing.T, handler http.HandlerFunc, cfg Config) *EmbeddingService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	svc, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	return svc
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
	assert.False(t, svc.shorten)
}

func TestNewEmbeddingService_KnownModelDimensions(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, svc.Dimensions())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	var got embeddingsRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(t, w, http.StatusOK, map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{0, 1}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 0}},
			},
		})
	}, Config{})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", got.Model)
	assert.Equal(t, []string{"first", "second"}, got.Input)
	assert.Zero(t, got.Dimensions)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestEmbedBatch_SendsDimensionsOverride(t *testing.T) {
	var got embeddingsRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{1, 2, 3}}},
		})
	}, Config{Dimensions: 3})

	vec, err := svc.Embed(context.Background(), "stillness")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Dimensions)
	assert.Equal(t, []float32{1, 2, 3}, vec)
}

func TestEmbed_EmptyText(t *testing.T) {
	calls := 0
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	}, Config{})

	_, err := svc.Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, calls)
}

func TestEmbed_ProviderError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "overloaded", "type": "server_error"},
		})
	}, Config{})

	vec, err := svc.Embed(context.Background(), "breath")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Nil(t, vec)
}

func TestEmbed_MissingVector(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"data": []map[string]any{}})
	}, Config{})

	_, err := svc.Embed(context.Background(), "breath")
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)

	vecs, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestPing(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/models", r.URL.Path)
			writeJSON(t, w, http.StatusOK, map[string]any{"object": "list", "data": []any{}})
		}, Config{})
		assert.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("unauthorised", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"message": "bad key", "type": "invalid_request_error"},
			})
		}, Config{})
		err := svc.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}
