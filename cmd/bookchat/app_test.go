package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quietpages/bookchat/internal/adapters/driving/cli"
	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/core/services"
	"github.com/quietpages/bookchat/internal/logger"
)

// fakeOllama serves /api/tags, /api/embeddings and /api/chat.
// Embeddings are character histograms, so similar texts score high.
type fakeOllama struct {
	mu       sync.Mutex
	messages []map[string]string
}

func (f *fakeOllama) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/tags":
		_, _ = w.Write([]byte(`{"models":[]}`))
	case "/api/embeddings":
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		vec := make([]float64, 768)
		for _, c := range strings.ToLower(req.Prompt) {
			vec[int(c)%len(vec)]++
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	case "/api/chat":
		var req struct {
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.messages = req.Messages
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  Stay with the breath.  "},"done":true}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	svc, err := newApp(cli.Options{ConfigDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc.(*app)
}

func useOllama(t *testing.T, a *app, baseURL string) {
	t.Helper()
	require.NoError(t, a.Settings().SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	require.NoError(t, a.Settings().SetLLMProvider(domain.AIProviderOllama, "", ""))

	settings, err := a.Settings().Get()
	require.NoError(t, err)
	settings.Embedding.BaseURL = baseURL
	settings.LLM.BaseURL = baseURL
	require.NoError(t, a.Settings().Save(settings))
}

func TestEnvAPIKey(t *testing.T) {
	t.Setenv(envOpenAIKey, "sk-from-env")
	t.Setenv(envAnthropicKey, "ant-from-env")

	assert.Equal(t, "sk-from-env", envAPIKey(domain.AIProviderOpenAI, ""))
	assert.Equal(t, "sk-from-config", envAPIKey(domain.AIProviderOpenAI, "sk-from-config"))
	assert.Equal(t, "ant-from-env", envAPIKey(domain.AIProviderAnthropic, ""))
	assert.Empty(t, envAPIKey(domain.AIProviderOllama, ""))
}

func TestApp_SettingsApplyEnvironmentKeys(t *testing.T) {
	t.Setenv(envOpenAIKey, "sk-from-env")
	a := newTestApp(t)

	require.NoError(t, a.Settings().SetLLMProvider(domain.AIProviderAnthropic, "", "ant-config"))
	settings, err := a.Settings().Get()
	require.NoError(t, err)
	settings.Embedding.Provider = domain.AIProviderOpenAI
	require.NoError(t, a.Settings().Save(settings))

	got, err := a.appSettings()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", got.Embedding.APIKey)
	assert.Equal(t, "ant-config", got.LLM.APIKey)
}

func TestApp_Transcripts(t *testing.T) {
	a := newTestApp(t)

	store, err := a.Transcripts()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.SaveTranscript(ctx, domain.Transcript{
		ID:        "t1",
		Query:     "why?",
		Reply:     "because.",
		CreatedAt: time.Now(),
	}))

	list, err := store.ListTranscripts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "because.", list[0].Reply)
}

func TestApp_UnconfiguredProviders(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	_, err := a.Chat(ctx)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	_, err = a.Retrieval(ctx)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

	assert.ErrorIs(t, a.CheckEmbedding(ctx), domain.ErrEmbeddingUnavailable)
	assert.ErrorIs(t, a.CheckLLM(ctx), domain.ErrLLMUnavailable)
}

func TestApp_ChatWithoutIndexTellsModelNoExcerpts(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	logger.SetVerbose(false)
	defer logger.SetOutput(os.Stderr)

	fake := &fakeOllama{}
	server := httptest.NewServer(fake)
	defer server.Close()

	a := newTestApp(t)
	useOllama(t, a, server.URL)
	ctx := context.Background()

	chat, err := a.Chat(ctx)
	require.NoError(t, err)
	reply, err := chat.Reply(ctx, domain.ChatRequest{Message: "What about the breath?"})
	require.NoError(t, err)
	assert.Equal(t, "Stay with the breath.", reply.Text)
	assert.False(t, reply.Grounded)
	assert.Empty(t, reply.Sources)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.messages)
	assert.Equal(t, "system", fake.messages[0]["role"])
	assert.Contains(t, fake.messages[0]["content"], services.NoExcerptsSentinel)

	assert.Contains(t, logs.String(), "index build")
}

func TestApp_BuildRetrieveAndReply(t *testing.T) {
	fake := &fakeOllama{}
	server := httptest.NewServer(fake)
	defer server.Close()

	a := newTestApp(t)
	useOllama(t, a, server.URL)
	ctx := context.Background()

	require.NoError(t, a.CheckEmbedding(ctx))
	require.NoError(t, a.CheckLLM(ctx))

	indexer, err := a.Index(ctx)
	require.NoError(t, err)
	stats, err := indexer.Build(ctx, []driving.SourceDocument{
		{Path: "chapters/01.md", Content: "# Arrival\n\nNotice the breath moving in and out."},
		{Path: "chapters/02.md", Content: "# Waiting\n\nWaiting is not the absence of life."},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 768, stats.Dimensions)

	retrieval, err := a.Retrieval(ctx)
	require.NoError(t, err)
	result, err := retrieval.Retrieve(ctx, "Notice the breath", 1)
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "chapters/01.md", result.Chunks[0].FilePath)

	chat, err := a.Chat(ctx)
	require.NoError(t, err)
	reply, err := chat.Reply(ctx, domain.ChatRequest{Message: "What about the breath?"})
	require.NoError(t, err)
	assert.Equal(t, "Stay with the breath.", reply.Text)
	assert.True(t, reply.Grounded)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.messages)
	assert.Equal(t, "system", fake.messages[0]["role"])
	assert.Contains(t, fake.messages[0]["content"], "Source: chapters/01.md")
	last := fake.messages[len(fake.messages)-1]
	assert.Equal(t, "user", last["role"])
	assert.Equal(t, "What about the breath?", last["content"])
}
