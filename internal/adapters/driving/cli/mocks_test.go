package cli

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/quietpages/bookchat/internal/adapters/driven/storage/memory"
	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	coreservices "github.com/quietpages/bookchat/internal/core/services"
)

// mockServices implements Services with settable ports.
type mockServices struct {
	settings *coreservices.SettingsService

	chat         *mockChatService
	chatErr      error
	retrieval    *mockRetrievalService
	retrievalErr error
	index        *mockIndexService
	indexErr     error
	transcripts  driven.TranscriptStore
	transcErr    error
	embeddingErr error
	llmErr       error

	watched atomic.Bool
	closed  bool
}

func newMockServices() *mockServices {
	return &mockServices{
		settings:    coreservices.NewSettingsService(memory.NewConfigStore()),
		chat:        &mockChatService{reply: domain.ChatReply{Text: "Stay with the breath."}},
		retrieval:   &mockRetrievalService{},
		index:       &mockIndexService{},
		transcripts: memory.NewTranscriptStore(),
	}
}

func (m *mockServices) Settings() driving.SettingsService {
	return m.settings
}

func (m *mockServices) Index(_ context.Context) (driving.IndexService, error) {
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	return m.index, nil
}

func (m *mockServices) Retrieval(_ context.Context) (driving.RetrievalService, error) {
	if m.retrievalErr != nil {
		return nil, m.retrievalErr
	}
	return m.retrieval, nil
}

func (m *mockServices) Chat(_ context.Context) (driving.ChatService, error) {
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return m.chat, nil
}

func (m *mockServices) Transcripts() (driven.TranscriptStore, error) {
	if m.transcErr != nil {
		return nil, m.transcErr
	}
	return m.transcripts, nil
}

func (m *mockServices) WatchPrompts(ctx context.Context) error {
	m.watched.Store(true)
	<-ctx.Done()
	return nil
}

func (m *mockServices) CheckEmbedding(_ context.Context) error {
	return m.embeddingErr
}

func (m *mockServices) CheckLLM(_ context.Context) error {
	return m.llmErr
}

func (m *mockServices) Close() error {
	m.closed = true
	return nil
}

// mockChatService records requests and returns a fixed reply.
type mockChatService struct {
	mu       sync.Mutex
	reply    domain.ChatReply
	err      error
	errOn    map[string]error
	requests []domain.ChatRequest
}

func (m *mockChatService) Reply(_ context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if err, ok := m.errOn[req.Message]; ok {
		return domain.ChatReply{}, err
	}
	if m.err != nil {
		return domain.ChatReply{}, m.err
	}
	return m.reply, nil
}

// mockRetrievalService returns a fixed result.
type mockRetrievalService struct {
	result  domain.RetrievalResult
	err     error
	queries []string
	limits  []int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, k int) (domain.RetrievalResult, error) {
	m.queries = append(m.queries, query)
	m.limits = append(m.limits, k)
	return m.result, m.err
}

// mockIndexService records the documents it is asked to build.
type mockIndexService struct {
	docs     []driving.SourceDocument
	stats    driving.BuildStats
	buildErr error
	index    *domain.RagIndex
	loadErr  error
}

func (m *mockIndexService) Build(_ context.Context, docs []driving.SourceDocument) (driving.BuildStats, error) {
	m.docs = docs
	if m.buildErr != nil {
		return driving.BuildStats{}, m.buildErr
	}
	return m.stats, nil
}

func (m *mockIndexService) Load(_ context.Context) (*domain.RagIndex, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.index, nil
}

// setupTestServices installs mock services and returns a cleanup function
// that also resets command flags and I/O.
func setupTestServices() (*mockServices, func()) {
	oldServices := services
	oldFactory := newServices

	mock := newMockServices()
	services = mock

	return mock, func() {
		services = oldServices
		newServices = oldFactory
		configDir = ""
		verbose = false
		searchLimit = defaultSearchLimit
		searchJSON = false
		askSources = false
		serveAddr = ""
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}
}

func testChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			ID:          "c1",
			FilePath:    "chapters/01-arrival.md",
			HeadingPath: []string{"Arrival", "The First Breath"},
			ChunkIndex:  0,
			Text:        "Before anything else, notice that you are already breathing.",
			Embedding:   []float32{1, 0, 0},
		},
		{
			ID:         "c2",
			FilePath:   "chapters/02-waiting.md",
			ChunkIndex: 2,
			Text:       "Waiting is not the absence of life.",
			Embedding:  []float32{0, 1, 0},
		},
	}
}
