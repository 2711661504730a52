package services

import (
	"context"
	"errors"
	"sync"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu        sync.Mutex
	embedding []float32
	byText    map[string][]float32
	embedErr  error
	dims      int
	calls     int
	batches   [][]string
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.byText[text]; ok {
		return v, nil
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.batches = append(m.batches, texts)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.byText[t]; ok {
			result[i] = v
			continue
		}
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return m.dims
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	reply    string
	chatErr  error
	calls    int
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	deadline bool
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.calls++
	m.messages = messages
	m.opts = opts
	_, m.deadline = ctx.Deadline()
	if m.chatErr != nil {
		return "", m.chatErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.reply, nil
}

func (m *mockLLMService) ModelName() string {
	return "mock-llm"
}

func (m *mockLLMService) Ping(_ context.Context) error {
	return nil
}

func (m *mockLLMService) Close() error {
	return nil
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptChatSystem:  "PERSONA",
		driven.PromptGrounding:   "GROUNDING",
		driven.PromptWeakContext: "WEAK",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockRetriever implements driving.RetrievalService for testing.
type mockRetriever struct {
	result domain.RetrievalResult
	err    error
	calls  int
	query  string
	k      int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, k int) (domain.RetrievalResult, error) {
	m.calls++
	m.query = query
	m.k = k
	return m.result, m.err
}

// mockIndexStore implements driven.IndexStore for testing.
type mockIndexStore struct {
	saved   *domain.RagIndex
	saveErr error
}

func (m *mockIndexStore) SaveIndex(_ context.Context, index *domain.RagIndex) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = index
	return nil
}

func (m *mockIndexStore) LoadIndex(_ context.Context) (*domain.RagIndex, error) {
	if m.saved == nil {
		return nil, domain.ErrNotFound
	}
	return m.saved, nil
}

// paragraphChunker implements driven.DocumentChunker, one chunk per paragraph.
type paragraphChunker struct{}

func (paragraphChunker) ChunkDocument(path, content string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, p := range splitParagraphs(content) {
		chunks = append(chunks, domain.Chunk{
			ID:         path + "#" + p,
			FilePath:   path,
			ChunkIndex: len(chunks),
			Text:       p,
		})
	}
	return chunks
}

func splitParagraphs(s string) []string {
	var out []string
	start := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '\n' && s[i+1] == '\n' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 2
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

var errProvider = errors.New("provider exploded")

// chunk builds an embedded chunk for tests.
func chunk(path string, idx int, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:         path,
		FilePath:   path,
		ChunkIndex: idx,
		Text:       "text of " + path,
	}.WithEmbedding(vec)
}

func mustIndex(chunks ...domain.Chunk) *domain.RagIndex {
	index, err := domain.NewRagIndex("mock-embed", chunks)
	if err != nil {
		panic(err)
	}
	return index
}
