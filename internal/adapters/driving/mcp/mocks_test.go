package mcp

import (
	"context"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply domain.ChatReply
	err   error
	last  domain.ChatRequest
}

func (m *mockChatService) Reply(_ context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	m.last = req
	return m.reply, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result domain.RetrievalResult
	err    error
	lastK  int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.lastK = k
	return m.result, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	index *domain.RagIndex
	err   error
}

func (m *mockIndexService) Build(_ context.Context, _ []driving.SourceDocument) (driving.BuildStats, error) {
	return driving.BuildStats{}, m.err
}

func (m *mockIndexService) Load(_ context.Context) (*domain.RagIndex, error) {
	return m.index, m.err
}
