package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/logger"
)

// defaultSearchLimit is the number of excerpts search_book returns by default.
const defaultSearchLimit = 5

// HistoryMessage is one prior turn passed to ask_book.
type HistoryMessage struct {
	Role    string `json:"role" jsonschema:"either user or assistant"`
	Content string `json:"content" jsonschema:"the message text"`
}

// AskInput is the input schema for the ask_book tool.
type AskInput struct {
	Question string           `json:"question" jsonschema:"the question to ask about the book"`
	History  []HistoryMessage `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// AskOutput is the output schema for the ask_book tool.
type AskOutput struct {
	Reply    string             `json:"reply"`
	Grounded bool               `json:"grounded"`
	Sources  []domain.SourceRef `json:"sources,omitempty"`
}

// SearchInput is the input schema for the search_book tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to find similar passages for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of excerpts to return (default 5)"`
}

// SearchOutput is the output schema for the search_book tool.
type SearchOutput struct {
	Results []ExcerptOutput `json:"results"`
	Count   int             `json:"count"`
	Weak    bool            `json:"weak"`
}

// ExcerptOutput represents a single ranked excerpt.
type ExcerptOutput struct {
	FilePath string   `json:"file_path"`
	Section  []string `json:"section,omitempty"`
	Excerpt  int      `json:"excerpt"`
	Score    float64  `json:"score"`
	Text     string   `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_book",
		Description: "Ask the book a question and receive an answer in its voice",
	}, s.handleAsk)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search_book",
			Description: "Find the book excerpts most similar to a query",
		}, s.handleSearch)
	}
}

// handleAsk handles the ask_book tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	req := domain.ChatRequest{
		Message:  input.Question,
		Messages: make([]domain.ChatMessage, 0, len(input.History)),
	}
	for _, m := range input.History {
		req.Messages = append(req.Messages, domain.ChatMessage{
			Role:    domain.Role(strings.ToLower(m.Role)),
			Content: m.Content,
		})
	}

	reply, err := s.ports.Chat.Reply(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			return nil, AskOutput{}, errors.New("question is required")
		}
		logger.Error("ask_book failed: %v", err)
		return nil, AskOutput{}, errAssistantUnavailable
	}

	return nil, AskOutput{
		Reply:    reply.Text,
		Grounded: reply.Grounded,
		Sources:  reply.Sources,
	}, nil
}

// handleSearch handles the search_book tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	result, err := s.ports.Retrieval.Retrieve(ctx, input.Query, limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return nil, SearchOutput{}, errors.New("query is required")
		}
		logger.Error("search_book failed: %v", err)
		return nil, SearchOutput{}, errSearchUnavailable
	}

	output := SearchOutput{
		Results: make([]ExcerptOutput, len(result.Chunks)),
		Count:   len(result.Chunks),
		Weak:    result.Weak,
	}
	for i, c := range result.Chunks {
		output.Results[i] = ExcerptOutput{
			FilePath: c.FilePath,
			Section:  c.HeadingPath,
			Excerpt:  c.DisplayIndex(),
			Score:    result.Scores[i],
			Text:     c.Text,
		}
	}

	return nil, output, nil
}
