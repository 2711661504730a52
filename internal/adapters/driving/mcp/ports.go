package mcp

import (
	"github.com/quietpages/bookchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions in the assistant's voice.
	Chat driving.ChatService

	// Retrieval ranks excerpts for the search_book tool. Optional.
	Retrieval driving.RetrievalService

	// Index exposes the chunk index as resources. Optional.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
