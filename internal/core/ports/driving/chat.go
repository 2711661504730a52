package driving

import (
	"context"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// ChatService answers questions about the book in the assistant's voice.
type ChatService interface {
	// Reply runs one request/response cycle.
	// Returns domain.ErrInvalidRequest when the request has no usable query and
	// domain.ErrGenerationUnavailable when no reply could be produced.
	Reply(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error)
}
