package driving

import (
	"context"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// RetrievalService finds the book excerpts most similar to a query.
type RetrievalService interface {
	// Retrieve embeds the query and returns the top k chunks.
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}
