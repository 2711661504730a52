package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates vectors of different lengths were combined.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Chat Errors.

	// ErrInvalidRequest indicates a chat request carried no usable query text.
	// It is surfaced to the caller before any provider call is made.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmbeddingUnavailable indicates the embedding provider failed or is not configured.
	// The chat path recovers from it by answering without excerpts.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation provider failed or returned
	// an unusable reply. It is fatal to the request.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrIndexUnavailable indicates no chunk index has been built yet.
	ErrIndexUnavailable = errors.New("chunk index unavailable")
)
