// Package domain defines the core business entities for bookchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A retrievable excerpt of a book with its embedding
//   - RagIndex: The immutable set of chunks for one book
//   - ChatMessage: A role-tagged conversational turn
//   - RetrievalResult: The ranked outcome of one retrieval
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
