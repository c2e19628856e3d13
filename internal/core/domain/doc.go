// Package domain defines the core business entities for PolicyPal.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested Executive Order with metadata
//   - Chunk: A retrievable span of a document's text
//   - RetrievalResult: A scored chunk produced for one query
//   - ConversationTurn: One turn of caller-supplied chat history
//   - Answer: A generated answer with its source citations
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
