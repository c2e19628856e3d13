// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document and chunk persistence
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Vector storage and nearest-neighbour search
//   - PostProcessor: Splits documents into chunks
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Text generation. Without it, answers degrade to raw
//     retrieval output and follow-up questions are not rewritten.
//   - DocumentFeed: Upstream source of new orders. Without it, documents
//     arrive only through direct ingestion.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
