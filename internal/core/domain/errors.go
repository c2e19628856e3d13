package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidDocument indicates an empty or malformed document.
	// Rejected outright, never retried.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmbeddingUnavailable indicates the embedding capability failed
	// after bounded retries. The affected ingestion or query aborts.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the text generation capability
	// failed after bounded retries. Surfaced to the caller as a degraded
	// answer, never a silent empty one.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrIndexCorrupt indicates a restored vector index snapshot failed
	// its integrity check. Fatal for the snapshot; the index must be
	// rebuilt from the document store.
	ErrIndexCorrupt = errors.New("vector index corrupt")

	// ErrIngestInProgress indicates the same order is already being
	// ingested. Ingestion is serialised per order number.
	ErrIngestInProgress = errors.New("ingestion already in progress for this order")
)
