package driven

import "context"

// VectorIndex provides nearest-neighbour search over chunk embeddings.
// The index holds vectors keyed by chunk ID only; chunk text lives in the
// DocumentStore.
type VectorIndex interface {
	// Insert adds or replaces the vector for a chunk. The index is
	// queryable immediately after Insert returns; readers never observe
	// a partially-inserted vector.
	Insert(ctx context.Context, chunkID string, embedding []float32) error

	// Remove deletes a chunk's vector (supersession path).
	// Removing an absent chunk is not an error.
	Remove(ctx context.Context, chunkID string) error

	// Search finds the k nearest neighbours to the query vector by
	// cosine similarity. Results are strictly ordered by descending
	// score, ties broken by lowest chunk ID, and never exceed k.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of vectors currently indexed.
	Len() int

	// Close releases resources.
	Close() error
}

// SnapshotVectorIndex is a VectorIndex that can persist itself to durable
// storage and be restored to an identical queryable state.
type SnapshotVectorIndex interface {
	VectorIndex

	// SaveSnapshot serialises the index to the given path. The format is
	// self-describing: it records the embedding dimensionality and the
	// similarity metric used.
	SaveSnapshot(path string) error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}
