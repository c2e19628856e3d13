// Package memory provides an in-process vector index with exact
// brute-force cosine search and snapshot persistence.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/policypal/policypal/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.VectorIndex         = (*Index)(nil)
	_ driven.SnapshotVectorIndex = (*Index)(nil)
)

// Metric is the similarity metric recorded in snapshots. Cosine is the
// only supported metric: embedding magnitude carries no meaning, only
// direction does.
const Metric = "cosine"

// Index provides exact nearest-neighbour search over chunk embeddings.
//
// Concurrency: searches take a read lock and inserts a write lock, so any
// number of readers proceed in parallel and an insert is atomic from every
// reader's perspective.
type Index struct {
	mu        sync.RWMutex
	dimension int
	// vectors holds unit-normalised embeddings keyed by chunk ID, so a
	// dot product at search time is the cosine similarity.
	vectors map[string][]float32
	closed  bool
}

// New creates an empty index for vectors of the given dimensionality.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("vector: dimension must be positive")
	}
	return &Index{
		dimension: dimension,
		vectors:   make(map[string][]float32),
	}, nil
}

// Dimensions returns the vector size the index was created with.
func (idx *Index) Dimensions() int {
	return idx.dimension
}

// Len returns the number of vectors currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Insert adds or replaces the vector for a chunk.
func (idx *Index) Insert(_ context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" {
		return errors.New("vector: chunk ID cannot be empty")
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("vector: embedding dimension %d, index expects %d", len(embedding), idx.dimension)
	}

	normalised := normalise(embedding)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errors.New("vector: index is closed")
	}
	idx.vectors[chunkID] = normalised
	return nil
}

// Remove deletes a chunk's vector. Removing an absent chunk is a no-op.
func (idx *Index) Remove(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return errors.New("vector: index is closed")
	}
	delete(idx.vectors, chunkID)
	return nil
}

// Search returns the k nearest neighbours to the query vector, ordered by
// descending cosine similarity with ties broken by lowest chunk ID.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("vector: query dimension %d, index expects %d", len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	q := normalise(query)

	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, errors.New("vector: index is closed")
	}

	hits := make([]driven.VectorHit, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		hits = append(hits, driven.VectorHit{ChunkID: id, Similarity: dot(q, vec)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases the index. Further operations fail.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.vectors = nil
	return nil
}

// normalise returns a unit-length copy of v. A zero vector stays zero so
// its similarity against anything is zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
