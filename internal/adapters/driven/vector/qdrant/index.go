// Package qdrant provides a vector index backed by a Qdrant server over
// gRPC. It is the remote alternative to the in-process index for corpora
// that outgrow a single host's memory.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds the Qdrant connection configuration.
type Config struct {
	// Addr is the host:port of the Qdrant gRPC endpoint.
	// Defaults to localhost:6334.
	Addr string

	// Collection is the collection name. Defaults to "executive_orders".
	Collection string

	// Dimension is the embedding dimensionality. Required.
	Dimension int

	// Timeout bounds individual RPCs. Defaults to 15 seconds.
	Timeout time.Duration
}

// Index stores chunk embeddings in a Qdrant collection using cosine
// distance. Chunk IDs are UUIDs, which Qdrant accepts natively as point
// IDs, so no separate ID mapping is needed.
type Index struct {
	conn        *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   int
	timeout     time.Duration
}

// New connects to Qdrant and ensures the collection exists with a cosine
// vector schema of the configured dimensionality.
func New(ctx context.Context, config Config) (*Index, error) {
	if config.Dimension <= 0 {
		return nil, errors.New("qdrant: dimension must be positive")
	}
	if config.Addr == "" {
		config.Addr = "localhost:6334"
	}
	if config.Collection == "" {
		config.Collection = "executive_orders"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	conn, err := grpc.NewClient(config.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s: %w", config.Addr, err)
	}

	idx := &Index{
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		collection:  config.Collection,
		dimension:   config.Dimension,
		timeout:     config.Timeout,
	}

	if err := idx.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debug("Connected to Qdrant at %s, collection %s", config.Addr, config.Collection)
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, idx.timeout)
	defer cancel()

	collections, err := idx.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("listing qdrant collections: %w", err)
	}
	for _, col := range collections.GetCollections() {
		if col.GetName() == idx.collection {
			return nil
		}
	}

	_, err = idx.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     uint64(idx.dimension),
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating qdrant collection %s: %w", idx.collection, err)
	}
	return nil
}

// Insert upserts the vector for a chunk.
func (idx *Index) Insert(ctx context.Context, chunkID string, embedding []float32) error {
	if chunkID == "" {
		return errors.New("qdrant: chunk ID cannot be empty")
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("qdrant: embedding dimension %d, collection expects %d", len(embedding), idx.dimension)
	}

	ctx, cancel := context.WithTimeout(ctx, idx.timeout)
	defer cancel()

	wait := true
	_, err := idx.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: idx.collection,
		Wait:           &wait,
		Points: []*qdrantclient.PointStruct{{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: chunkID},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: embedding},
				},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("upserting point %s: %w", chunkID, err)
	}
	return nil
}

// Remove deletes a chunk's vector. Removing an absent chunk is a no-op.
func (idx *Index) Remove(ctx context.Context, chunkID string) error {
	ctx, cancel := context.WithTimeout(ctx, idx.timeout)
	defer cancel()

	wait := true
	_, err := idx.points.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: idx.collection,
		Wait:           &wait,
		Points: &qdrantclient.PointsSelector{
			PointsSelectorOneOf: &qdrantclient.PointsSelector_Points{
				Points: &qdrantclient.PointsIdsList{
					Ids: []*qdrantclient.PointId{{
						PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: chunkID},
					}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting point %s: %w", chunkID, err)
	}
	return nil
}

// Search returns the k nearest neighbours by cosine similarity. Qdrant
// orders results by descending score; ties are re-sorted by lowest chunk
// ID so ordering is stable across calls.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("qdrant: query dimension %d, collection expects %d", len(query), idx.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, idx.timeout)
	defer cancel()

	resp, err := idx.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: idx.collection,
		Vector:         query,
		Limit:          uint64(k),
	})
	if err != nil {
		return nil, fmt.Errorf("searching qdrant: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		hits = append(hits, driven.VectorHit{
			ChunkID:    point.GetId().GetUuid(),
			Similarity: float64(point.GetScore()),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	return hits, nil
}

// Len returns the number of points in the collection. Errors are reported
// as zero since the interface carries no error return; callers treating
// Len as advisory is acceptable here.
func (idx *Index) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), idx.timeout)
	defer cancel()

	exact := true
	resp, err := idx.points.Count(ctx, &qdrantclient.CountPoints{
		CollectionName: idx.collection,
		Exact:          &exact,
	})
	if err != nil {
		logger.Warn("Counting qdrant points failed: %v", err)
		return 0
	}
	return int(resp.GetResult().GetCount())
}

// Close tears down the gRPC connection.
func (idx *Index) Close() error {
	return idx.conn.Close()
}
