package driven

import (
	"context"

	"github.com/policypal/policypal/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite for metadata and embedding storage.
type DocumentStore interface {
	// SaveDocument stores or updates a document without touching chunks.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveDocumentWithChunks stores a document and its chunk set in a
	// single transaction, replacing any chunks a superseded version had.
	// Either the whole set commits or none of it does.
	SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByOrderNumber retrieves a document by its order number.
	GetDocumentByOrderNumber(ctx context.Context, orderNumber string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all documents ordered by published date.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ListUnprocessed returns documents that have no chunks yet.
	ListUnprocessed(ctx context.Context) ([]domain.Document, error)

	// ListEmbeddedChunks returns every chunk that carries an embedding.
	// Used to rebuild the vector index from durable state.
	ListEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteDocument removes a document and cascades to its chunks.
	DeleteDocument(ctx context.Context, id string) error
}
