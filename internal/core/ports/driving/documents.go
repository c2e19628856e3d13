package driving

import (
	"context"

	"github.com/policypal/policypal/internal/core/domain"
)

// DocumentService manages the ingested corpus.
type DocumentService interface {
	// List returns all ingested documents ordered by published date.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByOrderNumber retrieves a document by its Executive Order number.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Document, error)

	// Delete removes a document, its chunks and its index entries.
	Delete(ctx context.Context, id string) error

	// Summary describes the corpus grouped by administration and year.
	Summary(ctx context.Context) (domain.CorpusSummary, error)
}
