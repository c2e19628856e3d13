package driving

import (
	"context"

	"github.com/policypal/policypal/internal/core/domain"
)

// IngestService turns raw Executive Orders into a searchable knowledge base.
type IngestService interface {
	// Ingest chunks, embeds, stores and indexes one document atomically:
	// either the whole chunk set becomes searchable or none of it does.
	// Re-ingesting an existing order number supersedes the old version.
	Ingest(ctx context.Context, doc domain.Document) error

	// IngestAll ingests a batch. A failing document aborts only its own
	// ingestion; errors are joined and returned after the batch.
	IngestAll(ctx context.Context, docs []domain.Document) (IngestStats, error)

	// ProcessPending embeds and indexes stored documents that have no
	// chunks yet.
	ProcessPending(ctx context.Context) (IngestStats, error)

	// RebuildIndex repopulates the vector index from the embeddings in
	// the document store. Recovery path for a corrupt snapshot.
	RebuildIndex(ctx context.Context) (int, error)
}

// IngestStats summarises a batch ingestion run.
type IngestStats struct {
	// Ingested is the number of documents made searchable.
	Ingested int

	// Skipped is the number of documents left untouched (e.g. already
	// ingested with identical text).
	Skipped int

	// Failed is the number of documents whose ingestion aborted.
	Failed int
}
