package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/core/ports/driving"
	"github.com/policypal/policypal/internal/logger"
	"github.com/policypal/policypal/internal/retry"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns raw Executive Orders into a searchable knowledge
// base: normalise, chunk, embed, store, index.
type IngestService struct {
	docStore         driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	pipeline         driven.PostProcessorPipeline
	retryPolicy      retry.Policy

	// inflight serialises ingestion per order number. A second ingest of
	// an order already being ingested fails fast instead of queueing.
	mu       sync.Mutex
	inflight map[string]bool
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	pipeline driven.PostProcessorPipeline,
) *IngestService {
	return &IngestService{
		docStore:         docStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		pipeline:         pipeline,
		retryPolicy:      retry.DefaultPolicy(),
		inflight:         make(map[string]bool),
	}
}

// SetRetryPolicy overrides the backoff policy for embedding calls.
func (s *IngestService) SetRetryPolicy(policy retry.Policy) {
	s.retryPolicy = policy
}

// ingestStatus classifies the outcome of a single document ingestion.
type ingestStatus int

const (
	statusIngested ingestStatus = iota
	statusSkipped
)

// Ingest chunks, embeds, stores and indexes one document. Re-ingesting
// an order number with identical text is a no-op; different text
// supersedes the stored version.
func (s *IngestService) Ingest(ctx context.Context, doc domain.Document) error {
	_, err := s.ingestOne(ctx, doc)
	return err
}

// IngestAll ingests a batch. A failing document aborts only its own
// ingestion; errors are joined and returned after the batch.
func (s *IngestService) IngestAll(ctx context.Context, docs []domain.Document) (driving.IngestStats, error) {
	var stats driving.IngestStats
	var errs []error

	logger.Section("Batch Ingestion")
	logger.Info("Ingesting %d documents", len(docs))

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		status, err := s.ingestOne(ctx, doc)
		switch {
		case err != nil:
			stats.Failed++
			errs = append(errs, fmt.Errorf("order %s: %w", doc.OrderNumber, err))
		case status == statusSkipped:
			stats.Skipped++
		default:
			stats.Ingested++
		}
	}

	logger.Info("Batch done: %d ingested, %d skipped, %d failed",
		stats.Ingested, stats.Skipped, stats.Failed)
	return stats, errors.Join(errs...)
}

// ProcessPending embeds and indexes stored documents that have no chunks
// yet (e.g. fetched by a feed but never processed).
func (s *IngestService) ProcessPending(ctx context.Context) (driving.IngestStats, error) {
	pending, err := s.docStore.ListUnprocessed(ctx)
	if err != nil {
		return driving.IngestStats{}, fmt.Errorf("listing unprocessed documents: %w", err)
	}

	if len(pending) == 0 {
		logger.Debug("No pending documents")
		return driving.IngestStats{}, nil
	}

	logger.Info("Processing %d pending documents", len(pending))
	return s.IngestAll(ctx, pending)
}

// RebuildIndex repopulates the vector index from the embeddings in the
// document store. Recovery path for a corrupt snapshot.
func (s *IngestService) RebuildIndex(ctx context.Context) (int, error) {
	chunks, err := s.docStore.ListEmbeddedChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing embedded chunks: %w", err)
	}

	logger.Info("Rebuilding vector index from %d chunks", len(chunks))

	for i, chunk := range chunks {
		if err := s.vectorIndex.Insert(ctx, chunk.ID, chunk.Embedding); err != nil {
			return i, fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
		}
	}
	return len(chunks), nil
}

// ingestOne runs the full pipeline for a single document.
func (s *IngestService) ingestOne(ctx context.Context, doc domain.Document) (ingestStatus, error) {
	if err := validateDocument(doc); err != nil {
		return statusSkipped, err
	}

	release, err := s.acquire(doc.OrderNumber)
	if err != nil {
		return statusSkipped, err
	}
	defer release()

	// A known order number keeps its document ID so the chunk swap on
	// supersession stays inside one transaction.
	existing, err := s.docStore.GetDocumentByOrderNumber(ctx, doc.OrderNumber)
	switch {
	case err == nil:
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	case errors.Is(err, domain.ErrNotFound):
		existing = nil
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
	default:
		return statusSkipped, fmt.Errorf("checking existing order: %w", err)
	}

	// Normalise and chunk. Normalisation rewrites doc.FullText, so the
	// skip comparison below never trips over line-ending differences:
	// stored text went through the same pipeline when it was ingested.
	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return statusSkipped, fmt.Errorf("processing document: %w", err)
	}
	if len(chunks) == 0 {
		return statusSkipped, fmt.Errorf("%w: produced no chunks", domain.ErrInvalidDocument)
	}

	// Identical text is a no-op only once the stored copy is actually
	// chunked; a document saved by a feed but never processed must still
	// go through embedding and indexing.
	var staleChunkIDs []string
	if existing != nil {
		oldChunks, err := s.docStore.GetChunks(ctx, existing.ID)
		if err != nil {
			return statusSkipped, fmt.Errorf("loading superseded chunks: %w", err)
		}
		if len(oldChunks) > 0 && existing.FullText == doc.FullText {
			logger.Debug("Order %s unchanged, skipping", doc.OrderNumber)
			return statusSkipped, nil
		}
		if len(oldChunks) > 0 {
			logger.Info("Order %s changed, superseding stored version", doc.OrderNumber)
		}
		for _, c := range oldChunks {
			staleChunkIDs = append(staleChunkIDs, c.ID)
		}
	}

	// Embed all chunks before touching durable state.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err = s.retryPolicy.Do(ctx, "chunk embedding", func(ctx context.Context) error {
		var embedErr error
		embeddings, embedErr = s.embeddingService.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err != nil {
		return statusSkipped, fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return statusSkipped, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	// One transaction: document plus complete chunk set.
	if err := s.docStore.SaveDocumentWithChunks(ctx, &doc, chunks); err != nil {
		return statusSkipped, fmt.Errorf("storing document: %w", err)
	}

	// Index the new vectors. On partial failure, roll the inserted ones
	// back so no half-indexed document is ever searchable; the stored
	// embeddings allow a later RebuildIndex to recover.
	inserted := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if err := s.vectorIndex.Insert(ctx, chunk.ID, chunk.Embedding); err != nil {
			s.rollbackInserts(inserted)
			return statusSkipped, fmt.Errorf("indexing chunk %s: %w", chunk.ID, err)
		}
		inserted = append(inserted, chunk.ID)
	}

	// Drop superseded vectors that the new chunk set no longer covers.
	current := make(map[string]bool, len(chunks))
	for _, chunk := range chunks {
		current[chunk.ID] = true
	}
	for _, id := range staleChunkIDs {
		if current[id] {
			continue // replaced in place by Insert above
		}
		if err := s.vectorIndex.Remove(context.WithoutCancel(ctx), id); err != nil {
			logger.Warn("Removing superseded vector %s: %v", id, err)
		}
	}

	logger.Info("Ingested order %s: %d chunks", doc.OrderNumber, len(chunks))
	return statusIngested, nil
}

// rollbackInserts removes vectors inserted before a failure.
func (s *IngestService) rollbackInserts(chunkIDs []string) {
	for _, id := range chunkIDs {
		if err := s.vectorIndex.Remove(context.Background(), id); err != nil {
			logger.Warn("Rolling back vector %s: %v", id, err)
		}
	}
}

// acquire marks an order number as in flight. It fails with
// ErrIngestInProgress when another ingestion of the same order is
// running.
func (s *IngestService) acquire(orderNumber string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[orderNumber] {
		return nil, fmt.Errorf("order %s: %w", orderNumber, domain.ErrIngestInProgress)
	}
	s.inflight[orderNumber] = true

	return func() {
		s.mu.Lock()
		delete(s.inflight, orderNumber)
		s.mu.Unlock()
	}, nil
}

// validateDocument rejects documents that cannot be ingested.
func validateDocument(doc domain.Document) error {
	if strings.TrimSpace(doc.OrderNumber) == "" {
		return fmt.Errorf("%w: missing order number", domain.ErrInvalidDocument)
	}
	if strings.TrimSpace(doc.FullText) == "" {
		return fmt.Errorf("%w: order %s has no text", domain.ErrInvalidDocument, doc.OrderNumber)
	}
	return nil
}
