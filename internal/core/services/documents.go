package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/core/ports/driving"
	"github.com/policypal/policypal/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages the ingested corpus.
type DocumentService struct {
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore, vectorIndex driven.VectorIndex) *DocumentService {
	return &DocumentService{
		docStore:    docStore,
		vectorIndex: vectorIndex,
	}
}

// List returns all ingested documents ordered by published date.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, id)
}

// GetByOrderNumber retrieves a document by its Executive Order number.
func (s *DocumentService) GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Document, error) {
	return s.docStore.GetDocumentByOrderNumber(ctx, orderNumber)
}

// Delete removes a document, its chunks and its index entries.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	chunks, err := s.docStore.GetChunks(ctx, id)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}

	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	for _, chunk := range chunks {
		if err := s.vectorIndex.Remove(ctx, chunk.ID); err != nil {
			logger.Warn("Removing vector %s: %v", chunk.ID, err)
		}
	}

	logger.Info("Deleted document %s (%d chunks)", id, len(chunks))
	return nil
}

// Summary describes the corpus grouped by administration and year.
func (s *DocumentService) Summary(ctx context.Context) (domain.CorpusSummary, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return domain.CorpusSummary{}, fmt.Errorf("listing documents: %w", err)
	}

	summary := domain.CorpusSummary{TotalDocuments: len(docs)}

	// Group by administration, preserving first-appearance order; docs
	// arrive sorted by published date, so administrations appear in
	// chronological order.
	index := make(map[string]int)
	years := make(map[string]map[int]int)

	for _, doc := range docs {
		admin := doc.Administration
		if admin == "" {
			admin = "Unknown"
		}

		i, ok := index[admin]
		if !ok {
			i = len(summary.Administrations)
			index[admin] = i
			years[admin] = make(map[int]int)
			summary.Administrations = append(summary.Administrations, domain.AdministrationSummary{
				Administration: admin,
				President:      doc.President,
			})
		}

		summary.Administrations[i].Total++
		if !doc.PublishedDate.IsZero() {
			years[admin][doc.PublishedDate.Year()]++
		}
	}

	for i := range summary.Administrations {
		counts := years[summary.Administrations[i].Administration]
		yearCounts := make([]domain.YearCount, 0, len(counts))
		for year, count := range counts {
			yearCounts = append(yearCounts, domain.YearCount{Year: year, Count: count})
		}
		sort.Slice(yearCounts, func(a, b int) bool {
			return yearCounts[a].Year < yearCounts[b].Year
		})
		summary.Administrations[i].Years = yearCounts
	}

	return summary, nil
}
