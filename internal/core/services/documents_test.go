package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
)

func TestDocumentServiceDeleteRemovesVectors(t *testing.T) {
	ingest, store, index, _ := newTestIngestService()
	ctx := context.Background()

	require.NoError(t, ingest.Ingest(ctx, testOrder("14008", "Some order text to be deleted again.")))
	doc, err := store.GetDocumentByOrderNumber(ctx, "14008")
	require.NoError(t, err)
	require.Greater(t, index.Len(), 0)

	svc := NewDocumentService(store, index)
	require.NoError(t, svc.Delete(ctx, doc.ID))

	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, index.Len(), "deleted documents leave no searchable vectors")
}

func TestDocumentServiceSummaryGroupsByAdministration(t *testing.T) {
	store := newMockDocStore()
	ctx := context.Background()

	seed := []struct {
		orderNo string
		admin   string
		pres    string
		date    time.Time
	}{
		{"13800", "Trump (2017-2021)", "Donald Trump", time.Date(2017, 5, 11, 0, 0, 0, 0, time.UTC)},
		{"13960", "Trump (2017-2021)", "Donald Trump", time.Date(2020, 12, 3, 0, 0, 0, 0, time.UTC)},
		{"14008", "Biden (2021-2025)", "Joseph Biden", time.Date(2021, 1, 27, 0, 0, 0, 0, time.UTC)},
		{"14028", "Biden (2021-2025)", "Joseph Biden", time.Date(2021, 5, 12, 0, 0, 0, 0, time.UTC)},
		{"14110", "Biden (2021-2025)", "Joseph Biden", time.Date(2023, 10, 30, 0, 0, 0, 0, time.UTC)},
	}
	for i, s := range seed {
		doc := domain.Document{
			ID:             s.orderNo,
			OrderNumber:    s.orderNo,
			Title:          "Order " + s.orderNo,
			President:      s.pres,
			Administration: s.admin,
			PublishedDate:  s.date,
			FullText:       "text",
		}
		require.NoError(t, store.SaveDocument(ctx, &doc), "seed %d", i)
	}

	svc := NewDocumentService(store, newMockVectorIndex())
	summary, err := svc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalDocuments)
	require.Len(t, summary.Administrations, 2)

	// Chronological: Trump's first order predates Biden's.
	trump := summary.Administrations[0]
	assert.Equal(t, "Trump (2017-2021)", trump.Administration)
	assert.Equal(t, "Donald Trump", trump.President)
	assert.Equal(t, 2, trump.Total)
	assert.Equal(t, []domain.YearCount{{Year: 2017, Count: 1}, {Year: 2020, Count: 1}}, trump.Years)

	biden := summary.Administrations[1]
	assert.Equal(t, 3, biden.Total)
	assert.Equal(t, []domain.YearCount{{Year: 2021, Count: 2}, {Year: 2023, Count: 1}}, biden.Years)
}

func TestDocumentServiceSummaryHandlesMissingMetadata(t *testing.T) {
	store := newMockDocStore()
	ctx := context.Background()

	doc := domain.Document{
		ID:          "doc-1",
		OrderNumber: "14008",
		FullText:    "text",
		// No administration, no published date.
	}
	require.NoError(t, store.SaveDocument(ctx, &doc))

	svc := NewDocumentService(store, newMockVectorIndex())
	summary, err := svc.Summary(ctx)
	require.NoError(t, err)

	require.Len(t, summary.Administrations, 1)
	assert.Equal(t, "Unknown", summary.Administrations[0].Administration)
	assert.Equal(t, 1, summary.Administrations[0].Total)
	assert.Empty(t, summary.Administrations[0].Years, "undated orders contribute no year counts")
}

func TestDocumentServiceSummaryEmptyCorpus(t *testing.T) {
	svc := NewDocumentService(newMockDocStore(), newMockVectorIndex())

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalDocuments)
	assert.Empty(t, summary.Administrations)
}
