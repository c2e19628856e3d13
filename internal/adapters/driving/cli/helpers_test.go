package cli

import (
	"bytes"
	"context"
	"time"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driving"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer      domain.Answer
	err         error
	lastMessage string
}

func (m *mockChatService) Ask(
	_ context.Context, message string, _ []domain.ConversationTurn,
) (domain.Answer, error) {
	m.lastMessage = message
	return m.answer, m.err
}

// mockRetrieverService is a mock implementation of driving.RetrieverService.
type mockRetrieverService struct {
	results []domain.RetrievalResult
	err     error
	lastK   int
}

func (m *mockRetrieverService) Retrieve(
	_ context.Context, _ string, _ []domain.ConversationTurn, k int,
) ([]domain.RetrievalResult, error) {
	m.lastK = k
	return m.results, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	stats        driving.IngestStats
	rebuildCount int
	err          error
	lastDocs     []domain.Document
}

func (m *mockIngestService) Ingest(_ context.Context, _ domain.Document) error {
	return m.err
}

func (m *mockIngestService) IngestAll(_ context.Context, docs []domain.Document) (driving.IngestStats, error) {
	m.lastDocs = docs
	return m.stats, m.err
}

func (m *mockIngestService) ProcessPending(_ context.Context) (driving.IngestStats, error) {
	return m.stats, m.err
}

func (m *mockIngestService) RebuildIndex(_ context.Context) (int, error) {
	return m.rebuildCount, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	summary   domain.CorpusSummary
	err       error
	deletedID string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	if m.document == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.document, m.err
}

func (m *mockDocumentService) GetByOrderNumber(_ context.Context, _ string) (*domain.Document, error) {
	if m.document == nil && m.err == nil {
		return nil, domain.ErrNotFound
	}
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockDocumentService) Summary(_ context.Context) (domain.CorpusSummary, error) {
	return m.summary, m.err
}

// mockFeed is a mock implementation of driven.DocumentFeed.
type mockFeed struct {
	docs     []domain.Document
	err      error
	lastYear int
}

func (m *mockFeed) Fetch(_ context.Context, year int) ([]domain.Document, error) {
	m.lastYear = year
	return m.docs, m.err
}

// setServices swaps the package-level services for a test and returns a
// cleanup that restores the previous wiring.
func setServices(s Services) func() {
	prev := Services{
		Ingest:    ingestService,
		Retriever: retrieverService,
		Chat:      chatService,
		Documents: documentService,
		Feed:      documentFeed,
		WatchDir:  defaultWatchDir,
	}
	SetServices(s)
	return func() { SetServices(prev) }
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func cliOrder(orderNumber, title string) domain.Document {
	return domain.Document{
		ID:            "doc-" + orderNumber,
		OrderNumber:   orderNumber,
		Title:         title,
		FullText:      "full text of " + orderNumber,
		PublishedDate: time.Date(2021, 1, 27, 0, 0, 0, 0, time.UTC),
	}
}
