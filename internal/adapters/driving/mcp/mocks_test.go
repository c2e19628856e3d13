package mcp

import (
	"context"

	"github.com/policypal/policypal/internal/core/domain"
)

// mockRetrieverService is a mock implementation of driving.RetrieverService.
type mockRetrieverService struct {
	results []domain.RetrievalResult
	err     error
	lastK   int
}

func (m *mockRetrieverService) Retrieve(
	_ context.Context,
	_ string,
	_ []domain.ConversationTurn,
	k int,
) ([]domain.RetrievalResult, error) {
	m.lastK = k
	return m.results, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer domain.Answer
	err    error
}

func (m *mockChatService) Ask(
	_ context.Context,
	_ string,
	_ []domain.ConversationTurn,
) (domain.Answer, error) {
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	summary   domain.CorpusSummary
	err       error
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

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockDocumentService) Summary(_ context.Context) (domain.CorpusSummary, error) {
	return m.summary, m.err
}
