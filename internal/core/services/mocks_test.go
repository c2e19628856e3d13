package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockDocStore implements driven.DocumentStore backed by maps.
type mockDocStore struct {
	mu      sync.Mutex
	docs    map[string]domain.Document // by ID
	chunks  map[string]domain.Chunk    // by ID
	saveErr error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		docs:   make(map[string]domain.Document),
		chunks: make(map[string]domain.Chunk),
	}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockDocStore) SaveDocumentWithChunks(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = *doc
	for id, chunk := range m.chunks {
		if chunk.DocumentID == doc.ID {
			delete(m.chunks, id)
		}
	}
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
	}
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocStore) GetDocumentByOrderNumber(_ context.Context, orderNumber string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.OrderNumber == orderNumber {
			d := doc
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunk, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

func (m *mockDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, chunk := range m.chunks {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedDate.Equal(out[j].PublishedDate) {
			return out[i].PublishedDate.Before(out[j].PublishedDate)
		}
		return out[i].OrderNumber < out[j].OrderNumber
	})
	return out, nil
}

func (m *mockDocStore) ListUnprocessed(ctx context.Context) ([]domain.Document, error) {
	docs, _ := m.ListDocuments(ctx)
	var out []domain.Document
	for _, doc := range docs {
		chunks, _ := m.GetChunks(ctx, doc.ID)
		if len(chunks) == 0 {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *mockDocStore) ListEmbeddedChunks(_ context.Context) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, chunk := range m.chunks {
		if len(chunk.Embedding) > 0 {
			out = append(out, chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	for chunkID, chunk := range m.chunks {
		if chunk.DocumentID == id {
			delete(m.chunks, chunkID)
		}
	}
	return nil
}

// mockVectorIndex implements driven.VectorIndex backed by a map.
type mockVectorIndex struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	hits      []driven.VectorHit // returned by Search when set
	insertErr error
	// failAfter makes Insert fail once this many inserts have happened.
	failAfter int
	inserts   int
}

func newMockVectorIndex() *mockVectorIndex {
	return &mockVectorIndex{vectors: make(map[string][]float32)}
}

func (m *mockVectorIndex) Insert(_ context.Context, chunkID string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.failAfter > 0 && m.inserts >= m.failAfter {
		return fmt.Errorf("index full")
	}
	m.inserts++
	m.vectors[chunkID] = embedding
	return nil
}

func (m *mockVectorIndex) Remove(_ context.Context, chunkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vectors, chunkID)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}

func (m *mockVectorIndex) Close() error { return nil }

// mockEmbeddingService implements driven.EmbeddingService.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	// failures makes the first n calls fail before succeeding.
	failures int
	calls    int
}

func (m *mockEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.calls <= m.failures {
		return nil, fmt.Errorf("%w: transient", domain.ErrEmbeddingUnavailable)
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int              { return len(m.embedding) }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLMService implements driven.LLMService.
type mockLLMService struct {
	chatResult    string
	chatErr       error
	chatCalls     int
	lastMessages  []driven.ChatMessage
	rewriteResult string
	rewriteErr    error
}

func (m *mockLLMService) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.chatResult, m.chatErr
}

func (m *mockLLMService) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.chatCalls++
	m.lastMessages = messages
	if m.chatErr != nil {
		return "", m.chatErr
	}
	return m.chatResult, nil
}

func (m *mockLLMService) RewriteQuery(_ context.Context, query string, _ []driven.ChatMessage) (string, error) {
	if m.rewriteErr != nil {
		return "", m.rewriteErr
	}
	if m.rewriteResult != "" {
		return m.rewriteResult, nil
	}
	return query, nil
}

func (m *mockLLMService) ModelName() string            { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                 { return nil }

// mockPipeline implements driven.PostProcessorPipeline with fixed-size
// splitting, enough to exercise ingestion without the real chunker.
type mockPipeline struct {
	chunkSize  int
	processErr error
}

func (m *mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if m.processErr != nil {
		return nil, m.processErr
	}
	size := m.chunkSize
	if size <= 0 {
		size = 50
	}
	text := strings.TrimSpace(doc.FullText)
	var chunks []domain.Chunk
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%d", doc.ID, len(chunks)),
			DocumentID: doc.ID,
			Position:   len(chunks),
			Content:    text[start:end],
			CharStart:  start,
			CharEnd:    end,
		})
	}
	return chunks, nil
}
