package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/core/ports/driving"
	"github.com/policypal/policypal/internal/logger"
	"github.com/policypal/policypal/internal/retry"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieverService = (*RetrieverService)(nil)

// Default retrieval parameters.
const (
	DefaultTopK           = 5
	DefaultMinSimilarity  = 0.30
	DefaultMaxPerDocument = 3
)

// RetrieverConfig tunes retrieval behaviour.
type RetrieverConfig struct {
	// TopK is the result count when the caller passes k <= 0
	// (default: 5).
	TopK int

	// MinSimilarity drops chunks scoring below this cosine similarity
	// (default: 0.30). Results below the floor are noise, not answers.
	MinSimilarity float64

	// MaxPerDocument caps how many chunks a single order may contribute,
	// so one long order cannot crowd out the rest of the corpus
	// (default: 3).
	MaxPerDocument int
}

// RetrieverService finds the chunks most relevant to a question.
type RetrieverService struct {
	docStore         driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	config           RetrieverConfig
	retryPolicy      retry.Policy
}

// NewRetrieverService creates a new retriever service.
// The llmService parameter is optional (can be nil); without it,
// follow-up questions are searched verbatim instead of being rewritten
// against conversation history.
func NewRetrieverService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
	llmService driven.LLMService,
	config RetrieverConfig,
) *RetrieverService {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.MinSimilarity <= 0 {
		config.MinSimilarity = DefaultMinSimilarity
	}
	if config.MaxPerDocument <= 0 {
		config.MaxPerDocument = DefaultMaxPerDocument
	}

	return &RetrieverService{
		docStore:         docStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
		llmService:       llmService,
		config:           config,
		retryPolicy:      retry.DefaultPolicy(),
	}
}

// SetRetryPolicy overrides the backoff policy for embedding calls.
func (s *RetrieverService) SetRetryPolicy(policy retry.Policy) {
	s.retryPolicy = policy
}

// Retrieve returns the top-k chunks relevant to the query, ranked by
// descending similarity, deduplicated per document and filtered by the
// minimum similarity threshold. An empty result set means no relevant
// source exists; it is a state, not an error.
func (s *RetrieverService) Retrieve(
	ctx context.Context, query string, history []domain.ConversationTurn, k int,
) ([]domain.RetrievalResult, error) {
	logger.Section("Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievalResult{}, nil
	}
	if k <= 0 {
		k = s.config.TopK
	}
	logger.Debug("Query: %q, k=%d", query, k)

	searchQuery := s.resolveQuery(ctx, query, history)

	// Embed the query.
	var embedding []float32
	err := s.retryPolicy.Do(ctx, "query embedding", func(ctx context.Context) error {
		var embedErr error
		embedding, embedErr = s.embeddingService.Embed(ctx, searchQuery)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Overscan so the similarity floor and per-document cap still leave
	// k results to return.
	searchLimit := k * s.config.MaxPerDocument
	hits, err := s.vectorIndex.Search(ctx, embedding, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	logger.Debug("Index returned %d hits", len(hits))

	results := make([]domain.RetrievalResult, 0, k)
	perDocument := make(map[string]int)

	for _, hit := range hits {
		if hit.Similarity < s.config.MinSimilarity {
			// Hits are ordered by score, so everything after is noise.
			break
		}

		chunk, err := s.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk superseded since the index was read; skip it.
				continue
			}
			return nil, fmt.Errorf("loading chunk %s: %w", hit.ChunkID, err)
		}

		if perDocument[chunk.DocumentID] >= s.config.MaxPerDocument {
			continue
		}

		doc, err := s.docStore.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("loading document %s: %w", chunk.DocumentID, err)
		}

		perDocument[chunk.DocumentID]++
		results = append(results, domain.RetrievalResult{
			Chunk:    *chunk,
			Document: *doc,
			Score:    hit.Similarity,
		})

		if len(results) == k {
			break
		}
	}

	logger.Info("Retrieved %d passages from %d orders", len(results), len(perDocument))
	return results, nil
}

// resolveQuery rewrites a follow-up question into a standalone query
// using conversation history. Rewriting is best-effort: any failure
// degrades to the original query rather than failing retrieval.
func (s *RetrieverService) resolveQuery(
	ctx context.Context, query string, history []domain.ConversationTurn,
) string {
	if s.llmService == nil || len(history) == 0 {
		return query
	}

	messages := make([]driven.ChatMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	rewritten, err := s.llmService.RewriteQuery(ctx, query, messages)
	if err != nil {
		logger.Warn("Query rewrite failed: %v (using original query)", err)
		return query
	}
	if strings.TrimSpace(rewritten) == "" {
		return query
	}
	if rewritten != query {
		logger.Info("Query rewritten: %q", rewritten)
	}
	return rewritten
}
