package services

import (
	"context"
	"fmt"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driving"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// maxHistoryTurns bounds how many prior turns feed query rewriting and
// answer composition. Older turns rarely help and inflate prompts.
const maxHistoryTurns = 8

// ChatService answers questions about the ingested Executive Orders by
// chaining retrieval and composition. It holds no session state: history
// is supplied by the caller on every request.
type ChatService struct {
	retriever driving.RetrieverService
	composer  *ComposerService
}

// NewChatService creates a new chat service.
func NewChatService(retriever driving.RetrieverService, composer *ComposerService) *ChatService {
	return &ChatService{
		retriever: retriever,
		composer:  composer,
	}
}

// Ask retrieves relevant passages for the message and composes a
// grounded answer with citations.
func (s *ChatService) Ask(
	ctx context.Context, message string, history []domain.ConversationTurn,
) (domain.Answer, error) {
	history = trimHistory(history, maxHistoryTurns)

	results, err := s.retriever.Retrieve(ctx, message, history, 0)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("retrieving passages: %w", err)
	}

	return s.composer.Compose(ctx, message, results, history)
}

// trimHistory keeps the most recent n turns.
func trimHistory(history []domain.ConversationTurn, n int) []domain.ConversationTurn {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
