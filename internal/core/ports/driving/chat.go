package driving

import (
	"context"

	"github.com/policypal/policypal/internal/core/domain"
)

// ChatService answers questions about the ingested Executive Orders.
type ChatService interface {
	// Ask retrieves relevant passages for the message and composes a
	// grounded answer with citations. History is the caller's previous
	// turns, oldest first; it is never stored server-side.
	Ask(ctx context.Context, message string, history []domain.ConversationTurn) (domain.Answer, error)
}

// RetrieverService exposes raw retrieval without answer composition.
type RetrieverService interface {
	// Retrieve returns the top-k chunks relevant to the query, ranked by
	// descending similarity, deduplicated per document and filtered by
	// the minimum similarity threshold. An empty result means no
	// relevant source exists; it is a state, not an error.
	Retrieve(ctx context.Context, query string, history []domain.ConversationTurn, k int) ([]domain.RetrievalResult, error)
}
