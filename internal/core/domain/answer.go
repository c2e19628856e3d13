package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the human asking questions.
	RoleUser Role = "user"

	// RoleAssistant marks a turn produced by the system.
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one turn of chat history. History is supplied by the
// caller on every request; the core never keeps a session.
type ConversationTurn struct {
	// Role is who authored the turn.
	Role Role

	// Content is the turn's text.
	Content string

	// Sources are the citations attached to an assistant turn, if any.
	Sources []SourceRef
}

// RetrievalResult is a scored chunk produced for one query.
// Ephemeral: results are never persisted.
type RetrievalResult struct {
	// Chunk is the retrieved chunk.
	Chunk Chunk

	// Document is the chunk's owning document.
	Document Document

	// Score is the cosine similarity of the chunk to the query.
	Score float64
}

// SourceRef is a citation back to a specific Executive Order.
type SourceRef struct {
	// OrderNumber is the cited Executive Order number.
	OrderNumber string `json:"order_number"`

	// Title is the cited order's title.
	Title string `json:"title"`
}

// Answer is a generated answer grounded in retrieved passages.
type Answer struct {
	// Text is the generated answer text.
	Text string `json:"answer"`

	// Sources lists the orders whose passages were supplied to the
	// generator, deduplicated and ordered by first appearance at
	// descending retrieval score. Derived structurally from the
	// retrieval results, never parsed out of the generated text.
	Sources []SourceRef `json:"sources"`
}
