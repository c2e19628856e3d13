package domain

import "time"

// Document represents an ingested Executive Order.
// It is the canonical representation after normalisation and is immutable
// once ingested: re-ingesting the same order number supersedes the old
// document (and cascades to its chunks) rather than mutating it in place.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OrderNumber is the Executive Order number (e.g. "14001").
	// Unique across the store.
	OrderNumber string

	// Title is the human-readable title of the order.
	Title string

	// President is the signing president (e.g. "Joseph R. Biden").
	President string

	// Administration is the issuing administration
	// (e.g. "Biden Administration").
	Administration string

	// URL is the Federal Register location of the order, if known.
	URL string

	// PublishedDate is when the order was published.
	PublishedDate time.Time

	// FullText is the complete raw text of the order before chunking.
	// Never empty for a valid document.
	FullText string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last superseded.
	UpdatedAt time.Time
}

// Chunk represents a retrievable unit within a document.
// Documents are split into overlapping chunks for granular retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text content of this chunk.
	Content string

	// CharStart is the byte offset of the chunk's start in FullText.
	CharStart int

	// CharEnd is the byte offset one past the chunk's end in FullText.
	// Always greater than CharStart.
	CharEnd int

	// Embedding is the vector representation for semantic retrieval.
	// One embedding per chunk; replaced, never mutated.
	Embedding []float32
}
