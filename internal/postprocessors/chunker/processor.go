// Package chunker splits Executive Order text into overlapping chunks.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/policypal/policypal/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document content into overlapping chunks, preferring
// paragraph and sentence boundaries over hard character cuts.
// It implements the PostProcessor interface.
//
// Chunking is deterministic: the same document always yields the same
// chunk boundaries and the same chunk IDs.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from the
// document's full text. An empty document is rejected as invalid.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.FullText) == "" {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrInvalidDocument, doc.OrderNumber)
	}

	content := doc.FullText
	contentLen := len(content)

	estimatedChunks := (contentLen / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < contentLen {
		end := start + p.chunkSize
		if end >= contentLen {
			end = contentLen
		} else {
			end = snapToRuneStart(content, p.snapToBoundary(content, start, end))
			if end <= start {
				_, n := utf8.DecodeRuneInString(content[start:])
				end = start + n
			}
		}

		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Position:   position,
			Content:    content[start:end],
			CharStart:  start,
			CharEnd:    end,
		})
		position++

		if end == contentLen {
			break
		}

		// Step back by the overlap window, guaranteeing forward progress
		// even when boundary snapping produced a short chunk.
		next := snapToRuneStart(content, end-p.overlap)
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// snapToBoundary moves the cut point from end back to the nearest paragraph
// break, falling back to a sentence end, within the second half of the
// chunk. Returns end unchanged when no boundary exists there (a single
// overlong sentence gets a hard cut).
func (p *Processor) snapToBoundary(content string, start, end int) int {
	// Never shrink below half the target size; tiny chunks embed poorly.
	floor := start + p.chunkSize/2

	if i := strings.LastIndex(content[floor:end], "\n\n"); i >= 0 {
		return floor + i + 2
	}

	for j := end - 1; j >= floor; j-- {
		if isSentenceEnd(content, j) {
			return j + 1
		}
	}

	return end
}

// snapToRuneStart backs i up to the start of the UTF-8 sequence it
// falls inside, so a byte-offset cut never splits a rune.
func snapToRuneStart(content string, i int) int {
	for i > 0 && i < len(content) && !utf8.RuneStart(content[i]) {
		i--
	}
	return i
}

// isSentenceEnd reports whether content[i] terminates a sentence: a
// terminator followed by whitespace or end of text.
func isSentenceEnd(content string, i int) bool {
	c := content[i]
	if c != '.' && c != '!' && c != '?' {
		return false
	}
	if i+1 >= len(content) {
		return true
	}
	next := content[i+1]
	return next == ' ' || next == '\n' || next == '\t'
}

// ChunkID derives the deterministic chunk identifier for a document
// position. UUIDv5 keeps IDs stable across re-chunking so supersession
// replaces rather than accumulates.
func ChunkID(documentID string, position int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%s:%d", documentID, position)).String()
}
