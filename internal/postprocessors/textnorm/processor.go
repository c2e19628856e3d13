// Package textnorm normalises raw Executive Order text before chunking.
package textnorm

import (
	"context"
	"regexp"
	"strings"

	"github.com/policypal/policypal/internal/core/domain"
)

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	excessBlank   = regexp.MustCompile(`\n{3,}`)
)

// Processor cleans up the document's full text in place: Windows line
// endings become newlines, trailing whitespace is stripped, and runs of
// blank lines collapse to a single paragraph break. It runs before the
// chunker so chunk offsets refer to the normalised (stored) text.
type Processor struct{}

// New creates a new text normalisation processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "textnorm"
}

// Process rewrites doc.FullText and passes chunks through untouched.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	text := strings.ReplaceAll(doc.FullText, "\r\n", "\n")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = excessBlank.ReplaceAllString(text, "\n\n")
	doc.FullText = strings.TrimSpace(text)
	return chunks, nil
}
