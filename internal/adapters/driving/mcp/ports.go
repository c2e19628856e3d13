package mcp

import (
	"github.com/policypal/policypal/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever provides raw passage retrieval.
	Retriever driving.RetrieverService

	// Chat answers questions with grounded, cited answers.
	Chat driving.ChatService

	// Documents manages the ingested corpus. Optional; without it the
	// order resources are empty.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetrieverService
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Documents is optional
	return nil
}
