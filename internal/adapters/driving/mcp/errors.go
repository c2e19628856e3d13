// Package mcp provides an MCP (Model Context Protocol) server adapter for
// PolicyPal. It lets AI assistants search the ingested Executive Orders
// and ask grounded questions about them.
package mcp

import "errors"

// ErrMissingRetrieverService is returned when the retriever service is not provided.
var ErrMissingRetrieverService = errors.New("mcp: retriever service is required")

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
