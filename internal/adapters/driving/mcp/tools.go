package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/policypal/policypal/internal/core/domain"
)

// SearchInput is the input schema for the search_orders tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the question or topic to search the Executive Orders for"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

// SearchOutput is the output schema for the search_orders tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved passage.
type SearchResultOutput struct {
	OrderNumber string  `json:"order_number"`
	Title       string  `json:"title"`
	URL         string  `json:"url,omitempty"`
	Score       float64 `json:"score"`
	Content     string  `json:"content"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested Executive Orders"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Sources []SourceOutput `json:"sources"`
}

// SourceOutput is one cited order.
type SourceOutput struct {
	OrderNumber string `json:"order_number"`
	Title       string `json:"title"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_orders",
		Description: "Search the ingested U.S. Executive Orders for relevant passages",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about the ingested U.S. Executive Orders and get a cited answer",
	}, s.handleAsk)
}

// handleSearch handles the search_orders tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Retriever.Retrieve(ctx, input.Query, nil, input.Limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = SearchResultOutput{
			OrderNumber: results[i].Document.OrderNumber,
			Title:       results[i].Document.Title,
			URL:         results[i].Document.URL,
			Score:       results[i].Score,
			Content:     results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation. MCP calls are stateless, so
// each question stands alone with no conversation history.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.Ask(ctx, input.Question, nil)
	if err != nil && !errors.Is(err, domain.ErrGenerationUnavailable) {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:  answer.Text,
		Sources: make([]SourceOutput, len(answer.Sources)),
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			OrderNumber: src.OrderNumber,
			Title:       src.Title,
		}
	}
	return nil, output, nil
}
