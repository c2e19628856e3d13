package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns retrieved passages", func(t *testing.T) {
		retriever := &mockRetrieverService{
			results: []domain.RetrievalResult{
				{
					Document: domain.Document{
						OrderNumber: "14008",
						Title:       "Tackling the Climate Crisis",
						URL:         "https://example.com/14008",
					},
					Chunk: domain.Chunk{Content: "Section 1. Policy..."},
					Score: 0.91,
				},
			},
		}

		server, err := NewServer(&Ports{Retriever: retriever, Chat: &mockChatService{}})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "climate", Limit: 5})
		require.NoError(t, err)

		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "14008", output.Results[0].OrderNumber)
		assert.Equal(t, "Tackling the Climate Crisis", output.Results[0].Title)
		assert.Equal(t, "https://example.com/14008", output.Results[0].URL)
		assert.Equal(t, 0.91, output.Results[0].Score)
		assert.Equal(t, "Section 1. Policy...", output.Results[0].Content)
	})

	t.Run("limit is passed through to the retriever", func(t *testing.T) {
		retriever := &mockRetrieverService{}
		server, err := NewServer(&Ports{Retriever: retriever, Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "q", Limit: 7})
		require.NoError(t, err)
		assert.Equal(t, 7, retriever.lastK)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		retriever := &mockRetrieverService{err: errors.New("index unavailable")}
		server, err := NewServer(&Ports{Retriever: retriever, Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index unavailable")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with sources", func(t *testing.T) {
		chat := &mockChatService{
			answer: domain.Answer{
				Text: "Executive Order 14008 addresses the climate crisis.",
				Sources: []domain.SourceRef{
					{OrderNumber: "14008", Title: "Tackling the Climate Crisis"},
				},
			},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "what is EO 14008?"})
		require.NoError(t, err)

		assert.Equal(t, "Executive Order 14008 addresses the climate crisis.", output.Answer)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "14008", output.Sources[0].OrderNumber)
	})

	t.Run("returns degraded answer when generation is unavailable", func(t *testing.T) {
		chat := &mockChatService{
			answer: domain.Answer{
				Text: "I found relevant passages but couldn't generate an answer right now.",
				Sources: []domain.SourceRef{
					{OrderNumber: "14008", Title: "Tackling the Climate Crisis"},
				},
			},
			err: fmt.Errorf("generating answer: %w", domain.ErrGenerationUnavailable),
		}
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "what is EO 14008?"})
		require.NoError(t, err)

		assert.Contains(t, output.Answer, "couldn't generate an answer")
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "14008", output.Sources[0].OrderNumber)
	})

	t.Run("returns error on chat failure", func(t *testing.T) {
		chat := &mockChatService{err: errors.New("generation failed")}
		server, err := NewServer(&Ports{Retriever: &mockRetrieverService{}, Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "generation failed")
	})
}
