package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_PrintsPassages(t *testing.T) {
	retriever := &mockRetrieverService{
		results: []domain.RetrievalResult{
			{
				Document: domain.Document{OrderNumber: "14008", Title: "Climate"},
				Chunk:    domain.Chunk{Content: "Section 1. Policy."},
				Score:    0.91,
			},
		},
	}
	cleanup := setServices(Services{Retriever: retriever})
	defer cleanup()

	out, err := execute("search", "climate")
	require.NoError(t, err)

	assert.Contains(t, out, "EO 14008: Climate (0.91)")
	assert.Contains(t, out, "Section 1. Policy.")
}

func TestSearchCmd_LimitFlagIsPassedThrough(t *testing.T) {
	retriever := &mockRetrieverService{}
	cleanup := setServices(Services{Retriever: retriever})
	defer cleanup()
	defer func() { searchLimit = 0 }()

	out, err := execute("search", "--limit", "3", "climate")
	require.NoError(t, err)

	assert.Equal(t, 3, retriever.lastK)
	assert.Contains(t, out, "No relevant passages found.")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	retriever := &mockRetrieverService{
		results: []domain.RetrievalResult{
			{
				Document: domain.Document{OrderNumber: "14008", Title: "Climate"},
				Chunk:    domain.Chunk{Content: "chunk text"},
				Score:    0.5,
			},
		},
	}
	cleanup := setServices(Services{Retriever: retriever})
	defer cleanup()
	defer func() { searchJSON = false }()

	out, err := execute("search", "--json", "climate")
	require.NoError(t, err)

	assert.Contains(t, out, `"order_number": "14008"`)
	assert.Contains(t, out, `"content": "chunk text"`)
}

func TestSearchCmd_ErrorsWithoutService(t *testing.T) {
	cleanup := setServices(Services{})
	defer cleanup()

	_, err := execute("search", "climate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 10))
	assert.Equal(t, "0123456789...", snippet("0123456789abcdef", 10))
}
