package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{
		APIKey:  "sk-ant-test",
		BaseURL: server.URL,
	})
	require.NoError(t, err)
	return svc
}

func textResponse(w http.ResponseWriter, text string) {
	json.NewEncoder(w).Encode(map[string]any{
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	})
}

func TestNewLLMServiceRequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestChatLiftsSystemPrompt(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		textResponse(w, "Executive Order 14008 addresses the climate crisis.")
	})

	result, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "You answer questions about Executive Orders."},
		{Role: "user", Content: "What does EO 14008 do?"},
	}, driven.ChatOptions{MaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "Executive Order 14008 addresses the climate crisis.", result)

	// The system turn moves to the top-level field, not the messages list.
	assert.Equal(t, "You answer questions about Executive Orders.", got.System)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, 500, got.MaxTokens)
}

func TestGenerateDefaultsMaxTokens(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		textResponse(w, "done")
	})

	_, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1024, got.MaxTokens)
}

func TestChatConcatenatesTextBlocks(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "first "},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": "second"},
			},
		})
	})

	result, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "hi"},
	}, driven.ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first second", result)
}

func TestChatAPIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "rate_limit_error", "message": "rate limited"},
		})
	})

	_, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: "user", Content: "hi"},
	}, driven.ChatOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRewriteQueryNoHistoryShortCircuits(t *testing.T) {
	svc := newTestService(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected without history")
	})

	query, err := svc.RewriteQuery(context.Background(), "what is EO 14008", nil)
	require.NoError(t, err)
	assert.Equal(t, "what is EO 14008", query)
}

func TestRewriteQueryUsesHistory(t *testing.T) {
	var got messagesRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		textResponse(w, "  when was Executive Order 14008 signed  ")
	})

	query, err := svc.RewriteQuery(context.Background(), "when was it signed?", []driven.ChatMessage{
		{Role: "user", Content: "tell me about EO 14008"},
		{Role: "assistant", Content: "EO 14008 tackles the climate crisis."},
	})
	require.NoError(t, err)
	assert.Equal(t, "when was Executive Order 14008 signed", query)

	// History plus the rewrite instruction; the system prompt is lifted.
	assert.NotEmpty(t, got.System)
	require.Len(t, got.Messages, 3)
	assert.Contains(t, got.Messages[2].Content, "when was it signed?")
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestPingBadKey(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	assert.Error(t, svc.Ping(context.Background()))
}
