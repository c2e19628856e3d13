// Package gemini provides an LLM service adapter using the Google Gemini
// API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

// Config holds configuration for the Gemini LLM service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the LLM model to use (default: gemini-1.5-flash).
	Model string
}

// LLMService provides LLM operations using the Gemini API.
type LLMService struct {
	client *genai.Client
	model  string
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &LLMService{
		client: client,
		model:  cfg.Model,
	}, nil
}

// Generate produces a text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	model := s.client.GenerativeModel(s.model)
	applyGenerationConfig(model, opts.MaxTokens, opts.Temperature, opts.StopWords)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", domain.ErrGenerationUnavailable, err)
	}
	return extractText(resp)
}

// Chat conducts a multi-turn conversation. The last message is sent as
// the live turn; everything before it becomes session history.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("gemini: no messages to send")
	}

	model := s.client.GenerativeModel(s.model)
	applyGenerationConfig(model, opts.MaxTokens, opts.Temperature, nil)

	var history []*genai.Content
	for _, msg := range messages[:len(messages)-1] {
		switch msg.Role {
		case "system":
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		default:
			history = append(history, &genai.Content{
				Role:  geminiRole(msg.Role),
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(messages[len(messages)-1].Content))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", domain.ErrGenerationUnavailable, err)
	}
	return extractText(resp)
}

// geminiRole maps chat roles onto the two roles Gemini understands.
func geminiRole(role string) string {
	if role == "assistant" {
		return "model"
	}
	return "user"
}

func applyGenerationConfig(model *genai.GenerativeModel, maxTokens int, temperature float64, stopWords []string) {
	if maxTokens > 0 {
		tokens := int32(maxTokens)
		model.GenerationConfig.MaxOutputTokens = &tokens
	}
	if temperature > 0 {
		temp := float32(temperature)
		model.GenerationConfig.Temperature = &temp
	}
	if len(stopWords) > 0 {
		model.GenerationConfig.StopSequences = stopWords
	}
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", domain.ErrGenerationUnavailable)
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		}
	}
	return out.String(), nil
}

// queryRewriteSystem instructs the model to resolve references against
// prior turns without answering the question.
const queryRewriteSystem = `You rewrite follow-up questions about U.S. Executive Orders into standalone search queries.
Resolve pronouns and references ("it", "that order", "the second one") using the conversation.
If the question already stands alone, return it unchanged.
Return ONLY the rewritten query, nothing else.`

// RewriteQuery condenses a follow-up question plus recent conversation
// history into a standalone retrieval query.
func (s *LLMService) RewriteQuery(ctx context.Context, query string, history []driven.ChatMessage) (string, error) {
	if len(history) == 0 {
		return query, nil
	}

	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{Role: "system", Content: queryRewriteSystem})
	messages = append(messages, history...)
	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: fmt.Sprintf("Rewrite this question as a standalone search query: %s", query),
	})

	result, err := s.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   100,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("rewrite query: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key with a minimal generation request.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1}); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *LLMService) Close() error {
	return s.client.Close()
}
