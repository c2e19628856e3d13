package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/logger"
	"github.com/policypal/policypal/internal/retry"
)

// NoSourceAnswer is returned when retrieval finds nothing relevant. The
// generator is never called in that case: with no grounding passages
// there is nothing it could say that isn't invention.
const NoSourceAnswer = "I couldn't find anything about that in the ingested Executive Orders. " +
	"Try rephrasing the question, or ingest more orders."

// generationFailedAnswer is shown when the generator is unreachable after
// retries. The cited passages were still retrieved and are reported.
const generationFailedAnswer = "I found relevant passages but couldn't generate an answer right now. " +
	"Please try again in a moment."

// composerSystemPrompt pins the generator to the supplied passages.
const composerSystemPrompt = `You are PolicyPal, an assistant that answers questions about U.S. Executive Orders.
Answer ONLY from the excerpts provided in the user's message.
If the excerpts do not contain the answer, say so plainly instead of guessing.
Refer to orders by their number (e.g. "Executive Order 14008").
Be concise and factual.`

// corpusSummarizer supplies the corpus overview included in the prompt.
type corpusSummarizer interface {
	Summary(ctx context.Context) (domain.CorpusSummary, error)
}

// ComposerService turns retrieved passages into a grounded answer with
// citations. Citations are derived structurally from the retrieval
// results, never parsed out of generated text.
type ComposerService struct {
	llmService  driven.LLMService
	summarizer  corpusSummarizer
	retryPolicy retry.Policy
}

// NewComposerService creates a new composer service.
// The llmService parameter is optional (can be nil); without it, answers
// degrade to the raw passages instead of generated prose.
func NewComposerService(llmService driven.LLMService) *ComposerService {
	return &ComposerService{
		llmService:  llmService,
		retryPolicy: retry.DefaultPolicy(),
	}
}

// SetRetryPolicy overrides the backoff policy for generation calls.
func (s *ComposerService) SetRetryPolicy(policy retry.Policy) {
	s.retryPolicy = policy
}

// SetCorpusSummarizer enables the corpus overview in the prompt so the
// generator can answer questions about coverage ("how many orders from
// 2021 do you know?"). Optional; a summary failure is not fatal.
func (s *ComposerService) SetCorpusSummarizer(summarizer corpusSummarizer) {
	s.summarizer = summarizer
}

// Compose generates an answer to the question grounded in the retrieved
// passages. An empty result set yields the fixed no-source answer
// without calling the generator.
func (s *ComposerService) Compose(
	ctx context.Context,
	question string,
	results []domain.RetrievalResult,
	history []domain.ConversationTurn,
) (domain.Answer, error) {
	logger.Section("Answer Composition")

	if len(results) == 0 {
		logger.Info("No passages retrieved, returning no-source answer")
		return domain.Answer{
			Text:    NoSourceAnswer,
			Sources: []domain.SourceRef{},
		}, nil
	}

	sources := collectSources(results)

	if s.llmService == nil {
		logger.Debug("No generator configured, returning passages verbatim")
		return domain.Answer{
			Text:    passagesFallback(results),
			Sources: sources,
		}, nil
	}

	messages := s.buildMessages(ctx, question, results, history)

	var text string
	err := s.retryPolicy.Do(ctx, "answer generation", func(ctx context.Context) error {
		var genErr error
		text, genErr = s.llmService.Chat(ctx, messages, driven.ChatOptions{
			MaxTokens:   1024,
			Temperature: 0.2,
		})
		return genErr
	})
	if err != nil {
		return domain.Answer{
			Text:    generationFailedAnswer,
			Sources: sources,
		}, fmt.Errorf("generating answer: %w", err)
	}

	logger.Info("Composed answer citing %d orders", len(sources))
	return domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
	}, nil
}

// buildMessages assembles the chat transcript for the generator: system
// instruction, prior turns, then the question with its tagged excerpts.
func (s *ComposerService) buildMessages(
	ctx context.Context,
	question string,
	results []domain.RetrievalResult,
	history []domain.ConversationTurn,
) []driven.ChatMessage {
	system := composerSystemPrompt
	if overview := s.corpusOverview(ctx); overview != "" {
		system += "\n\n" + overview
	}

	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    "system",
		Content: system,
	})

	for _, turn := range history {
		messages = append(messages, driven.ChatMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}

	var prompt strings.Builder
	prompt.WriteString("Excerpts from Executive Orders:\n\n")
	for _, result := range results {
		fmt.Fprintf(&prompt, "[Executive Order %s: %s]\n%s\n\n",
			result.Document.OrderNumber, result.Document.Title, result.Chunk.Content)
	}
	fmt.Fprintf(&prompt, "Question: %s", question)

	messages = append(messages, driven.ChatMessage{
		Role:    "user",
		Content: prompt.String(),
	})
	return messages
}

// corpusOverview renders the ingested corpus grouped by administration
// and year. Empty when no summarizer is configured or the corpus is
// empty; a store failure only logs, the answer still gets composed.
func (s *ComposerService) corpusOverview(ctx context.Context) string {
	if s.summarizer == nil {
		return ""
	}

	summary, err := s.summarizer.Summary(ctx)
	if err != nil {
		logger.Warn("corpus summary unavailable: %v", err)
		return ""
	}
	if summary.TotalDocuments == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The indexed corpus holds %d Executive Orders:\n", summary.TotalDocuments)
	for _, admin := range summary.Administrations {
		fmt.Fprintf(&b, "- %s: %d orders (", admin.Administration, admin.Total)
		for i, yc := range admin.Years {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%d in %d", yc.Count, yc.Year)
		}
		b.WriteString(")\n")
	}
	return strings.TrimSpace(b.String())
}

// collectSources deduplicates cited orders by first appearance. Results
// arrive ordered by descending score, so the first citation is the most
// relevant one.
func collectSources(results []domain.RetrievalResult) []domain.SourceRef {
	seen := make(map[string]bool, len(results))
	sources := make([]domain.SourceRef, 0, len(results))
	for _, result := range results {
		if seen[result.Document.OrderNumber] {
			continue
		}
		seen[result.Document.OrderNumber] = true
		sources = append(sources, domain.SourceRef{
			OrderNumber: result.Document.OrderNumber,
			Title:       result.Document.Title,
		})
	}
	return sources
}

// passagesFallback renders the retrieved passages directly when no
// generator is available.
func passagesFallback(results []domain.RetrievalResult) string {
	var b strings.Builder
	b.WriteString("No answer generator is configured. The most relevant passages:\n")
	for _, result := range results {
		fmt.Fprintf(&b, "\n[Executive Order %s: %s]\n%s\n",
			result.Document.OrderNumber, result.Document.Title, result.Chunk.Content)
	}
	return b.String()
}
