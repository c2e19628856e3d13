// Package ai constructs embedding and LLM services from provider
// configuration, resolving API keys from the environment when the
// config leaves them blank.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/policypal/policypal/internal/adapters/driven/config/file"
	embgemini "github.com/policypal/policypal/internal/adapters/driven/embedding/gemini"
	embollama "github.com/policypal/policypal/internal/adapters/driven/embedding/ollama"
	embopenai "github.com/policypal/policypal/internal/adapters/driven/embedding/openai"
	llmanthropic "github.com/policypal/policypal/internal/adapters/driven/llm/anthropic"
	llmgemini "github.com/policypal/policypal/internal/adapters/driven/llm/gemini"
	llmollama "github.com/policypal/policypal/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/policypal/policypal/internal/adapters/driven/llm/openai"
	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
)

// pingTimeout bounds the connectivity check during validated creation.
const pingTimeout = 5 * time.Second

// Environment variables consulted when the config omits an API key.
const (
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envGeminiKey    = "GEMINI_API_KEY"
)

// CreateEmbeddingService builds an embedding service for the configured
// provider. It does not contact the provider; use
// CreateAndValidateEmbeddingService when a connectivity check is wanted.
func CreateEmbeddingService(ctx context.Context, cfg file.ProviderConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case file.ProviderOpenAI:
		return embopenai.NewEmbeddingService(embopenai.Config{
			APIKey:  apiKey(cfg, envOpenAIKey),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case file.ProviderOllama:
		return embollama.NewEmbeddingService(embollama.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case file.ProviderGemini:
		return embgemini.NewEmbeddingService(ctx, embgemini.Config{
			APIKey: apiKey(cfg, envGeminiKey),
			Model:  cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Provider)
	}
}

// CreateLLMService builds an LLM service for the configured provider.
// Provider "none" returns (nil, nil): callers run retrieval-only.
func CreateLLMService(ctx context.Context, cfg file.ProviderConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case file.ProviderNone:
		return nil, nil
	case file.ProviderOpenAI:
		return llmopenai.NewLLMService(llmopenai.LLMConfig{
			APIKey:  apiKey(cfg, envOpenAIKey),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case file.ProviderAnthropic:
		return llmanthropic.NewLLMService(llmanthropic.Config{
			APIKey:  apiKey(cfg, envAnthropicKey),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	case file.ProviderOllama:
		return llmollama.NewLLMService(llmollama.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case file.ProviderGemini:
		return llmgemini.NewLLMService(ctx, llmgemini.Config{
			APIKey: apiKey(cfg, envGeminiKey),
			Model:  cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// CreateAndValidateEmbeddingService builds the embedding service and
// pings it. On ping failure the service is closed and the error wraps
// domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(ctx context.Context, cfg file.ProviderConfig) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s provider unreachable: %v",
			domain.ErrEmbeddingUnavailable, cfg.Provider, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService builds the LLM service and pings it. On
// ping failure the service is closed and the error wraps
// domain.ErrGenerationUnavailable. Provider "none" passes validation
// with a nil service.
func CreateAndValidateLLMService(ctx context.Context, cfg file.ProviderConfig) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, cfg)
	if err != nil || svc == nil {
		return svc, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: %s provider unreachable: %v",
			domain.ErrGenerationUnavailable, cfg.Provider, err)
	}
	return svc, nil
}

// apiKey resolves the key from config, falling back to the provider's
// environment variable.
func apiKey(cfg file.ProviderConfig, envVar string) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return os.Getenv(envVar)
}
