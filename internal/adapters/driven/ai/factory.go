// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s embeddings need %s", domain.ErrMissingAPIKey,
			settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			BatchSize: settings.BatchSize,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:    settings.APIKey,
			BaseURL:   settings.BaseURL,
			Model:     settings.Model,
			BatchSize: settings.BatchSize,
		})

	case domain.AIProviderAnthropic, domain.AIProviderGroq:
		return nil, fmt.Errorf("%w: %s does not offer embeddings, use ollama or openai",
			domain.ErrEmbeddingUnavailable, settings.Provider)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q",
			domain.ErrEmbeddingUnavailable, settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s needs %s", domain.ErrMissingAPIKey,
			settings.Provider, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:   settings.APIKey,
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
			Provider: string(settings.Provider),
		})

	case domain.AIProviderGroq:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.GroqBaseURL
		}
		model := settings.Model
		if model == "" {
			model = openaillm.DefaultGroqModel
		}
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:   settings.APIKey,
			BaseURL:  baseURL,
			Model:    model,
			Provider: string(settings.Provider),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", domain.ErrLLMUnavailable, settings.Provider)
	}
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
func ValidateEmbeddingConfig(ctx context.Context, settings domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// ValidateLLMConfig creates an LLM service and pings it.
func ValidateLLMConfig(ctx context.Context, settings domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return nil
}
