package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AIConfigValidator checks that configured AI providers are reachable.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	ValidateEmbedding(ctx context.Context, cfg domain.EmbeddingSettings) error

	// ValidateLLM pings the language model provider.
	ValidateLLM(ctx context.Context, cfg domain.LLMSettings) error
}
