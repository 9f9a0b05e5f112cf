package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.EmbeddingSettings
		wantModel string
		wantErr   error
	}{
		{
			name:      "ollama",
			settings:  domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"},
			wantModel: "all-minilm",
		},
		{
			name:      "openai",
			settings:  domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "text-embedding-3-small"},
			wantModel: "text-embedding-3-small",
		},
		{
			name:     "openai without key",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:  domain.ErrMissingAPIKey,
		},
		{
			name:     "anthropic has no embeddings",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "k"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "groq has no embeddings",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderGroq, APIKey: "k"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:  domain.ErrEmbeddingUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateLLMService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.LLMSettings
		wantModel string
		wantErr   error
	}{
		{
			name:      "groq defaults",
			settings:  domain.LLMSettings{Provider: domain.AIProviderGroq, APIKey: "k"},
			wantModel: "llama-3.3-70b-versatile",
		},
		{
			name:      "openai",
			settings:  domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:      "anthropic",
			settings:  domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "k", Model: "claude-x"},
			wantModel: "claude-x",
		},
		{
			name:      "ollama",
			settings:  domain.LLMSettings{Provider: domain.AIProviderOllama, Model: "llama3.2"},
			wantModel: "llama3.2",
		},
		{
			name:     "groq without key",
			settings: domain.LLMSettings{Provider: domain.AIProviderGroq},
			wantErr:  domain.ErrMissingAPIKey,
		},
		{
			name:     "unknown provider",
			settings: domain.LLMSettings{Provider: "mystery"},
			wantErr:  domain.ErrLLMUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(tt.settings)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
		})
	}
}

func TestConfigValidator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[{"name":"all-minilm:latest"},{"name":"llama3.2:latest"}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	v := NewConfigValidator()
	ctx := context.Background()

	assert.NoError(t, v.ValidateEmbedding(ctx, domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))
	assert.NoError(t, v.ValidateLLM(ctx, domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL}))

	srv.Close()
	err := v.ValidateLLM(ctx, domain.LLMSettings{Provider: domain.AIProviderOllama, BaseURL: srv.URL})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	err = v.ValidateEmbedding(ctx, domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}
