// Package openai provides an LLM service adapter for OpenAI-compatible chat APIs.
// Groq is served by the same adapter through its OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultGroqModel  = "llama-3.3-70b-versatile"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Groq or other compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Provider labels errors, e.g. "openai" or "groq".
	Provider string
}

// LLMService provides chat completions through go-openai.
type LLMService struct {
	client   *goopenai.Client
	model    string
	provider string
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, domain.ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client:   goopenai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
	}, nil
}

// Chat conducts a single blocking exchange.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	apiMessages := make([]goopenai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		apiMessages[i] = goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    apiMessages,
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", s.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices returned", s.provider)
	}

	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%s: ping failed: %w", s.provider, s.wrapError(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) wrapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%s: %w: %s", s.provider, domain.ErrMissingAPIKey, apiErr.Message)
		}
		return fmt.Errorf("%s error (status %d): %s", s.provider, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%s error (status %d): %w", s.provider, reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%s: %w: %w", s.provider, domain.ErrLLMUnavailable, err)
}
