package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AnswerService answers questions from the indexed documents.
type AnswerService interface {
	// Ask retrieves context for question and composes a sourced answer.
	// Returns domain.ErrNotInitialized before any successful ingestion.
	Ask(ctx context.Context, question string) (*domain.AnswerRecord, error)
}

// RetrievalService exposes raw similarity retrieval.
type RetrievalService interface {
	// Retrieve returns up to k chunks most similar to query (k <= 0 uses the default).
	Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}

// SettingsService exposes the effective configuration.
type SettingsService interface {
	// Get returns the current settings.
	Get() domain.Settings

	// RequireLLM fails with domain.ErrMissingAPIKey when the LLM cannot be used.
	RequireLLM() error
}
