package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever finds the chunks nearest to a query using the ingestion embedder.
type Retriever struct {
	runtime *Runtime
}

// NewRetriever creates a retriever over the Runtime's handles.
func NewRetriever(runtime *Runtime) *Retriever {
	return &Retriever{runtime: runtime}
}

// Retrieve returns up to k chunks, best first. k <= 0 uses the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	r.runtime.mu.RLock()
	defer r.runtime.mu.RUnlock()
	return r.retrieve(ctx, query, k)
}

// retrieve expects the caller to hold the Runtime read lock.
func (r *Retriever) retrieve(ctx context.Context, query string, k int) (domain.RetrievalResult, error) {
	result := domain.RetrievalResult{Query: query}

	if strings.TrimSpace(query) == "" {
		return result, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if !r.runtime.Ready() {
		return result, domain.ErrNotInitialized
	}
	if k <= 0 {
		k = r.runtime.Settings().RetrievalK
	}
	if k <= 0 {
		k = domain.DefaultRetrievalK
	}

	index := r.runtime.indexHandle()
	embedder := r.runtime.embedderHandle()
	if index == nil || embedder == nil {
		return result, domain.ErrNotInitialized
	}

	n, err := index.Count(ctx)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return result, fmt.Errorf("%w: %w", domain.ErrNotReady, err)
	}
	if err != nil {
		return result, fmt.Errorf("count vectors: %w", err)
	}
	if n == 0 {
		return result, fmt.Errorf("%w: collection %s is empty", domain.ErrNotReady, index.Name())
	}

	vec, err := embedder.Embed(ctx, query)
	if err != nil {
		return result, fmt.Errorf("embed query: %w", err)
	}

	hits, err := index.Query(ctx, vec, k)
	if err != nil {
		return result, fmt.Errorf("query index: %w", err)
	}
	logger.Debug("retrieved %d of %d chunks for %q", len(hits), n, query)

	result.Chunks = make([]domain.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		result.Chunks = append(result.Chunks, domain.RetrievedChunk{
			ID:      h.ID,
			Text:    h.Text,
			Locator: h.Locator,
			Score:   h.Similarity,
		})
	}
	return result, nil
}
