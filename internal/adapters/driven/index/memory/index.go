// Package memory provides an in-memory vector index for testing.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/similarity"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.VectorIndex.
// Contents are lost when the process exits.
type Index struct {
	mu         sync.RWMutex
	name       string
	exists     bool
	dimensions int
	model      string
	complete   bool
	vectors    []domain.IndexedVector
}

// New creates a new in-memory index for the named collection.
func New(collection string) *Index {
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &Index{name: collection}
}

// DropCollection removes the collection and its vectors.
func (s *Index) DropCollection(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	s.exists = false
	s.dimensions = 0
	s.model = ""
	s.complete = false
	s.vectors = nil
	return nil
}

// CreateCollection creates an empty collection.
func (s *Index) CreateCollection(_ context.Context, spec driven.CollectionSpec) error {
	if spec.Dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", s.name, domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists {
		return fmt.Errorf("collection %s already exists", s.name)
	}
	s.exists = true
	s.dimensions = spec.Dimensions
	s.model = spec.EmbeddingModel
	s.complete = false
	s.vectors = nil
	return nil
}

// Insert validates the whole batch before storing any of it.
func (s *Index) Insert(_ context.Context, vectors []domain.IndexedVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	for _, v := range vectors {
		if len(v.Vector) != s.dimensions {
			return fmt.Errorf("vector %s has %d dimensions, collection has %d: %w",
				v.ID, len(v.Vector), s.dimensions, domain.ErrDimensionMismatch)
		}
		if v.Locator == "" {
			return fmt.Errorf("vector %s: %w", v.ID, domain.ErrMissingProvenance)
		}
	}

	for _, v := range vectors {
		// Copy to prevent external mutation
		stored := v
		stored.Vector = append([]float32(nil), v.Vector...)
		s.vectors = append(s.vectors, stored)
	}
	return nil
}

// Query ranks stored vectors by cosine similarity.
func (s *Index) Query(_ context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists {
		return nil, fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	if len(vector) != s.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, collection has %d: %w",
			len(vector), s.dimensions, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	scores := make([]float64, len(s.vectors))
	for i, v := range s.vectors {
		scores[i] = similarity.Cosine(vector, v.Vector)
	}

	ranked := similarity.TopK(scores, k)
	hits := make([]driven.VectorHit, len(ranked))
	for i, r := range ranked {
		v := s.vectors[r.Index]
		hits[i] = driven.VectorHit{
			ID:         v.ID,
			Text:       v.Text,
			Locator:    v.Locator,
			Similarity: r.Score,
		}
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (s *Index) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists {
		return 0, fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	return len(s.vectors), nil
}

// MarkComplete flags the collection as holding a finished ingestion.
func (s *Index) MarkComplete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	s.complete = true
	return nil
}

// Complete reports whether MarkComplete ran since creation.
func (s *Index) Complete(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists {
		return false, fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	return s.complete, nil
}

// EmbeddingModel returns the model recorded at creation.
func (s *Index) EmbeddingModel(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.exists {
		return "", fmt.Errorf("collection %s: %w", s.name, domain.ErrCollectionNotFound)
	}
	return s.model, nil
}

// Name returns the collection name.
func (s *Index) Name() string {
	return s.name
}

// Close is a no-op.
func (s *Index) Close() error {
	return nil
}
