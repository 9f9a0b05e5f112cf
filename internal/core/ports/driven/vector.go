package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex is a named, persistent collection of embedded chunks.
// An index value is bound to one collection name for its lifetime.
type VectorIndex interface {
	// DropCollection deletes the collection and every vector in it.
	// Returns domain.ErrCollectionNotFound if it did not exist.
	DropCollection(ctx context.Context) error

	// CreateCollection creates an empty collection for vectors of the given size.
	CreateCollection(ctx context.Context, spec CollectionSpec) error

	// Insert adds a batch of vectors in one call.
	// Implementations should make the batch all-or-nothing where the backend allows.
	Insert(ctx context.Context, vectors []domain.IndexedVector) error

	// Query returns the k nearest vectors by cosine similarity, best first.
	Query(ctx context.Context, vector []float32, k int) ([]VectorHit, error)

	// Count returns the number of vectors in the collection.
	// Returns domain.ErrCollectionNotFound if it does not exist.
	Count(ctx context.Context) (int, error)

	// MarkComplete records that every vector of the current ingestion has
	// been inserted. CreateCollection clears the mark.
	MarkComplete(ctx context.Context) error

	// Complete reports whether MarkComplete ran since the collection was created.
	// Returns domain.ErrCollectionNotFound if it does not exist.
	Complete(ctx context.Context) (bool, error)

	// Name returns the collection name.
	Name() string

	// Close releases resources.
	Close() error
}

// CollectionSpec describes a collection at creation time.
type CollectionSpec struct {
	// Dimensions is the vector length every insert and query must match.
	Dimensions int

	// EmbeddingModel records which model produced the vectors.
	EmbeddingModel string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	ID      string
	Text    string
	Locator string

	// Similarity is the cosine similarity score (higher = closer).
	Similarity float64
}

// EmbeddingModelReader is implemented by indexes that persist the model
// recorded at collection creation.
type EmbeddingModelReader interface {
	EmbeddingModel(ctx context.Context) (string, error)
}
