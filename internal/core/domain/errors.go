package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no normaliser handles a MIME type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrFetchFailed indicates a single locator could not be fetched or normalised.
	// It is absorbed by the ingestion run and reported as a note.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrAllFetchesFailed indicates a non-empty locator set produced no documents.
	// The ingestion run stops before touching the embedder.
	ErrAllFetchesFailed = errors.New("no documents could be loaded")

	// ErrEmptySplitResult indicates the loaded documents produced no chunks.
	ErrEmptySplitResult = errors.New("documents produced no chunks")

	// ErrMissingProvenance indicates a chunk without a source locator.
	ErrMissingProvenance = errors.New("chunk has no source locator")

	// ErrRebuildInProgress indicates another process holds the rebuild lock.
	ErrRebuildInProgress = errors.New("index rebuild in progress")

	// Index Errors.

	// ErrCollectionNotFound indicates the index collection does not exist.
	// During a reset this is expected and reported as a note.
	ErrCollectionNotFound = errors.New("collection does not exist")

	// ErrIndexReset indicates the collection could not be dropped or recreated.
	ErrIndexReset = errors.New("index reset failed")

	// ErrDimensionMismatch indicates a vector whose length differs from the collection's.
	// This usually means the query embedder differs from the ingestion embedder.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Query Errors.

	// ErrNotInitialized indicates a query before any successful ingestion.
	ErrNotInitialized = errors.New("vector database not initialized")

	// ErrNotReady indicates the index collection is missing or empty.
	ErrNotReady = errors.New("index not ready")

	// Service Errors.

	// ErrMissingAPIKey indicates the LLM provider needs a credential that is not set.
	ErrMissingAPIKey = errors.New("LLM API key is not set")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index backend could not be opened.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// FetchError records the failure of a single locator.
// It wraps ErrFetchFailed so callers can match with errors.Is.
type FetchError struct {
	Locator string
	Err     error
}

// NewFetchError creates a FetchError for a locator.
func NewFetchError(locator string, err error) *FetchError {
	return &FetchError{Locator: locator, Err: err}
}

// Error implements error.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Err}
}
