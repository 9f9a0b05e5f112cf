package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Fetcher retrieves raw content for a batch of locators.
//
// Documents are streamed in input order. A failure for one locator is sent
// on the error channel as a *domain.FetchError and the batch continues.
// Both channels are closed when the batch is done or ctx is cancelled.
type Fetcher interface {
	Fetch(ctx context.Context, locators []string) (<-chan domain.RawDocument, <-chan error)
}
