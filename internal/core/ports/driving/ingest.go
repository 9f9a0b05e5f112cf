package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// IngestService rebuilds the index collection from a set of URLs.
type IngestService interface {
	// Ingest runs one full-replace ingestion. Every step is reported to
	// progress (which may be nil) in order. Terminal failures are returned.
	Ingest(ctx context.Context, locators []string, progress domain.ProgressFunc) (*domain.IngestReport, error)

	// Stream runs Ingest on a new goroutine and delivers its events on the
	// returned channel, which is closed after the terminal event.
	Stream(ctx context.Context, locators []string) <-chan domain.ProgressEvent

	// Status describes the attached collection.
	Status(ctx context.Context) (domain.IndexStatus, error)
}
