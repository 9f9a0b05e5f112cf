package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Normaliser transforms raw fetched bytes into document text.
// Each normaliser handles specific MIME types (e.g., HTML, PDF).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format normalisers return 50. Fallback normalisers return 1-10.
	Priority() int

	// Normalise transforms a raw document into a source document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.SourceDocument, error)
}
