// Package provenance enforces that every chunk can be traced to its source.
package provenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Processor drops blank chunks, fills in identity from the parent document
// and rejects chunks that have no locator.
type Processor struct{}

// New creates a provenance processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "provenance"
}

// Process validates chunks produced by earlier processors.
// Surviving chunks are renumbered so positions stay contiguous.
func (p *Processor) Process(_ context.Context, doc *domain.SourceDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.Locator == "" {
			c.Locator = doc.Locator
		}
		if c.Locator == "" {
			return nil, fmt.Errorf("chunk %d of document %s: %w", c.Position, doc.ID, domain.ErrMissingProvenance)
		}
		if c.DocumentID == "" {
			c.DocumentID = doc.ID
		}
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		c.Position = len(out)
		out = append(out, c)
	}
	return out, nil
}
