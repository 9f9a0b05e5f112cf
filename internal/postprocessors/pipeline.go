// Package postprocessors turns normalised documents into provenance-tagged chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Verify interface compliance.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs splitting stages in order. The first stage receives nil
// chunks and creates them; later stages filter or check them.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline creates a pipeline from stages.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process splits one document.
func (p *Pipeline) Process(ctx context.Context, doc *domain.SourceDocument) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", stage.Name(), doc.Locator, err)
		}
		logger.Logger().Debug("split stage done", "stage", stage.Name(), "locator", doc.Locator, "chunks", len(chunks))
	}
	return chunks, nil
}

// Stages returns the stage names in run order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}
