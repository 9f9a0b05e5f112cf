package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/provenance"
)

// Built-in stage names.
const (
	StageChunker    = "chunker"
	StageProvenance = "provenance"
)

// DefaultStages is the splitting order used by ingestion.
var DefaultStages = []string{StageChunker, StageProvenance}

// RegisterDefaults registers the built-in stages.
func RegisterDefaults(r *Registry) {
	r.Register(StageChunker, buildChunker)
	r.Register(StageProvenance, buildProvenance)
}

// DefaultPipeline builds the chunker followed by the provenance check.
func DefaultPipeline(cfg domain.ChunkSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Pipeline(cfg, DefaultStages...)
}

func buildChunker(cfg domain.ChunkSettings) (driven.PostProcessor, error) {
	switch {
	case cfg.Size <= 0:
		return nil, fmt.Errorf("chunk size must be positive: %w", domain.ErrInvalidInput)
	case cfg.Overlap < 0:
		return nil, fmt.Errorf("chunk overlap must not be negative: %w", domain.ErrInvalidInput)
	case cfg.Overlap >= cfg.Size:
		return nil, fmt.Errorf("chunk overlap must be smaller than the chunk size: %w", domain.ErrInvalidInput)
	}
	return chunker.New(chunker.WithChunkSize(cfg.Size), chunker.WithOverlap(cfg.Overlap)), nil
}

func buildProvenance(_ domain.ChunkSettings) (driven.PostProcessor, error) {
	return provenance.New(), nil
}
