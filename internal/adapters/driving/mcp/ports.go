package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingest rebuilds the collection and reports its status.
	Ingest driving.IngestService

	// Answer composes sourced answers.
	Answer driving.AnswerService

	// Retrieval exposes raw similarity search. Optional.
	Retrieval driving.RetrievalService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
