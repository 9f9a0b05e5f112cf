// Package tui provides an interactive terminal user interface for sercha-rag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ingest rebuilds the collection from the entered URLs.
	Ingest driving.IngestService

	// Answer composes sourced answers.
	Answer driving.AnswerService

	// Settings shows the active models in the header. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(ingest driving.IngestService, answer driving.AnswerService, settings driving.SettingsService) *Ports {
	return &Ports{
		Ingest:   ingest,
		Answer:   answer,
		Settings: settings,
	}
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
