// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewWorkspace shows the URL sidebar and the question pane.
	ViewWorkspace ViewType = iota
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewWorkspace:
		return "workspace"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IngestProgress carries one progress event from a running ingestion.
type IngestProgress struct {
	Event domain.ProgressEvent
}

// IngestFinished is sent once the progress stream closes. Ready is true
// when the run ended with the ready event.
type IngestFinished struct {
	Ready bool
}

// AnswerCompleted carries a composed answer back to the model.
type AnswerCompleted struct {
	Record *domain.AnswerRecord
	Err    error
}

// StatusLoaded carries the collection status.
type StatusLoaded struct {
	Status domain.IndexStatus
	Err    error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
