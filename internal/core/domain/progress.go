package domain

// Stage identifies a step of an ingestion run.
type Stage string

// Ingestion stages, in execution order.
const (
	StageStorage Stage = "storage"
	StageInit    Stage = "init"
	StageReset   Stage = "reset"
	StageFetch   Stage = "fetch"
	StageSplit   Stage = "split"
	StageEmbed   Stage = "embed"
	StageReady   Stage = "ready"
)

// ProgressKind classifies a progress event for presentation.
type ProgressKind string

// Progress kinds.
const (
	// ProgressInfo reports a step starting or completing.
	ProgressInfo ProgressKind = "info"

	// ProgressNote reports an absorbed, per-item failure.
	ProgressNote ProgressKind = "note"

	// ProgressWarning reports an early stop that is not an internal fault.
	ProgressWarning ProgressKind = "warning"

	// ProgressError reports a run-aborting failure.
	ProgressError ProgressKind = "error"

	// ProgressReady is the terminal success event.
	ProgressReady ProgressKind = "ready"
)

// ProgressEvent is a single human-readable status update from an ingestion run.
// Events are produced strictly in order on the ingesting goroutine.
type ProgressEvent struct {
	Stage   Stage
	Kind    ProgressKind
	Message string

	// Count carries the number of documents or chunks where relevant.
	Count int

	// Err is set for note, warning and error events.
	Err error
}

// Terminal reports whether no further events follow this one.
func (e ProgressEvent) Terminal() bool {
	return e.Kind == ProgressReady || e.Kind == ProgressWarning || e.Kind == ProgressError
}

// ProgressFunc receives progress events. It must not block for long.
type ProgressFunc func(ProgressEvent)

// IngestReport summarises a finished ingestion run.
type IngestReport struct {
	// Locators is the cleaned input set.
	Locators []string

	// Documents is the number of documents loaded.
	Documents int

	// Chunks is the number of chunks indexed.
	Chunks int

	// Failures holds one FetchError per locator that was skipped.
	Failures []error

	// ResetNote is set when the collection reset was skipped.
	ResetNote error
}

// IndexStatus describes the attached index collection.
type IndexStatus struct {
	Backend        string `json:"backend"`
	Collection     string `json:"collection"`
	Ready          bool   `json:"ready"`
	Entries        int    `json:"entries"`
	EmbeddingModel string `json:"embedding_model"`
}
