package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure IndexingOrchestrator implements the interface.
var _ driving.IngestService = (*IndexingOrchestrator)(nil)

// Progress messages shown to users.
const (
	msgStorage     = "Preparing storage..."
	msgInit        = "Initializing Components..."
	msgReset       = "Resetting vector store..."
	msgLoading     = "Loading data..."
	msgNoData      = "No data loaded."
	msgNoChunks    = "No text could be split into chunks."
	msgReady       = "Done! Vector database is ready."
	msgNoLocators  = "No URLs provided."
	msgRebuildBusy = "Another process is rebuilding this collection."

	msgRebuildRunning = "An ingestion is already running."
)

const streamBufferLen = 16

// IndexingOrchestrator runs the full-replace ingestion protocol: reset the
// collection, fetch, normalise, split, embed and insert.
type IndexingOrchestrator struct {
	runtime     *Runtime
	fetcher     driven.Fetcher
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
}

// NewIndexingOrchestrator creates an orchestrator.
func NewIndexingOrchestrator(
	runtime *Runtime,
	fetcher driven.Fetcher,
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
) *IndexingOrchestrator {
	return &IndexingOrchestrator{
		runtime:     runtime,
		fetcher:     fetcher,
		normalisers: normalisers,
		pipeline:    pipeline,
	}
}

// run carries the state of one ingestion.
type run struct {
	progress domain.ProgressFunc
	report   *domain.IngestReport
}

func (r *run) emit(stage domain.Stage, kind domain.ProgressKind, count int, err error, format string, args ...any) {
	if r.progress == nil {
		return
	}
	r.progress(domain.ProgressEvent{
		Stage:   stage,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Count:   count,
		Err:     err,
	})
}

// fail emits the terminal error event and returns err.
func (r *run) fail(stage domain.Stage, err error) (*domain.IngestReport, error) {
	r.emit(stage, domain.ProgressError, 0, err, "Error: %v", err)
	return r.report, err
}

// Ingest rebuilds the collection from locators. Blank locators are dropped.
func (o *IndexingOrchestrator) Ingest(
	ctx context.Context, locators []string, progress domain.ProgressFunc,
) (*domain.IngestReport, error) {
	logger.Section("Ingestion")
	locators = CleanLocators(locators)
	r := &run{progress: progress, report: &domain.IngestReport{Locators: locators}}

	if len(locators) == 0 {
		r.emit(domain.StageFetch, domain.ProgressError, 0, domain.ErrInvalidInput, msgNoLocators)
		return r.report, fmt.Errorf("%w: no locators", domain.ErrInvalidInput)
	}

	if !o.runtime.rebuildMu.TryLock() {
		r.emit(domain.StageInit, domain.ProgressError, 0, domain.ErrRebuildInProgress, msgRebuildRunning)
		return r.report, fmt.Errorf("ingestion already running: %w", domain.ErrRebuildInProgress)
	}
	defer o.runtime.rebuildMu.Unlock()

	o.runtime.mu.Lock()
	defer o.runtime.mu.Unlock()

	settings := o.runtime.Settings()

	// 1. Storage location.
	r.emit(domain.StageStorage, domain.ProgressInfo, 0, nil, msgStorage)
	if settings.Index.DataDir != "" && settings.Index.Backend == domain.IndexBackendSQLite {
		if err := os.MkdirAll(settings.Index.DataDir, 0700); err != nil {
			return r.fail(domain.StageStorage, fmt.Errorf("create data directory: %w", err))
		}
	}

	// 2. Handles.
	r.emit(domain.StageInit, domain.ProgressInfo, 0, nil, msgInit)
	if err := o.runtime.Open(ctx); err != nil {
		return r.fail(domain.StageInit, err)
	}
	embedder := o.runtime.embedderHandle()
	index := o.runtime.indexHandle()

	// extendLock renews the distributed lock before each long step.
	extendLock := func(context.Context) error { return nil }
	if lock := o.runtime.RebuildLock(); lock != nil {
		extendLock = func(ctx context.Context) error {
			return lock.Extend(ctx, index.Name(), settings.Lock.TTL)
		}
		ok, err := lock.Acquire(ctx, index.Name(), settings.Lock.TTL)
		if err != nil {
			return r.fail(domain.StageInit, fmt.Errorf("acquire rebuild lock: %w", err))
		}
		if !ok {
			r.emit(domain.StageInit, domain.ProgressError, 0, domain.ErrRebuildInProgress, msgRebuildBusy)
			return r.report, fmt.Errorf("collection %s: %w", index.Name(), domain.ErrRebuildInProgress)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx), index.Name()); err != nil {
				logger.Warn("release rebuild lock: %v", err)
			}
		}()
	}

	// 3. Reset. From here on the old collection is gone.
	o.runtime.setReady(false)
	r.emit(domain.StageReset, domain.ProgressInfo, 0, nil, msgReset)
	if err := o.reset(ctx, r, embedder, index); err != nil {
		return r.fail(domain.StageReset, err)
	}

	// 4. Fetch and normalise.
	r.emit(domain.StageFetch, domain.ProgressInfo, 0, nil, msgLoading)
	docs := o.load(ctx, r, locators)
	if err := ctx.Err(); err != nil {
		return r.fail(domain.StageFetch, err)
	}
	r.report.Documents = len(docs)
	if len(docs) == 0 {
		err := fmt.Errorf("%w: %d of %d locators failed", domain.ErrAllFetchesFailed, len(r.report.Failures), len(locators))
		r.emit(domain.StageFetch, domain.ProgressWarning, 0, err, msgNoData)
		return r.report, err
	}

	// 5. Split.
	r.emit(domain.StageSplit, domain.ProgressInfo, len(docs), nil, "Loaded %d documents. Splitting text...", len(docs))
	chunks, err := o.split(ctx, docs)
	if err != nil {
		return r.fail(domain.StageSplit, err)
	}
	r.report.Chunks = len(chunks)
	if len(chunks) == 0 {
		r.emit(domain.StageSplit, domain.ProgressWarning, 0, domain.ErrEmptySplitResult, msgNoChunks)
		return r.report, domain.ErrEmptySplitResult
	}

	// 6. Every chunk carries an id and a locator.
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
		if chunks[i].Locator == "" {
			return r.fail(domain.StageSplit, fmt.Errorf("chunk %s: %w", chunks[i].ID, domain.ErrMissingProvenance))
		}
	}

	// 7. One embed batch, one insert.
	r.emit(domain.StageEmbed, domain.ProgressInfo, len(chunks), nil,
		"Created %d chunks. Adding to vector database...", len(chunks))
	if err := o.embedAndInsert(ctx, embedder, index, chunks, extendLock); err != nil {
		return r.fail(domain.StageEmbed, err)
	}

	// 8. Ready. The mark lets a later process attach to this collection.
	if err := index.MarkComplete(ctx); err != nil {
		return r.fail(domain.StageReady, fmt.Errorf("mark collection complete: %w", err))
	}
	o.runtime.setReady(true)
	logger.Info("ingested %d documents as %d chunks into %s", len(docs), len(chunks), index.Name())
	r.emit(domain.StageReady, domain.ProgressReady, len(chunks), nil, msgReady)
	return r.report, nil
}

// reset drops the collection and recreates it empty. A missing collection
// is only a note.
func (o *IndexingOrchestrator) reset(
	ctx context.Context, r *run, embedder driven.EmbeddingService, index driven.VectorIndex,
) error {
	if err := index.DropCollection(ctx); err != nil {
		if !errors.Is(err, domain.ErrCollectionNotFound) {
			return fmt.Errorf("%w: drop: %w", domain.ErrIndexReset, err)
		}
		r.report.ResetNote = err
		r.emit(domain.StageReset, domain.ProgressNote, 0, err, "DB reset skipped (%v)", err)
	}

	dims, err := embeddingDimensions(ctx, embedder)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexReset, err)
	}
	spec := driven.CollectionSpec{Dimensions: dims, EmbeddingModel: embedder.ModelName()}
	if err := index.CreateCollection(ctx, spec); err != nil {
		return fmt.Errorf("%w: create: %w", domain.ErrIndexReset, err)
	}
	logger.Debug("collection %s recreated (dims=%d, model=%s)", index.Name(), dims, spec.EmbeddingModel)
	return nil
}

// embeddingDimensions asks the embedder for its vector size, probing with
// one call when the model is not in the known table.
func embeddingDimensions(ctx context.Context, embedder driven.EmbeddingService) (int, error) {
	if d := embedder.Dimensions(); d > 0 {
		return d, nil
	}
	vec, err := embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return 0, fmt.Errorf("probe embedding size: %w", err)
	}
	if len(vec) == 0 {
		return 0, fmt.Errorf("probe embedding size: %w", domain.ErrEmbeddingUnavailable)
	}
	return len(vec), nil
}

// load fetches and normalises every locator, turning per-URL failures into
// notes. Events keep the order in which the fetcher reports them.
func (o *IndexingOrchestrator) load(ctx context.Context, r *run, locators []string) []*domain.SourceDocument {
	var docs []*domain.SourceDocument
	docsCh, errsCh := o.fetcher.Fetch(ctx, locators)

	note := func(err error) {
		r.report.Failures = append(r.report.Failures, err)
		r.emit(domain.StageFetch, domain.ProgressNote, 0, err, "Skipped %v", err)
	}

	for docsCh != nil || errsCh != nil {
		select {
		case raw, ok := <-docsCh:
			if !ok {
				docsCh = nil
				continue
			}
			doc, err := o.normalisers.Normalise(ctx, &raw)
			if err != nil {
				note(domain.NewFetchError(raw.Locator, err))
				continue
			}
			logger.Debug("normalised %s: %q (%d chars)", doc.Locator, doc.Title, len(doc.Text))
			docs = append(docs, doc)
		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			note(err)
		}
	}
	return docs
}

func (o *IndexingOrchestrator) split(ctx context.Context, docs []*domain.SourceDocument) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, doc := range docs {
		docChunks, err := o.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", doc.Locator, err)
		}
		logger.Debug("split %s into %d chunks", doc.Locator, len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

func (o *IndexingOrchestrator) embedAndInsert(
	ctx context.Context,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	chunks []domain.Chunk,
	extendLock func(context.Context) error,
) error {
	if err := extendLock(ctx); err != nil {
		return err
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks: %w",
			len(vectors), len(chunks), domain.ErrEmbeddingUnavailable)
	}

	if err := extendLock(ctx); err != nil {
		return err
	}
	batch := make([]domain.IndexedVector, len(chunks))
	for i, c := range chunks {
		batch[i] = domain.NewIndexedVector(c, vectors[i])
	}
	if err := index.Insert(ctx, batch); err != nil {
		return fmt.Errorf("insert vectors: %w", err)
	}
	return nil
}

// Stream runs Ingest on its own goroutine. The channel closes after the
// terminal event.
func (o *IndexingOrchestrator) Stream(ctx context.Context, locators []string) <-chan domain.ProgressEvent {
	events := make(chan domain.ProgressEvent, streamBufferLen)
	go func() {
		defer close(events)
		_, _ = o.Ingest(ctx, locators, func(e domain.ProgressEvent) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
	}()
	return events
}

// Status describes the attached collection.
func (o *IndexingOrchestrator) Status(ctx context.Context) (domain.IndexStatus, error) {
	o.runtime.mu.RLock()
	defer o.runtime.mu.RUnlock()

	settings := o.runtime.Settings()
	status := domain.IndexStatus{
		Backend:    string(settings.Index.Backend),
		Collection: settings.Index.Collection,
		Ready:      o.runtime.Ready(),
	}

	if err := o.runtime.Open(ctx); err != nil {
		return status, err
	}
	index := o.runtime.indexHandle()
	status.Collection = index.Name()

	n, err := index.Count(ctx)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("count vectors: %w", err)
	}
	status.Entries = n

	if reader, ok := index.(driven.EmbeddingModelReader); ok {
		if model, err := reader.EmbeddingModel(ctx); err == nil {
			status.EmbeddingModel = model
		}
	}
	return status, nil
}
