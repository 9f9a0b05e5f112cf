package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// EmbedderFactory builds the embedding service from settings.
type EmbedderFactory func(domain.EmbeddingSettings) (driven.EmbeddingService, error)

// IndexFactory opens the vector index from settings.
type IndexFactory func(context.Context, domain.IndexSettings) (driven.VectorIndex, error)

// LLMFactory builds the language model service from settings.
type LLMFactory func(domain.LLMSettings) (driven.LLMService, error)

// RuntimeConfig wires a Runtime. RebuildLock is optional.
type RuntimeConfig struct {
	Settings    domain.Settings
	NewEmbedder EmbedderFactory
	NewIndex    IndexFactory
	NewLLM      LLMFactory
	RebuildLock driven.RebuildLock
}

// Runtime owns the embedder, index and LLM handles shared by ingestion and
// querying. Handles are created on first use and reused until Close.
//
// A rebuild holds the write side of the RWMutex and queries the read side,
// so a query never sees a collection mid-rebuild. rebuildMu admits one
// rebuild at a time without waiting.
type Runtime struct {
	mu        sync.RWMutex
	rebuildMu sync.Mutex

	handlesMu sync.Mutex
	settings  domain.Settings
	cfg       RuntimeConfig
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	llm       driven.LLMService
	ready     bool
}

// NewRuntime creates a Runtime. No handle is opened until needed.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	return &Runtime{
		settings: cfg.Settings,
		cfg:      cfg,
	}
}

// Settings returns the settings the Runtime was built with.
func (r *Runtime) Settings() domain.Settings {
	return r.settings
}

// RebuildLock returns the cross-process lock, or nil.
func (r *Runtime) RebuildLock() driven.RebuildLock {
	return r.cfg.RebuildLock
}

// Open ensures the embedder and index handles exist.
func (r *Runtime) Open(ctx context.Context) error {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()

	if r.embedder == nil {
		if r.cfg.NewEmbedder == nil {
			return fmt.Errorf("no embedder configured: %w", domain.ErrEmbeddingUnavailable)
		}
		emb, err := r.cfg.NewEmbedder(r.settings.Embedding)
		if err != nil {
			return fmt.Errorf("create embedder: %w", err)
		}
		logger.Debug("embedder ready: %s", emb.ModelName())
		r.embedder = emb
	}

	if r.index == nil {
		if r.cfg.NewIndex == nil {
			return fmt.Errorf("no index configured: %w", domain.ErrVectorIndexUnavailable)
		}
		idx, err := r.cfg.NewIndex(ctx, r.settings.Index)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		logger.Debug("index ready: backend=%s collection=%s", r.settings.Index.Backend, idx.Name())
		r.index = idx
	}
	return nil
}

// LLM returns the language model handle, creating it on first use.
func (r *Runtime) LLM() (driven.LLMService, error) {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()

	if r.llm != nil {
		return r.llm, nil
	}
	if !r.settings.LLM.IsConfigured() {
		return nil, fmt.Errorf("%s: %w", r.settings.LLM.Provider.APIKeyEnv(), domain.ErrMissingAPIKey)
	}
	if r.cfg.NewLLM == nil {
		return nil, fmt.Errorf("no LLM configured: %w", domain.ErrLLMUnavailable)
	}
	llm, err := r.cfg.NewLLM(r.settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("create LLM: %w", err)
	}
	logger.Debug("LLM ready: %s", llm.ModelName())
	r.llm = llm
	return llm, nil
}

// Attach opens the index and marks the Runtime ready when an earlier run
// finished a collection and marked it complete. Only one-shot commands
// attach; a session answers only after its own ingestion.
func (r *Runtime) Attach(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.Open(ctx); err != nil {
		return err
	}
	index := r.indexHandle()

	complete, err := index.Complete(ctx)
	if errors.Is(err, domain.ErrCollectionNotFound) {
		logger.Debug("no persisted collection to attach")
		return nil
	}
	if err != nil {
		return fmt.Errorf("attach collection: %w", err)
	}
	if !complete {
		logger.Warn("collection %s was not completed by its last ingestion; run ingest again", index.Name())
		return nil
	}

	n, err := index.Count(ctx)
	if err != nil {
		return fmt.Errorf("attach collection: %w", err)
	}
	r.setReady(n > 0)
	logger.Debug("attached collection with %d entries", n)
	return nil
}

// Ready reports whether a populated collection is available.
func (r *Runtime) Ready() bool {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()
	return r.ready
}

func (r *Runtime) setReady(v bool) {
	r.handlesMu.Lock()
	r.ready = v
	r.handlesMu.Unlock()
}

func (r *Runtime) embedderHandle() driven.EmbeddingService {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()
	return r.embedder
}

func (r *Runtime) indexHandle() driven.VectorIndex {
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()
	return r.index
}

// Close releases every open handle.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlesMu.Lock()
	defer r.handlesMu.Unlock()

	var errs []error
	if r.embedder != nil {
		errs = append(errs, r.embedder.Close())
		r.embedder = nil
	}
	if r.index != nil {
		errs = append(errs, r.index.Close())
		r.index = nil
	}
	if r.llm != nil {
		errs = append(errs, r.llm.Close())
		r.llm = nil
	}
	r.ready = false
	return errors.Join(errs...)
}
