package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// BuilderFunc creates a splitting stage from the chunk settings.
type BuilderFunc func(cfg domain.ChunkSettings) (driven.PostProcessor, error)

// Registry maps splitting stage names to builders, keeping registration order.
type Registry struct {
	builders map[string]BuilderFunc
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds or replaces the builder for name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	if _, ok := r.builders[name]; !ok {
		r.order = append(r.order, name)
	}
	r.builders[name] = builder
}

// Build creates the named stage.
func (r *Registry) Build(name string, cfg domain.ChunkSettings) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown splitting stage %q", domain.ErrInvalidInput, name)
	}
	return builder(cfg)
}

// Pipeline builds the named stages, in order, into one pipeline.
func (r *Registry) Pipeline(cfg domain.ChunkSettings, names ...string) (*Pipeline, error) {
	stages := make([]driven.PostProcessor, 0, len(names))
	for _, name := range names {
		stage, err := r.Build(name, cfg)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return NewPipeline(stages...), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered stage names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
