// Package index selects and opens the configured vector index backend.
package index

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/pgvector"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/qdrant"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Open returns a VectorIndex for the configured backend.
func Open(ctx context.Context, cfg domain.IndexSettings) (driven.VectorIndex, error) {
	switch cfg.Backend {
	case domain.IndexBackendSQLite, "":
		return sqlite.New(cfg.DataDir, cfg.Collection)
	case domain.IndexBackendMemory:
		return memory.New(cfg.Collection), nil
	case domain.IndexBackendPgvector:
		return pgvector.New(ctx, cfg.PostgresDSN, cfg.Collection)
	case domain.IndexBackendQdrant:
		return qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.Collection,
		})
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}
