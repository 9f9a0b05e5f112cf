// Package pgvector provides a VectorIndex stored in PostgreSQL with the
// pgvector extension.
//
// Each collection gets its own table with a fixed-size vector column and an
// HNSW cosine index. A metadata table records the size and embedding model of
// every collection.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

const metaTable = "sercha_collections"

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// Index is a pgvector-backed collection.
type Index struct {
	pool       *pgxpool.Pool
	collection string
	table      string
}

// New connects to dsn, enables the vector extension and ensures the
// metadata table exists.
func New(ctx context.Context, dsn, collection string) (*Index, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty: %w", domain.ErrInvalidInput)
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", errors.Join(domain.ErrVectorIndexUnavailable, err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", errors.Join(domain.ErrVectorIndexUnavailable, err))
	}

	idx := &Index{
		pool:       pool,
		collection: collection,
		table:      TableName(collection),
	}
	if err := idx.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// TableName maps a collection name onto a safe SQL identifier.
func TableName(collection string) string {
	name := unsafeIdent.ReplaceAllString(strings.ToLower(collection), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "default"
	}
	return "sercha_vectors_" + name
}

func (s *Index) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable vector extension: %w", err)
	}
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+metaTable+` (
			name            TEXT PRIMARY KEY,
			table_name      TEXT NOT NULL,
			dimensions      INTEGER NOT NULL,
			embedding_model TEXT NOT NULL DEFAULT '',
			complete        BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create %s: %w", metaTable, err)
	}
	if _, err := s.pool.Exec(ctx,
		"ALTER TABLE "+metaTable+" ADD COLUMN IF NOT EXISTS complete BOOLEAN NOT NULL DEFAULT FALSE"); err != nil {
		return fmt.Errorf("migrate %s: %w", metaTable, err)
	}
	return nil
}

// Name returns the collection name.
func (s *Index) Name() string {
	return s.collection
}

// Close closes the connection pool.
func (s *Index) Close() error {
	s.pool.Close()
	return nil
}

// DropCollection removes the collection table and its metadata row.
func (s *Index) DropCollection(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, "DELETE FROM "+metaTable+" WHERE name = $1", s.collection)
	if err != nil {
		return fmt.Errorf("dropping collection %s: %w", s.collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{s.table}.Sanitize()); err != nil {
		return fmt.Errorf("dropping table %s: %w", s.table, err)
	}
	return tx.Commit(ctx)
}

// CreateCollection creates the collection table and its HNSW index.
func (s *Index) CreateCollection(ctx context.Context, spec driven.CollectionSpec) error {
	if spec.Dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", s.collection, domain.ErrInvalidInput)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := pgx.Identifier{s.table}.Sanitize()
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE %s (
			id        TEXT PRIMARY KEY,
			position  INTEGER NOT NULL,
			text      TEXT NOT NULL,
			locator   TEXT NOT NULL CHECK (locator <> ''),
			embedding vector(%d) NOT NULL
		)`, table, spec.Dimensions),
		fmt.Sprintf("CREATE INDEX ON %s USING hnsw (embedding vector_cosine_ops)", table),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating collection %s: %w", s.collection, err)
		}
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO "+metaTable+" (name, table_name, dimensions, embedding_model) VALUES ($1, $2, $3, $4)",
		s.collection, s.table, spec.Dimensions, spec.EmbeddingModel); err != nil {
		return fmt.Errorf("registering collection %s: %w", s.collection, err)
	}
	return tx.Commit(ctx)
}

// Insert writes the batch in one transaction.
func (s *Index) Insert(ctx context.Context, vectors []domain.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}
	dims, err := s.dimensions(ctx)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		if len(v.Vector) != dims {
			return fmt.Errorf("vector %s has %d dimensions, collection has %d: %w",
				v.ID, len(v.Vector), dims, domain.ErrDimensionMismatch)
		}
		if v.Locator == "" {
			return fmt.Errorf("vector %s: %w", v.ID, domain.ErrMissingProvenance)
		}
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := pgx.Identifier{s.table}.Sanitize()
	var offset int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&offset); err != nil {
		return fmt.Errorf("counting vectors: %w", err)
	}

	batch := &pgx.Batch{}
	insert := "INSERT INTO " + table + " (id, position, text, locator, embedding) VALUES ($1, $2, $3, $4, $5)"
	for i, v := range vectors {
		batch.Queue(insert, v.ID, offset+i, v.Text, v.Locator, pgvector.NewVector(v.Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting vectors: %w", err)
	}
	return tx.Commit(ctx)
}

// Query returns the k nearest vectors by cosine distance.
func (s *Index) Query(ctx context.Context, vector []float32, k int) ([]driven.VectorHit, error) {
	dims, err := s.dimensions(ctx)
	if err != nil {
		return nil, err
	}
	if len(vector) != dims {
		return nil, fmt.Errorf("query has %d dimensions, collection has %d: %w",
			len(vector), dims, domain.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, text, locator, embedding <=> $1::vector AS distance
		FROM `+pgx.Identifier{s.table}.Sanitize()+`
		ORDER BY embedding <=> $1::vector, position
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query similar vectors: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0, k)
	for rows.Next() {
		var hit driven.VectorHit
		var distance float64
		if err := rows.Scan(&hit.ID, &hit.Text, &hit.Locator, &distance); err != nil {
			return nil, fmt.Errorf("scan similar vector: %w", err)
		}
		hit.Similarity = 1 - distance
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// Count returns the number of vectors in the collection.
func (s *Index) Count(ctx context.Context) (int, error) {
	if _, err := s.dimensions(ctx); err != nil {
		return 0, err
	}
	var n int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+pgx.Identifier{s.table}.Sanitize()).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// MarkComplete sets the complete flag on the metadata row.
func (s *Index) MarkComplete(ctx context.Context) error {
	tag, err := s.pool.Exec(ctx, "UPDATE "+metaTable+" SET complete = TRUE WHERE name = $1", s.collection)
	if err != nil {
		return fmt.Errorf("marking collection %s complete: %w", s.collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	return nil
}

// Complete reads the complete flag from the metadata row.
func (s *Index) Complete(ctx context.Context) (bool, error) {
	var complete bool
	err := s.pool.QueryRow(ctx, "SELECT complete FROM "+metaTable+" WHERE name = $1", s.collection).Scan(&complete)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return complete, nil
}

// EmbeddingModel returns the model recorded at creation.
func (s *Index) EmbeddingModel(ctx context.Context) (string, error) {
	var model string
	err := s.pool.QueryRow(ctx, "SELECT embedding_model FROM "+metaTable+" WHERE name = $1", s.collection).Scan(&model)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return model, nil
}

func (s *Index) dimensions(ctx context.Context) (int, error) {
	var dims int
	err := s.pool.QueryRow(ctx, "SELECT dimensions FROM "+metaTable+" WHERE name = $1", s.collection).Scan(&dims)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return dims, nil
}
