package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/similarity"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "index.db"

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a SQLite-backed vector collection.
type Index struct {
	db         *sql.DB
	path       string
	collection string
}

// New opens (creating if needed) the database in dataDir and binds the
// index to one collection.
func New(dataDir, collection string) (*Index, error) {
	if dataDir == "" {
		dataDir = domain.DefaultDataDir
	}
	if collection == "" {
		collection = domain.DefaultCollection
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFileName)

	// WAL for concurrent readers; foreign keys per connection for the cascade.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return idx, nil
}

// Close closes the database connection.
func (s *Index) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Index) Path() string {
	return s.path
}

// Name returns the collection name.
func (s *Index) Name() string {
	return s.collection
}

// migrate runs all pending migrations and records each applied version.
func (s *Index) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_collections.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// DropCollection deletes the collection; its vectors cascade.
func (s *Index) DropCollection(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", s.collection)
	if err != nil {
		return fmt.Errorf("dropping collection %s: %w", s.collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("dropping collection %s: %w", s.collection, err)
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	return nil
}

// CreateCollection registers an empty collection.
func (s *Index) CreateCollection(ctx context.Context, spec driven.CollectionSpec) error {
	if spec.Dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", s.collection, domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO collections (name, dimensions, embedding_model) VALUES (?, ?, ?)",
		s.collection, spec.Dimensions, spec.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", s.collection, err)
	}
	return nil
}

// Insert stores vectors in a single transaction.
func (s *Index) Insert(ctx context.Context, vectors []domain.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}

	dims, err := s.dimensions(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var position int
	row := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE collection = ?", s.collection)
	if err := row.Scan(&position); err != nil {
		return fmt.Errorf("counting vectors: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, collection, position, text, locator, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, v := range vectors {
		if len(v.Vector) != dims {
			return fmt.Errorf("vector %s has %d dimensions, collection has %d: %w",
				v.ID, len(v.Vector), dims, domain.ErrDimensionMismatch)
		}
		if v.Locator == "" {
			return fmt.Errorf("vector %s: %w", v.ID, domain.ErrMissingProvenance)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, s.collection, position+i, v.Text, v.Locator,
			float32SliceToBytes(v.Vector)); err != nil {
			return fmt.Errorf("saving vector %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query ranks every vector in the collection by cosine similarity.
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

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, text, locator, embedding FROM vectors WHERE collection = ? ORDER BY position",
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var (
		hits   []driven.VectorHit
		scores []float64
	)
	for rows.Next() {
		var hit driven.VectorHit
		var blob []byte
		if err := rows.Scan(&hit.ID, &hit.Text, &hit.Locator, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		hits = append(hits, hit)
		scores = append(scores, similarity.Cosine(vector, bytesToFloat32Slice(blob)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	ranked := similarity.TopK(scores, k)
	out := make([]driven.VectorHit, len(ranked))
	for i, r := range ranked {
		out[i] = hits[r.Index]
		out[i].Similarity = r.Score
	}
	return out, nil
}

// Count returns the number of vectors in the collection.
func (s *Index) Count(ctx context.Context) (int, error) {
	if _, err := s.dimensions(ctx); err != nil {
		return 0, err
	}

	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors WHERE collection = ?", s.collection)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// MarkComplete flags the collection row as holding a finished ingestion.
func (s *Index) MarkComplete(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, "UPDATE collections SET complete = 1 WHERE name = ?", s.collection)
	if err != nil {
		return fmt.Errorf("marking collection %s complete: %w", s.collection, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	return nil
}

// Complete reports whether the collection row is flagged complete.
func (s *Index) Complete(ctx context.Context) (bool, error) {
	var complete bool
	row := s.db.QueryRowContext(ctx, "SELECT complete FROM collections WHERE name = ?", s.collection)
	if err := row.Scan(&complete); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
		}
		return false, fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return complete, nil
}

// EmbeddingModel returns the model recorded when the collection was created.
func (s *Index) EmbeddingModel(ctx context.Context) (string, error) {
	var model string
	row := s.db.QueryRowContext(ctx, "SELECT embedding_model FROM collections WHERE name = ?", s.collection)
	if err := row.Scan(&model); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
		}
		return "", fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return model, nil
}

func (s *Index) dimensions(ctx context.Context) (int, error) {
	var dims int
	row := s.db.QueryRowContext(ctx, "SELECT dimensions FROM collections WHERE name = ?", s.collection)
	if err := row.Scan(&dims); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
		}
		return 0, fmt.Errorf("reading collection %s: %w", s.collection, err)
	}
	return dims, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
