// Package sqlite provides a persistent VectorIndex backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Vectors are stored as little-endian float32 blobs and
// ranked by cosine similarity in process, which suits collections of a few
// thousand chunks.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. A collections table records each collection's
// vector size and embedding model; vectors cascade on collection delete.
//
// # Data Location
//
// The database lives at <data_dir>/index.db, by default
// resources/vectorstore/index.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store uses database-level
// locking provided by SQLite in WAL mode.
package sqlite
