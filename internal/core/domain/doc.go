// Package domain defines the core business entities for Sercha RAG.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Opaque bytes fetched from a URL
//   - SourceDocument: Normalised text with its source locator
//   - Chunk: A bounded, provenance-tagged piece of a document
//   - IndexedVector: An embedded chunk stored in the index collection
//   - RetrievalResult: Ranked chunks for a query
//   - AnswerRecord: A composed answer with its cited sources
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
