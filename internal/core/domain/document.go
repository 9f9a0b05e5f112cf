package domain

import (
	"strings"
	"time"
)

// SourceDocument is the normalised text of one fetched locator.
// One is produced per successful fetch; its Text may be empty.
type SourceDocument struct {
	// ID is the unique identifier for the document.
	ID string

	// Locator is the URL the document came from.
	Locator string

	// Title is the human-readable title, when one could be extracted.
	Title string

	// Text is the full text content after normalisation.
	Text string

	// MIMEType is the content type the document was normalised from.
	MIMEType string

	// FetchedAt is when the underlying content was fetched.
	FetchedAt time.Time

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any
}

// Chunk is a bounded segment of a SourceDocument.
// Chunks are immutable once produced by the splitter.
type Chunk struct {
	// ID is a random 128-bit identifier rendered as a UUID.
	ID string

	// DocumentID links to the parent SourceDocument.
	DocumentID string

	// Locator is inherited from the parent document and is never empty.
	Locator string

	// Text is the chunk content.
	Text string

	// Position is the ordinal position within the document.
	Position int
}

// IndexedVector is an embedded chunk as stored in the index collection.
type IndexedVector struct {
	// ID equals the originating Chunk.ID.
	ID string

	// Vector is the embedding of Text.
	Vector []float32

	// Text is the chunk content.
	Text string

	// Locator is the chunk's source locator.
	Locator string
}

// NewIndexedVector pairs a chunk with its embedding.
func NewIndexedVector(c Chunk, vector []float32) IndexedVector {
	return IndexedVector{
		ID:      c.ID,
		Vector:  vector,
		Text:    c.Text,
		Locator: c.Locator,
	}
}

// RetrievedChunk is a single ranked hit for a query.
type RetrievedChunk struct {
	ID      string
	Text    string
	Locator string

	// Score is the similarity to the query; higher is closer.
	Score float64
}

// RetrievalResult holds chunks ranked by descending similarity.
type RetrievalResult struct {
	// Query is the text that was embedded.
	Query string

	// Chunks has at most k entries.
	Chunks []RetrievedChunk
}

// Locators returns the distinct chunk locators in rank order.
func (r RetrievalResult) Locators() []string {
	seen := make(map[string]struct{}, len(r.Chunks))
	out := make([]string, 0, len(r.Chunks))
	for _, c := range r.Chunks {
		if _, ok := seen[c.Locator]; ok {
			continue
		}
		seen[c.Locator] = struct{}{}
		out = append(out, c.Locator)
	}
	return out
}

// AnswerRecord is a composed answer. It is transient and never persisted.
type AnswerRecord struct {
	// Question is the query as asked.
	Question string

	// Answer is the model's answer text without the sources section.
	Answer string

	// Sources are distinct locators in first-appearance order.
	Sources []string

	// RawSources is the sources section exactly as the model produced it.
	RawSources string

	// Context is the retrieval the answer was grounded on.
	Context RetrievalResult
}

// SourcesString renders Sources one per line.
func (a AnswerRecord) SourcesString() string {
	return strings.Join(a.Sources, "\n")
}
