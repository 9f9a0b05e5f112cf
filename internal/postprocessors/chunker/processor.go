// Package chunker provides a recursive text splitting processor.
//
// Text is split on the coarsest separator that yields small enough pieces
// (paragraph, line, sentence, word, then raw runes). The pieces are merged
// greedily into chunks, and each chunk after the first opens with the tail
// of the previous one so context carries across the boundary.
package chunker

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// separators are tried in order, coarsest first.
var separators = []string{"\n\n", "\n", ".", " "}

// Processor splits document text into overlapping chunks.
// Sizes are measured in runes. It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int { return p.overlap }

// Process splits the document text into chunks.
// Input chunks are ignored; this processor creates new chunks from the document.
func (p *Processor) Process(ctx context.Context, doc *domain.SourceDocument, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := p.Split(doc.Text)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			Locator:    doc.Locator,
			Text:       text,
			Position:   i,
		})
	}

	return chunks, nil
}

// Split returns the chunk texts for text.
// Every returned string is non-empty and at most chunkSize runes.
func (p *Processor) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if runeLen(text) <= p.chunkSize {
		return []string{strings.TrimSpace(text)}
	}

	pieces := p.splitPieces(text, 0)
	return p.merge(pieces)
}

// splitPieces breaks text into pieces no longer than chunkSize-overlap runes.
func (p *Processor) splitPieces(text string, level int) []string {
	limit := p.chunkSize - p.overlap
	if runeLen(text) <= limit {
		return []string{text}
	}
	if level >= len(separators) {
		return hardSplit(text, limit)
	}

	parts := splitKeepSeparator(text, separators[level])
	if len(parts) == 1 {
		return p.splitPieces(text, level+1)
	}

	pieces := make([]string, 0, len(parts))
	for _, part := range parts {
		if runeLen(part) <= limit {
			pieces = append(pieces, part)
			continue
		}
		pieces = append(pieces, p.splitPieces(part, level+1)...)
	}
	return pieces
}

// merge packs pieces greedily into chunks, seeding each new chunk with the
// overlap tail of the previous one.
func (p *Processor) merge(pieces []string) []string {
	var (
		chunks  []string
		current strings.Builder
		size    int
	)

	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		n := runeLen(piece)

		if size > 0 && size+n > p.chunkSize {
			prev := strings.TrimSpace(current.String())
			if prev != "" {
				chunks = append(chunks, prev)
			}
			current.Reset()
			size = 0

			if tail := overlapTail(prev, p.overlap); tail != "" {
				current.WriteString(tail)
				size = runeLen(tail)
			}
		}

		current.WriteString(piece)
		size += n
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

// overlapTail returns the last n runes of s, moved forward to the start of
// a word when the cut lands mid-word and a later word exists.
func overlapTail(s string, n int) string {
	if n <= 0 || s == "" {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	tail := runes[len(runes)-n:]

	if !unicode.IsSpace(runes[len(runes)-n-1]) {
		for i, r := range tail {
			if unicode.IsSpace(r) {
				rest := strings.TrimLeftFunc(string(tail[i:]), unicode.IsSpace)
				if rest != "" {
					return rest
				}
				break
			}
		}
	}
	return strings.TrimLeftFunc(string(tail), unicode.IsSpace)
}

// splitKeepSeparator splits s on sep, attaching each separator to the start
// of the piece that follows it.
func splitKeepSeparator(s, sep string) []string {
	var parts []string
	from := 0
	for {
		i := strings.Index(s[from:], sep)
		if i < 0 {
			break
		}
		i += from
		if i > 0 {
			parts = append(parts, s[:i])
			s = s[i:]
		}
		from = len(sep)
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

// hardSplit cuts s into consecutive runs of at most limit runes.
func hardSplit(s string, limit int) []string {
	if limit <= 0 {
		limit = 1
	}
	runes := []rune(s)
	out := make([]string, 0, len(runes)/limit+1)
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
