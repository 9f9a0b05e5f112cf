package normalisers

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry selects a normaliser by MIME type.
// When several normalisers claim a type, the highest priority wins.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
	fallback    driven.Normaliser
}

// NewRegistry creates an empty registry with the plain text fallback.
func NewRegistry() *Registry {
	return &Registry{fallback: plaintext.New()}
}

// DefaultRegistry creates a registry with every built-in normaliser.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(html.New())
	r.Register(markdown.New())
	r.Register(pdf.New())
	r.Register(plaintext.New())
	return r
}

// Register adds a normaliser to the registry.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise transforms a raw document using the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.SourceDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	n, err := r.lookup(raw.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.Locator, err)
	}
	return n.Normalise(ctx, raw)
}

// SupportedMIMETypes returns all MIME types that can be normalised, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			seen[t] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) lookup(contentType string) (driven.Normaliser, error) {
	mimeType := baseMIMEType(contentType)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType {
				return n, nil
			}
		}
	}

	// Servers that omit or misreport the type still usually serve text.
	if mimeType == "" || strings.HasPrefix(mimeType, "text/") {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mimeType)
}

// baseMIMEType strips parameters such as charset and lowercases the type.
func baseMIMEType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
