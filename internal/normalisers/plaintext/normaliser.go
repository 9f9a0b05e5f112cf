package plaintext

import (
	"context"
	"net/url"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents and serves as the registry fallback.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/xml",
		"application/json",
		"application/xml",
		"application/rss+xml",
		"application/atom+xml",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 10 // Fallback normaliser
}

// Normalise converts raw bytes to text. Invalid UTF-8 sequences are dropped.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.SourceDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")

	doc := &domain.SourceDocument{
		ID:        uuid.New().String(),
		Locator:   raw.Locator,
		Title:     extractTitle(raw),
		Text:      strings.TrimSpace(content),
		MIMEType:  raw.MIMEType,
		FetchedAt: raw.FetchedAt,
		Metadata:  copyMetadata(raw.Metadata),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["format"] = "text"

	return doc, nil
}

// extractTitle prefers a title from metadata and falls back to the locator.
func extractTitle(raw *domain.RawDocument) string {
	if raw.Metadata != nil {
		if title, ok := raw.Metadata["title"].(string); ok && title != "" {
			return title
		}
	}

	u, err := url.Parse(raw.Locator)
	if err != nil {
		return raw.Locator
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
