// Package pdf provides a Normaliser that extracts plain text from PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text layer of a PDF.
// Scanned PDFs without a text layer yield ErrUnsupportedType.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.SourceDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text, pages, err := extractText(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("pdf %s: %w", raw.Locator, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("pdf %s has no text layer: %w", raw.Locator, domain.ErrUnsupportedType)
	}

	doc := &domain.SourceDocument{
		ID:        uuid.New().String(),
		Locator:   raw.Locator,
		Title:     titleFromLocator(raw.Locator),
		Text:      strings.TrimSpace(text),
		MIMEType:  raw.MIMEType,
		FetchedAt: raw.FetchedAt,
		Metadata:  make(map[string]any, len(raw.Metadata)+2),
	}
	for k, v := range raw.Metadata {
		doc.Metadata[k] = v
	}
	doc.Metadata["format"] = "pdf"
	doc.Metadata["pages"] = pages

	return doc, nil
}

// extractText reads the plain text of every page.
// The pdf library panics on some malformed inputs, so panics become errors.
func extractText(content []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}

	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, fmt.Errorf("read pdf buffer: %w", err)
	}

	return buf.String(), rdr.NumPage(), nil
}

func titleFromLocator(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return locator
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	return strings.TrimSuffix(name, path.Ext(name))
}
