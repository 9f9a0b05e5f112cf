package html

import (
	"context"
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Format normaliser, higher than plaintext
}

// Normalise converts an HTML page to readable text.
// Block elements become paragraph breaks so the splitter can prefer them.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.SourceDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := string(raw.Content)

	doc := &domain.SourceDocument{
		ID:        uuid.New().String(),
		Locator:   raw.Locator,
		Title:     extractHTMLTitle(rawContent, raw.Locator),
		Text:      stripHTML(rawContent),
		MIMEType:  raw.MIMEType,
		FetchedAt: raw.FetchedAt,
		Metadata:  copyMetadata(raw.Metadata),
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["format"] = "html"

	return doc, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag          = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag       = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag           = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag            = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	chromeTags        = regexp.MustCompile(`(?is)<(nav|footer|form|iframe)[^>]*>.*?</(nav|footer|form|iframe)>`)
	htmlComments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockElements     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|ul|ol|table|blockquote|pre|section|article|main|header)>`)
	lineElements      = regexp.MustCompile(`(?i)</(li|tr|dt|dd)>`)
	openBlockElements = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	brTags            = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrTags            = regexp.MustCompile(`(?i)<hr\s*/?>`)
	cellTags          = regexp.MustCompile(`(?i)</t[dh]>`)
	allTags           = regexp.MustCompile(`<[^>]+>`)
	multiSpaces       = regexp.MustCompile(`[ \t\p{Zs}]+`)
)

// extractHTMLTitle extracts a title from the page or falls back to the URL path.
func extractHTMLTitle(content, locator string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := strings.TrimSpace(html.UnescapeString(matches[1]))
		title = multiSpaces.ReplaceAllString(title, " ")
		if title != "" {
			return title
		}
	}
	return titleFromLocator(locator)
}

// stripHTML removes markup and returns text with paragraph breaks preserved.
func stripHTML(content string) string {
	for _, re := range []*regexp.Regexp{scriptTag, styleTag, noscriptTag, headTag, svgTag, chromeTags, htmlComments} {
		content = re.ReplaceAllString(content, "")
	}

	content = openBlockElements.ReplaceAllString(content, "\n")
	content = blockElements.ReplaceAllString(content, "\n\n")
	content = lineElements.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = hrTags.ReplaceAllString(content, "\n\n")
	content = cellTags.ReplaceAllString(content, " ")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim lines and collapse runs of blank lines into one paragraph break.
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(result) > 0
			continue
		}
		if blank {
			result = append(result, "")
			blank = false
		}
		result = append(result, line)
	}

	return strings.Join(result, "\n")
}

// titleFromLocator derives a title from the last URL path segment or the host.
func titleFromLocator(locator string) string {
	u, err := url.Parse(locator)
	if err != nil {
		return locator
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
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
