package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves web pages sequentially.
type Fetcher struct {
	client    *http.Client
	limiter   *RateLimiter
	userAgent string
	maxBody   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Its timeout is left as set.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// New creates a fetcher from settings.
func New(cfg domain.FetchSettings, opts ...Option) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultFetchTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = domain.DefaultMaxBodyBytes
	}

	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   NewRateLimiter(cfg.RequestsPerSecond),
		userAgent: userAgent,
		maxBody:   maxBody,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch streams one RawDocument per reachable locator, in input order.
// Both channels are closed when the batch finishes or ctx is cancelled.
func (f *Fetcher) Fetch(ctx context.Context, locators []string) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, len(locators))

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		for _, locator := range locators {
			if ctx.Err() != nil {
				return
			}

			doc, err := f.fetchOne(ctx, locator)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Debug("fetch %s failed: %v", locator, err)
				errsChan <- domain.NewFetchError(locator, err)
				continue
			}

			logger.Debug("fetched %s (%s, %d bytes)", locator, doc.MIMEType, len(doc.Content))
			select {
			case docsChan <- *doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return docsChan, errsChan
}

func (f *Fetcher) fetchOne(ctx context.Context, locator string) (*domain.RawDocument, error) {
	u, err := url.Parse(strings.TrimSpace(locator))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: %w", u.Scheme, domain.ErrInvalidInput)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host: %w", domain.ErrInvalidInput)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,text/markdown,application/pdf;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		f.limiter.RecordRateLimit(resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("body exceeds %d bytes", f.maxBody)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.New("empty body")
	}

	return &domain.RawDocument{
		Locator:    locator,
		MIMEType:   detectMIMEType(resp.Header.Get("Content-Type"), body),
		Content:    body,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now(),
		Metadata: map[string]any{
			"final_url": resp.Request.URL.String(),
		},
	}, nil
}

// detectMIMEType returns the media type from the header, or a sniffed type
// when the header is missing or generic.
func detectMIMEType(header string, body []byte) string {
	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil && mediaType != "application/octet-stream" {
			return mediaType
		}
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(body))
	return mediaType
}
