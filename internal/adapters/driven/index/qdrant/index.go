// Package qdrant provides a VectorIndex backed by a Qdrant server over its
// REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.VectorIndex = (*Index)(nil)

const (
	// DefaultTimeout bounds each REST call.
	DefaultTimeout = 15 * time.Second

	// upsertBatchSize caps points per upsert request.
	upsertBatchSize = 256

	// completeAliasSuffix names the alias that marks a finished ingestion.
	completeAliasSuffix = "__complete"
)

// Config holds Qdrant connection settings.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Index is a REST client bound to one Qdrant collection.
type Index struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// New creates a Qdrant index client. It does not contact the server.
func New(cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant URL is empty: %w", domain.ErrInvalidInput)
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("qdrant URL: %w", errors.Join(domain.ErrInvalidInput, err))
	}
	collection := cfg.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Index{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     client,
	}, nil
}

// Name returns the collection name.
func (s *Index) Name() string {
	return s.collection
}

// Close releases idle connections.
func (s *Index) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// DropCollection deletes the completion alias and then the collection.
func (s *Index) DropCollection(ctx context.Context) error {
	complete, err := s.Complete(ctx)
	if err != nil {
		return err
	}
	if complete {
		if err := s.updateAliases(ctx, map[string]any{
			"delete_alias": map[string]any{"alias_name": s.completeAlias()},
		}); err != nil {
			return fmt.Errorf("removing completion alias: %w", err)
		}
	}
	return s.do(ctx, http.MethodDelete, s.collectionPath(""), nil, nil)
}

// CreateCollection creates a cosine-distance collection.
func (s *Index) CreateCollection(ctx context.Context, spec driven.CollectionSpec) error {
	if spec.Dimensions <= 0 {
		return fmt.Errorf("collection %s: dimensions must be positive: %w", s.collection, domain.ErrInvalidInput)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimensions,
			"distance": "Cosine",
		},
	}
	return s.do(ctx, http.MethodPut, s.collectionPath(""), body, nil)
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// Insert upserts vectors in batches and waits for each to be applied.
func (s *Index) Insert(ctx context.Context, vectors []domain.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}
	dims, err := s.dimensions(ctx)
	if err != nil {
		return err
	}
	for _, v := range vectors {
		if len(v.Vector) != dims {
			return fmt.Errorf("vector %s has %d dimensions, collection has %d: %w",
				v.ID, len(v.Vector), dims, domain.ErrDimensionMismatch)
		}
		if v.Locator == "" {
			return fmt.Errorf("vector %s: %w", v.ID, domain.ErrMissingProvenance)
		}
	}

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))
		points := make([]point, 0, end-start)
		for _, v := range vectors[start:end] {
			points = append(points, point{
				ID:     v.ID,
				Vector: v.Vector,
				Payload: map[string]any{
					"text":    v.Text,
					"locator": v.Locator,
				},
			})
		}
		body := map[string]any{"points": points}
		if err := s.do(ctx, http.MethodPut, s.collectionPath("/points?wait=true"), body, nil); err != nil {
			return fmt.Errorf("upserting points %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Query runs a nearest-neighbour search.
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

	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      any     `json:"id"`
			Score   float64 `json:"score"`
			Payload struct {
				Text    string `json:"text"`
				Locator string `json:"locator"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/search"), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, driven.VectorHit{
			ID:         fmt.Sprint(r.ID),
			Text:       r.Payload.Text,
			Locator:    r.Payload.Locator,
			Similarity: r.Score,
		})
	}
	return hits, nil
}

// Count returns the exact number of points.
func (s *Index) Count(ctx context.Context) (int, error) {
	if _, err := s.dimensions(ctx); err != nil {
		return 0, err
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.collectionPath("/points/count"), map[string]any{"exact": true}, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

// MarkComplete points the completion alias at the collection. Upserts are
// not atomic across batches, so the alias is the only proof a run finished.
func (s *Index) MarkComplete(ctx context.Context) error {
	complete, err := s.Complete(ctx)
	if err != nil || complete {
		return err
	}
	return s.updateAliases(ctx, map[string]any{
		"create_alias": map[string]any{
			"collection_name": s.collection,
			"alias_name":      s.completeAlias(),
		},
	})
}

// Complete reports whether the completion alias points at the collection.
func (s *Index) Complete(ctx context.Context) (bool, error) {
	var resp struct {
		Result struct {
			Aliases []struct {
				AliasName string `json:"alias_name"`
			} `json:"aliases"`
		} `json:"result"`
	}
	if _, err := s.dimensions(ctx); err != nil {
		return false, err
	}
	if err := s.do(ctx, http.MethodGet, s.collectionPath("/aliases"), nil, &resp); err != nil {
		return false, err
	}
	for _, a := range resp.Result.Aliases {
		if a.AliasName == s.completeAlias() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Index) completeAlias() string {
	return s.collection + completeAliasSuffix
}

func (s *Index) updateAliases(ctx context.Context, action map[string]any) error {
	body := map[string]any{"actions": []map[string]any{action}}
	return s.do(ctx, http.MethodPost, s.baseURL+"/collections/aliases", body, nil)
}

// dimensions reads the configured vector size, mapping 404 to ErrCollectionNotFound.
func (s *Index) dimensions(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodGet, s.collectionPath(""), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Config.Params.Vectors.Size, nil
}

func (s *Index) collectionPath(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.baseURL, url.PathEscape(s.collection), suffix)
}

func (s *Index) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build qdrant request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, endpoint, errors.Join(domain.ErrVectorIndexUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("collection %s: %w", s.collection, domain.ErrCollectionNotFound)
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}
