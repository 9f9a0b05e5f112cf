package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

type pageFetcher map[string]string

func (p pageFetcher) Fetch(_ context.Context, locators []string) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, len(locators))
	errs := make(chan error)
	for _, l := range locators {
		docs <- domain.RawDocument{Locator: l, MIMEType: "text/plain", Content: []byte(p[l]), FetchedAt: time.Now()}
	}
	close(docs)
	close(errs)
	return docs, errs
}

// letterEmbedder counts letters a-h, enough to rank a handful of chunks.
type letterEmbedder struct{}

func (letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 8)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'h' {
			v[r-'a']++
		}
	}
	return v, nil
}

func (e letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (letterEmbedder) Dimensions() int              { return 8 }
func (letterEmbedder) ModelName() string            { return "letters" }
func (letterEmbedder) Ping(_ context.Context) error { return nil }
func (letterEmbedder) Close() error                 { return nil }

type cannedLLM struct{ calls int }

func (l *cannedLLM) Chat(context.Context, []driven.ChatMessage, driven.ChatOptions) (string, error) {
	l.calls++
	return "Housing starts fell.\nSOURCES: https://b.example", nil
}

func (*cannedLLM) ModelName() string            { return "canned" }
func (*cannedLLM) Ping(_ context.Context) error { return nil }
func (*cannedLLM) Close() error                 { return nil }

// newSession wires a fresh Runtime over the sqlite index in dataDir, as a
// new sercha-rag process would.
func newSession(t *testing.T, dataDir string, llm *cannedLLM) (*Server, *services.Runtime) {
	t.Helper()
	settings := domain.DefaultSettings()
	settings.Index.Backend = domain.IndexBackendSQLite
	settings.Index.DataDir = dataDir
	settings.LLM.APIKey = "test-key"

	runtime := services.NewRuntime(services.RuntimeConfig{
		Settings: settings,
		NewEmbedder: func(domain.EmbeddingSettings) (driven.EmbeddingService, error) {
			return letterEmbedder{}, nil
		},
		NewIndex: func(_ context.Context, cfg domain.IndexSettings) (driven.VectorIndex, error) {
			idx, err := sqlite.New(cfg.DataDir, cfg.Collection)
			if err != nil {
				return nil, err
			}
			return idx, nil
		},
		NewLLM: func(domain.LLMSettings) (driven.LLMService, error) { return llm, nil },
	})
	t.Cleanup(func() { _ = runtime.Close() })

	pipeline, err := postprocessors.DefaultPipeline(settings.Chunk)
	require.NoError(t, err)
	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)

	fetcher := pageFetcher{"https://b.example": "Housing starts fell in the northern region."}
	retriever := services.NewRetriever(runtime)
	server, err := NewServer(&Ports{
		Ingest:    services.NewIndexingOrchestrator(runtime, fetcher, normalisers.DefaultRegistry(), pipeline),
		Answer:    services.NewAnswerComposer(runtime, retriever, prompts),
		Retrieval: retriever,
	})
	require.NoError(t, err)
	return server, runtime
}

func TestSession_AskBeforeIngestWithPersistedIndex(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	first, firstRuntime := newSession(t, dataDir, &cannedLLM{})
	_, out, err := first.handleIngest(ctx, nil, IngestInput{URLs: []string{"https://b.example"}})
	require.NoError(t, err)
	require.True(t, out.Ready)
	require.NoError(t, firstRuntime.Close())

	llm := &cannedLLM{}
	second, _ := newSession(t, dataDir, llm)

	_, _, err = second.handleAsk(ctx, nil, AskInput{Question: "What happened to housing starts?"})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	_, _, err = second.handleRetrieve(ctx, nil, RetrieveInput{Query: "housing"})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.Zero(t, llm.calls)

	_, _, err = second.handleIngest(ctx, nil, IngestInput{URLs: []string{"https://b.example"}})
	require.NoError(t, err)
	_, answer, err := second.handleAsk(ctx, nil, AskInput{Question: "What happened to housing starts?"})
	require.NoError(t, err)
	assert.Equal(t, "Housing starts fell.", answer.Answer)
	assert.Equal(t, []string{"https://b.example"}, answer.Sources)
}
