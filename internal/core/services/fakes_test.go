package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// fakeFetcher serves pages from a map. Missing locators fail.
type fakeFetcher struct {
	pages map[string]string
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, locators []string) (<-chan domain.RawDocument, <-chan error) {
	f.calls++
	docs := make(chan domain.RawDocument, len(locators))
	errs := make(chan error, len(locators))
	for _, l := range locators {
		body, ok := f.pages[l]
		if !ok {
			errs <- domain.NewFetchError(l, errors.New("status 404"))
			continue
		}
		docs <- domain.RawDocument{
			Locator:   l,
			MIMEType:  "text/plain",
			Content:   []byte(body),
			FetchedAt: time.Now(),
		}
	}
	close(docs)
	close(errs)
	return docs, errs
}

// fakeEmbedder hashes words into a small bag-of-words vector.
type fakeEmbedder struct {
	dims     int
	probe    bool
	embedErr error
	batchErr error
	short    bool
	closed   bool
}

const fakeDims = 16

func (e *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, fakeDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,?!")))
		v[h.Sum32()%fakeDims]++
	}
	return v
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return e.vector(text), nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	if e.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (e *fakeEmbedder) Dimensions() int {
	if e.probe {
		return 0
	}
	return fakeDims
}

func (e *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error                 { e.closed = true; return nil }

// fakeLLM returns a canned reply and records the messages it saw.
type fakeLLM struct {
	reply    string
	err      error
	mu       sync.Mutex
	messages []driven.ChatMessage
	opts     driven.ChatOptions
	closed   bool
}

func (l *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = messages
	l.opts = opts
	if l.err != nil {
		return "", l.err
	}
	return l.reply, nil
}

func (l *fakeLLM) ModelName() string            { return "fake-llm" }
func (l *fakeLLM) Ping(_ context.Context) error { return nil }
func (l *fakeLLM) Close() error                 { l.closed = true; return nil }

// fakePrompts serves fixed templates.
type fakePrompts struct{}

func (fakePrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswerSystem:
		return "Answer from context. End with SOURCES:", nil
	case driven.PromptAnswerUser:
		return "Context:\n{context}\n\nQuestion: {question}", nil
	}
	return "", errors.New("unknown prompt")
}

func (fakePrompts) Reload() {}

// failingDropIndex wraps an index and fails DropCollection.
type failingDropIndex struct {
	driven.VectorIndex
	err error
}

func (f *failingDropIndex) DropCollection(context.Context) error { return f.err }

// failingInsertIndex wraps an index and stores only the first keep vectors
// of an Insert before failing, like a backend that writes in several requests.
type failingInsertIndex struct {
	driven.VectorIndex
	keep int
	err  error
}

func (f *failingInsertIndex) Insert(ctx context.Context, vectors []domain.IndexedVector) error {
	if err := f.VectorIndex.Insert(ctx, vectors[:min(f.keep, len(vectors))]); err != nil {
		return err
	}
	return f.err
}

// fakeLock is an in-process RebuildLock.
type fakeLock struct {
	held      bool
	busy      bool
	released  int
	extended  int
	extendErr error
}

func (l *fakeLock) Extend(_ context.Context, _ string, _ time.Duration) error {
	l.extended++
	return l.extendErr
}

func (l *fakeLock) Acquire(_ context.Context, _ string, _ time.Duration) (bool, error) {
	if l.busy {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, _ string) error {
	l.held = false
	l.released++
	return nil
}

func (l *fakeLock) Ping(_ context.Context) error { return nil }

// testEnv wires a Runtime with fakes and the real splitting pipeline.
type testEnv struct {
	settings     domain.Settings
	fetcher      *fakeFetcher
	embedder     *fakeEmbedder
	index        driven.VectorIndex
	llm          *fakeLLM
	lock         driven.RebuildLock
	runtime      *Runtime
	orchestrator *IndexingOrchestrator
	retriever    *Retriever
	composer     *AnswerComposer
}

func newTestEnv(t *testing.T, pages map[string]string, opts ...func(*testEnv)) *testEnv {
	t.Helper()

	settings := domain.DefaultSettings()
	settings.Index.Backend = domain.IndexBackendMemory
	settings.Index.DataDir = t.TempDir()
	settings.LLM.APIKey = "test-key"

	env := &testEnv{
		settings: settings,
		fetcher:  &fakeFetcher{pages: pages},
		embedder: &fakeEmbedder{},
		index:    memory.New(settings.Index.Collection),
		llm:      &fakeLLM{reply: "An answer.\nSOURCES: https://a.example/x"},
	}
	for _, opt := range opts {
		opt(env)
	}

	env.runtime = NewRuntime(RuntimeConfig{
		Settings: env.settings,
		NewEmbedder: func(domain.EmbeddingSettings) (driven.EmbeddingService, error) {
			return env.embedder, nil
		},
		NewIndex: func(context.Context, domain.IndexSettings) (driven.VectorIndex, error) {
			return env.index, nil
		},
		NewLLM: func(domain.LLMSettings) (driven.LLMService, error) {
			return env.llm, nil
		},
		RebuildLock: env.lock,
	})

	pipeline, err := postprocessors.DefaultPipeline(env.settings.Chunk)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	env.orchestrator = NewIndexingOrchestrator(env.runtime, env.fetcher, normalisers.DefaultRegistry(), pipeline)
	env.retriever = NewRetriever(env.runtime)
	env.composer = NewAnswerComposer(env.runtime, env.retriever, fakePrompts{})
	return env
}

func withChunking(size, overlap int) func(*testEnv) {
	return func(e *testEnv) {
		e.settings.Chunk = domain.ChunkSettings{Size: size, Overlap: overlap}
	}
}

// ingest runs Ingest and returns the events it emitted.
func (e *testEnv) ingest(locators ...string) ([]domain.ProgressEvent, *domain.IngestReport, error) {
	var events []domain.ProgressEvent
	report, err := e.orchestrator.Ingest(context.Background(), locators, func(ev domain.ProgressEvent) {
		events = append(events, ev)
	})
	return events, report, err
}

// longText builds about n characters of sentence text.
func longText(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("Mortgage rates moved again this week as lenders adjusted pricing. ")
	}
	return strings.TrimSpace(b.String()[:n])
}
