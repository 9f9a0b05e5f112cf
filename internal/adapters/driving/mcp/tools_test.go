package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Ingest == nil {
		ports.Ingest = &mockIngestService{}
	}
	if ports.Answer == nil {
		ports.Answer = &mockAnswerService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("collects progress and counts", func(t *testing.T) {
		ingest := &mockIngestService{
			events: []domain.ProgressEvent{
				{Stage: domain.StageInit, Kind: domain.ProgressInfo, Message: "Initializing Components..."},
				{Stage: domain.StageReady, Kind: domain.ProgressReady, Message: "Done! Vector database is ready."},
			},
			report: &domain.IngestReport{
				Documents: 2,
				Chunks:    9,
				Failures:  []error{domain.NewFetchError("https://bad.example", errors.New("status 500"))},
			},
		}
		server := newTestServer(t, &Ports{Ingest: ingest})

		_, output, err := server.handleIngest(ctx, nil, IngestInput{URLs: []string{"https://a.example", "https://bad.example"}})

		require.NoError(t, err)
		assert.True(t, output.Ready)
		assert.Equal(t, 2, output.Documents)
		assert.Equal(t, 9, output.Chunks)
		assert.Equal(t, []string{"Initializing Components...", "Done! Vector database is ready."}, output.Progress)
		assert.Equal(t, []string{"https://bad.example"}, output.Skipped)
		assert.Equal(t, []string{"https://a.example", "https://bad.example"}, ingest.locators)
	})

	t.Run("returns error and partial output on failure", func(t *testing.T) {
		ingest := &mockIngestService{
			events: []domain.ProgressEvent{{Kind: domain.ProgressWarning, Message: "No data loaded."}},
			report: &domain.IngestReport{},
			err:    domain.ErrAllFetchesFailed,
		}
		server := newTestServer(t, &Ports{Ingest: ingest})

		_, output, err := server.handleIngest(ctx, nil, IngestInput{URLs: []string{"https://a.example"}})

		require.ErrorIs(t, err, domain.ErrAllFetchesFailed)
		assert.False(t, output.Ready)
		assert.Equal(t, []string{"No data loaded."}, output.Progress)
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		answer := &mockAnswerService{record: &domain.AnswerRecord{
			Answer:  "Rates rose.",
			Sources: []string{"https://a.example"},
		}}
		server := newTestServer(t, &Ports{Answer: answer})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What happened?"})

		require.NoError(t, err)
		assert.Equal(t, "Rates rose.", output.Answer)
		assert.Equal(t, []string{"https://a.example"}, output.Sources)
		assert.Equal(t, "What happened?", answer.question)
	})

	t.Run("returns not initialized", func(t *testing.T) {
		server := newTestServer(t, &Ports{Answer: &mockAnswerService{err: domain.ErrNotInitialized}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "What happened?"})

		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("maps chunks", func(t *testing.T) {
		retrieval := &mockRetrievalService{result: domain.RetrievalResult{Chunks: []domain.RetrievedChunk{
			{ID: "c1", Text: "text one", Locator: "https://a.example", Score: 0.9},
			{ID: "c2", Text: "text two", Locator: "https://b.example", Score: 0.4},
		}}}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "rates", K: 2})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, "c1", output.Chunks[0].ID)
		assert.Equal(t, "https://a.example", output.Chunks[0].Source)
		assert.Equal(t, "text one", output.Chunks[0].Content)
		assert.InDelta(t, 0.9, output.Chunks[0].Score, 1e-9)
		assert.Equal(t, 2, retrieval.k)
	})

	t.Run("returns error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Retrieval: &mockRetrievalService{err: domain.ErrNotReady}})

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "rates"})

		assert.ErrorIs(t, err, domain.ErrNotReady)
	})
}
