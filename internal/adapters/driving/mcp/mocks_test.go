package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	events   []domain.ProgressEvent
	report   *domain.IngestReport
	status   domain.IndexStatus
	err      error
	locators []string
}

func (m *mockIngestService) Ingest(
	_ context.Context,
	locators []string,
	progress domain.ProgressFunc,
) (*domain.IngestReport, error) {
	m.locators = locators
	for _, e := range m.events {
		if progress != nil {
			progress(e)
		}
	}
	return m.report, m.err
}

func (m *mockIngestService) Stream(_ context.Context, _ []string) <-chan domain.ProgressEvent {
	ch := make(chan domain.ProgressEvent, len(m.events))
	for _, e := range m.events {
		ch <- e
	}
	close(ch)
	return ch
}

func (m *mockIngestService) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	record   *domain.AnswerRecord
	err      error
	question string
}

func (m *mockAnswerService) Ask(_ context.Context, question string) (*domain.AnswerRecord, error) {
	m.question = question
	return m.record, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	result domain.RetrievalResult
	err    error
	k      int
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, k int) (domain.RetrievalResult, error) {
	m.k = k
	m.result.Query = query
	return m.result, m.err
}
