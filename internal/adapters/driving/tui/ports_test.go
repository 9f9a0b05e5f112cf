package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type mockIngestService struct {
	events []domain.ProgressEvent
	status domain.IndexStatus
	err    error
}

func (m *mockIngestService) Ingest(context.Context, []string, domain.ProgressFunc) (*domain.IngestReport, error) {
	return &domain.IngestReport{}, m.err
}

func (m *mockIngestService) Stream(context.Context, []string) <-chan domain.ProgressEvent {
	ch := make(chan domain.ProgressEvent, len(m.events))
	for _, e := range m.events {
		ch <- e
	}
	close(ch)
	return ch
}

func (m *mockIngestService) Status(context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

type mockAnswerService struct {
	record *domain.AnswerRecord
	err    error
}

func (m *mockAnswerService) Ask(context.Context, string) (*domain.AnswerRecord, error) {
	return m.record, m.err
}

type mockSettingsService struct{}

func (mockSettingsService) Get() domain.Settings { return domain.DefaultSettings() }
func (mockSettingsService) RequireLLM() error    { return nil }

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		err   error
	}{
		{"empty", &Ports{}, ErrMissingIngestService},
		{"no answer", &Ports{Ingest: &mockIngestService{}}, ErrMissingAnswerService},
		{"settings optional", NewPorts(&mockIngestService{}, &mockAnswerService{}, nil), nil},
		{"all", NewPorts(&mockIngestService{}, &mockAnswerService{}, mockSettingsService{}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
