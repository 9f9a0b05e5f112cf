package cli

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type mockIngestService struct {
	events   []domain.ProgressEvent
	report   *domain.IngestReport
	err      error
	status   domain.IndexStatus
	statusEr error
	got      []string
}

func (m *mockIngestService) Ingest(
	_ context.Context, locators []string, progress domain.ProgressFunc,
) (*domain.IngestReport, error) {
	m.got = locators
	for _, ev := range m.events {
		if progress != nil {
			progress(ev)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func (m *mockIngestService) Stream(_ context.Context, _ []string) <-chan domain.ProgressEvent {
	ch := make(chan domain.ProgressEvent, len(m.events))
	for _, ev := range m.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (m *mockIngestService) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.statusEr
}

type mockAnswerService struct {
	record    *domain.AnswerRecord
	err       error
	question  string
	k         int
	askCalled bool
}

func (m *mockAnswerService) Ask(_ context.Context, question string) (*domain.AnswerRecord, error) {
	m.askCalled = true
	m.question = question
	return m.record, m.err
}

func (m *mockAnswerService) AskK(_ context.Context, question string, k int) (*domain.AnswerRecord, error) {
	m.question = question
	m.k = k
	return m.record, m.err
}

type mockSettingsService struct {
	settings   domain.Settings
	entries    []domain.SettingEntry
	requireErr error
	checkErr   error
	setErr     error
	saved      map[string]string
	unset      []string
}

func (m *mockSettingsService) Get() domain.Settings { return m.settings }

func (m *mockSettingsService) RequireLLM() error { return m.requireErr }

func (m *mockSettingsService) Entries() []domain.SettingEntry { return m.entries }

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.saved == nil {
		m.saved = map[string]string{}
	}
	m.saved[key] = value
	return nil
}

func (m *mockSettingsService) Unset(key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.unset = append(m.unset, key)
	return nil
}

func (m *mockSettingsService) Check(_ context.Context) error { return m.checkErr }

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	ingest   *mockIngestService
	answer   *mockAnswerService
	settings *mockSettingsService
	attached int
}

// setupTestServices installs mock services and returns a cleanup function
// that restores the previous wiring and resets flag state.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		ingest: &mockIngestService{
			events: []domain.ProgressEvent{
				{Stage: domain.StageInit, Kind: domain.ProgressInfo, Message: "Initializing Components..."},
				{Stage: domain.StageReady, Kind: domain.ProgressReady, Message: "Done! Vector database is ready.", Count: 4},
			},
			report: &domain.IngestReport{Documents: 2, Chunks: 4},
			status: domain.IndexStatus{
				Backend: "sqlite", Collection: "documents", Ready: true, Entries: 4, EmbeddingModel: "all-minilm",
			},
		},
		answer: &mockAnswerService{
			record: &domain.AnswerRecord{
				Question: "what?",
				Answer:   "Housing costs rose.",
				Sources:  []string{"https://a.example", "https://b.example"},
			},
		},
		settings: &mockSettingsService{
			settings: domain.DefaultSettings(),
			entries: []domain.SettingEntry{
				{Key: "llm.provider", Env: "SERCHA_LLM_PROVIDER", Value: "groq", Source: domain.SettingSourceDefault},
				{Key: "llm.api_key", Env: "SERCHA_LLM_API_KEY", Value: "****1234",
					Source: domain.SettingSourceEnv, Secret: true},
				{Key: "chunk.size", Env: "SERCHA_CHUNK_SIZE", Value: "1000", Source: domain.SettingSourceFile},
			},
		},
	}

	prev := Services{
		Ingest:    ingestService,
		Answer:    answerService,
		Retrieval: retrievalService,
		Settings:  settingsService,
		Attach:    attachFn,
	}
	prevTerminal := isTerminal
	prevRunProgram := runProgram
	prevServeMCP := serveMCP

	SetServices(Services{
		Ingest:   ts.ingest,
		Answer:   ts.answer,
		Settings: ts.settings,
		Attach: func(context.Context) error {
			ts.attached++
			return nil
		},
	})

	return ts, func() {
		SetServices(prev)
		isTerminal = prevTerminal
		runProgram = prevRunProgram
		serveMCP = prevServeMCP
		askK = 0
		askJSON = false
		statusJSON = false
		settingsJSON = false
		verbose = false
		_ = mcpServeCmd.Flags().Set("port", "0")
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}
