package ask

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type mockAnswer struct {
	record   *domain.AnswerRecord
	err      error
	question string
}

func (m *mockAnswer) Ask(_ context.Context, question string) (*domain.AnswerRecord, error) {
	m.question = question
	return m.record, m.err
}

func TestView_SubmitAsksQuestion(t *testing.T) {
	answer := &mockAnswer{record: &domain.AnswerRecord{
		Answer:  "Rates rose by a quarter point.",
		Sources: []string{"https://a.example", "https://b.example"},
	}}
	v := NewView(nil, answer)
	v.Focus()
	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("What happened?")})

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, v.Asking())
	assert.Contains(t, v.View(), "Thinking...")

	v, _ = v.Update(cmd())

	assert.False(t, v.Asking())
	assert.Equal(t, "What happened?", answer.question)
	view := v.View()
	assert.Contains(t, view, "Answer:")
	assert.Contains(t, view, "Rates rose by a quarter point.")
	assert.Contains(t, view, "Sources:")
	assert.Contains(t, view, "https://a.example")
	assert.Contains(t, view, "https://b.example")
}

func TestView_EmptyQuestionIsIgnored(t *testing.T) {
	v := NewView(nil, &mockAnswer{})
	v.Focus()

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Asking())
}

func TestView_NotInitializedGuidance(t *testing.T) {
	v := NewView(nil, &mockAnswer{err: domain.ErrNotInitialized})
	v.SetQuestion("Anything?")

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrNotInitialized)
	assert.Contains(t, v.View(), "Process some URLs first.")
}

func TestView_NoSources(t *testing.T) {
	v := NewView(nil, &mockAnswer{})
	v, _ = v.Update(messages.AnswerCompleted{Record: &domain.AnswerRecord{Answer: "Unknown.", Sources: []string{}}})

	assert.Contains(t, v.View(), "(none)")
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil)
	v.SetQuestion("Anything?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.AnswerCompleted)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoAnswerService)
}
