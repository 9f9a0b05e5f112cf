// Package ask provides the question and answer pane of the TUI.
package ask

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// ErrNoAnswerService is returned when the view has no answer service.
var ErrNoAnswerService = errors.New("answer service not available")

const maxQuestionLength = 1024

// View holds the question input and the last answer.
type View struct {
	styles *styles.Styles
	input  *input.Field

	answer driving.AnswerService
	ctx    context.Context

	record *domain.AnswerRecord
	err    error
	asking bool

	width  int
	height int
}

// NewView creates the ask pane.
func NewView(s *styles.Styles, answer driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		input:  input.NewField(s, "Ask a question", "What do these pages say about...?", maxQuestionLength),
		answer: answer,
		ctx:    context.Background(),
		width:  80,
		height: 24,
	}
}

// WithContext sets the context used for answering.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Focus focuses the question input.
func (v *View) Focus() tea.Cmd {
	return v.input.Focus()
}

// Blur removes focus from the question input.
func (v *View) Blur() {
	v.input.Blur()
}

// Focused reports whether the question input has focus.
func (v *View) Focused() bool {
	return v.input.Focused()
}

// Update handles messages for the ask pane.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case messages.AnswerCompleted:
		v.asking = false
		v.record = msg.Record
		v.err = msg.Err
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.asking {
		return nil
	}
	v.asking = true
	v.err = nil

	return func() tea.Msg {
		if v.answer == nil {
			return messages.AnswerCompleted{Err: ErrNoAnswerService}
		}
		record, err := v.answer.Ask(v.ctx, question)
		return messages.AnswerCompleted{Record: record, Err: err}
	}
}

// View renders the question box and the answer with its sources.
func (v *View) View() string {
	sections := []string{v.styles.Title.Render("Ask"), "", v.input.View(), ""}
	wrap := lipgloss.NewStyle().Width(v.width)

	switch {
	case v.asking:
		sections = append(sections, v.styles.Muted.Render("Thinking..."))
	case v.err != nil:
		sections = append(sections, wrap.Render(v.styles.Error.Render(errorText(v.err))))
	case v.record != nil:
		sections = append(sections,
			v.styles.Subtitle.Render("Answer:"),
			wrap.Render(v.styles.Normal.Render(v.record.Answer)),
			"",
			v.styles.Subtitle.Render("Sources:"),
		)
		if len(v.record.Sources) == 0 {
			sections = append(sections, v.styles.Muted.Render("(none)"))
		}
		for _, src := range v.record.Sources {
			sections = append(sections, v.styles.Source.Render(src))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// errorText turns the common failures into guidance.
func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotInitialized):
		return "Vector database not initialized. Process some URLs first."
	case errors.Is(err, domain.ErrNotReady):
		return "The collection is empty. Process some URLs first."
	case errors.Is(err, domain.ErrMissingAPIKey):
		return "No LLM API key is set: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Record returns the last answer, if any.
func (v *View) Record() *domain.AnswerRecord {
	return v.record
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Asking reports whether a question is in flight.
func (v *View) Asking() bool {
	return v.asking
}
