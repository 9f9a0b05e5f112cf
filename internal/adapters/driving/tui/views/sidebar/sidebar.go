// Package sidebar provides the URL entry and processing pane of the TUI.
package sidebar

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

const (
	// URLCount is the number of URL fields.
	URLCount = 3

	// Focusables counts the URL fields plus the process button.
	Focusables = URLCount + 1

	buttonIndex = URLCount
	noFocus     = -1

	maxURLLength = 2048
	maxLogLines  = 50
)

// View holds the URL fields, the process action and the progress log.
type View struct {
	styles *styles.Styles
	fields []*input.Field
	focus  int

	ingest driving.IngestService
	ctx    context.Context

	events  <-chan domain.ProgressEvent
	log     []domain.ProgressEvent
	running bool
	last    domain.ProgressKind

	width  int
	height int
}

// NewView creates the sidebar with empty URL fields.
func NewView(s *styles.Styles, ingest driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	fields := make([]*input.Field, URLCount)
	for i := range fields {
		fields[i] = input.NewField(s, fmt.Sprintf("URL %d", i+1), "https://...", maxURLLength)
	}

	return &View{
		styles: s,
		fields: fields,
		focus:  noFocus,
		ingest: ingest,
		ctx:    context.Background(),
		width:  40,
		height: 24,
	}
}

// WithContext sets the context used for ingestion.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.fields[0].Init()
}

// SetFocus focuses element i: a URL field, or the process button when
// i == URLCount. Any other value blurs the sidebar.
func (v *View) SetFocus(i int) tea.Cmd {
	v.focus = noFocus
	var cmd tea.Cmd
	for j, f := range v.fields {
		if j == i {
			cmd = f.Focus()
		} else {
			f.Blur()
		}
	}
	if i >= 0 && i < Focusables {
		v.focus = i
	}
	return cmd
}

// Blur removes focus from every element.
func (v *View) Blur() {
	v.SetFocus(noFocus)
}

// Focus returns the focused element, or -1.
func (v *View) Focus() int {
	return v.focus
}

// Update handles messages for the sidebar.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			return v, v.Process()
		}
		if v.focus >= 0 && v.focus < URLCount {
			var cmd tea.Cmd
			v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
			return v, cmd
		}
		return v, nil

	case messages.IngestProgress:
		v.log = append(v.log, msg.Event)
		if len(v.log) > maxLogLines {
			v.log = v.log[len(v.log)-maxLogLines:]
		}
		if msg.Event.Terminal() {
			v.last = msg.Event.Kind
		}
		return v, waitForEvent(v.events)

	case messages.IngestFinished:
		v.running = false
		v.events = nil
		return v, nil
	}

	if v.focus >= 0 && v.focus < URLCount {
		var cmd tea.Cmd
		v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
		return v, cmd
	}
	return v, nil
}

// Process starts an ingestion run over the entered URLs. It does nothing
// while a run is in flight.
func (v *View) Process() tea.Cmd {
	if v.running || v.ingest == nil {
		return nil
	}

	v.log = nil
	v.last = ""
	v.running = true
	v.events = v.ingest.Stream(v.ctx, v.URLs())
	return waitForEvent(v.events)
}

// waitForEvent reads the next progress event. A closed channel ends the run.
func waitForEvent(events <-chan domain.ProgressEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return messages.IngestFinished{}
		}
		return messages.IngestProgress{Event: e}
	}
}

// URLs returns the raw field values in order.
func (v *View) URLs() []string {
	urls := make([]string, len(v.fields))
	for i, f := range v.fields {
		urls[i] = f.Value()
	}
	return urls
}

// SetURL fills URL field i.
func (v *View) SetURL(i int, url string) {
	if i >= 0 && i < len(v.fields) {
		v.fields[i].SetValue(url)
	}
}

// Running reports whether an ingestion is in flight.
func (v *View) Running() bool {
	return v.running
}

// Succeeded reports whether the last finished run ended ready.
func (v *View) Succeeded() bool {
	return !v.running && v.last == domain.ProgressReady
}

// Log returns the progress events of the current or last run.
func (v *View) Log() []domain.ProgressEvent {
	return v.log
}

// View renders the sidebar.
func (v *View) View() string {
	sections := make([]string, 0, URLCount+6)
	sections = append(sections, v.styles.Title.Render("Web page URLs"), "")

	for _, f := range v.fields {
		sections = append(sections, f.View())
	}

	button := v.styles.Button
	if v.focus == buttonIndex {
		button = v.styles.FocusedButton
	}
	label := "Process URLs"
	if v.running {
		label = "Processing..."
	}
	sections = append(sections, "", button.Render(label), "")

	if len(v.log) > 0 {
		sections = append(sections, v.styles.Subtitle.Render("Status"), v.renderLog())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderLog() string {
	wrap := lipgloss.NewStyle().Width(v.width)
	lines := make([]string, 0, len(v.log))
	for _, e := range v.log {
		style := v.styles.Normal
		switch e.Kind {
		case domain.ProgressNote, domain.ProgressWarning:
			style = v.styles.Warning
		case domain.ProgressError:
			style = v.styles.Error
		case domain.ProgressReady:
			style = v.styles.Success
		case domain.ProgressInfo:
		}
		lines = append(lines, wrap.Render(style.Render(e.Message)))
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	for _, f := range v.fields {
		f.SetWidth(width)
	}
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}
