package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/sidebar"
)

// focusAsk is the focus index of the question input, after the sidebar's
// URL fields and process button.
const focusAsk = sidebar.Focusables

const minSidebarWidth = 32

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	sidebarView *sidebar.View
	askView     *ask.View
	statusbar   *status.Bar

	// focus indexes the sidebar elements, then the question input.
	focus int

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		sidebarView: sidebar.NewView(s, ports.Ingest),
		askView:     ask.NewView(s, ports.Answer),
		statusbar:   status.NewBar(s, km),
		currentView: messages.ViewWorkspace,
	}
	a.setFocus(0)
	return a, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.sidebarView.WithContext(ctx)
	a.askView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("sercha-rag"),
		a.sidebarView.Init(),
		a.loadStatus(),
	)
}

// loadStatus reads the collection status for the status bar.
func (a *App) loadStatus() tea.Cmd {
	ingest := a.ports.Ingest
	ctx := a.ctx
	return func() tea.Msg {
		st, err := ingest.Status(ctx)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

// setFocus moves focus to element i, wrapping around.
func (a *App) setFocus(i int) tea.Cmd {
	n := focusAsk + 1
	i = ((i % n) + n) % n
	a.focus = i

	if i == focusAsk {
		a.sidebarView.Blur()
		return a.askView.Focus()
	}
	a.askView.Blur()
	return a.sidebarView.SetFocus(i)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message handler
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.IngestProgress:
		a.sidebarView, cmd = a.sidebarView.Update(msg)
		a.statusbar.SetState(status.StateProcessing)
		return a, cmd

	case messages.IngestFinished:
		a.sidebarView, cmd = a.sidebarView.Update(msg)
		a.statusbar.Clear()
		return a, tea.Batch(cmd, a.loadStatus())

	case messages.AnswerCompleted:
		a.askView, cmd = a.askView.Update(msg)
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.statusbar.Clear()
		return a, cmd

	case messages.StatusLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.statusbar.SetState(status.StateError)
			a.statusbar.SetMessage(msg.Err.Error())
			return a, nil
		}
		a.statusbar.SetEntries(msg.Status.Entries, msg.Status.Ready)
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusbar.SetState(status.StateError)
		a.statusbar.SetMessage(msg.Err.Error())
		return a, nil

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blink) to the focused pane
	if a.focus == focusAsk {
		a.askView, cmd = a.askView.Update(msg)
	} else {
		a.sidebarView, cmd = a.sidebarView.Update(msg)
	}
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if keymap.Matches(k, a.keymap.Quit) {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(k, a.keymap.Back) || keymap.Matches(k, a.keymap.Help) {
			a.currentView = messages.ViewWorkspace
			a.statusbar.Clear()
		}
		return a, nil
	}

	switch {
	case keymap.Matches(k, a.keymap.Help):
		a.currentView = messages.ViewHelp
		a.statusbar.SetState(status.StateHelp)
		return a, nil
	case keymap.Matches(k, a.keymap.Next):
		return a, a.setFocus(a.focus + 1)
	case keymap.Matches(k, a.keymap.Prev):
		return a, a.setFocus(a.focus - 1)
	}

	var cmd tea.Cmd
	if a.focus == focusAsk {
		a.askView, cmd = a.askView.Update(msg)
		if a.askView.Asking() {
			a.statusbar.SetState(status.StateAsking)
		}
		return a, cmd
	}

	a.sidebarView, cmd = a.sidebarView.Update(msg)
	if a.sidebarView.Running() {
		a.statusbar.SetState(status.StateProcessing)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	if a.currentView == messages.ViewHelp {
		body = a.viewHelp()
	} else {
		body = a.viewWorkspace()
	}

	return lipgloss.JoinVertical(lipgloss.Left, a.viewHeader(), body, a.statusbar.View())
}

func (a *App) viewHeader() string {
	title := a.styles.Title.Render("sercha-rag")
	if a.ports.Settings == nil {
		return title
	}
	s := a.ports.Settings.Get()
	info := a.styles.Muted.Render(fmt.Sprintf("  llm %s/%s · embeddings %s · index %s",
		s.LLM.Provider, s.LLM.Model, s.Embedding.Model, s.Index.Backend))
	return title + info
}

func (a *App) viewWorkspace() string {
	left := a.styles.Pane.Render(a.sidebarView.View())
	right := a.styles.Pane.Render(a.askView.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Subtitle.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Enter up to three URLs and press enter on any of them to rebuild\n")
	b.WriteString("the collection. Then type a question and press enter.\n\n")
	b.WriteString(a.styles.Muted.Render("[esc] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// SetDimensions lays out the panes for a terminal of the given size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	side := width / 3
	if side < minSidebarWidth {
		side = minSidebarWidth
	}
	main := width - side - 8
	if main < minSidebarWidth {
		main = minSidebarWidth
	}
	a.sidebarView.SetDimensions(side, height-4)
	a.askView.SetDimensions(main, height-4)
	a.statusbar.SetWidth(width)
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// FocusIndex returns the focused element index.
func (a *App) FocusIndex() int {
	return a.focus
}

// Sidebar returns the URL pane.
func (a *App) Sidebar() *sidebar.View {
	return a.sidebarView
}

// Ask returns the question pane.
func (a *App) Ask() *ask.View {
	return a.askView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}
