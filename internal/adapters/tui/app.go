// Package tui is a terminal dashboard for the running schedule.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"autonotes/internal/adapters/tui/views"
)

// ViewState represents the current view
type ViewState int

const (
	ViewDashboard ViewState = iota
	ViewNotes
	ViewHelp
)

// App is the main TUI application model
type App struct {
	deps views.Deps

	state     ViewState
	dashboard *views.DashboardModel
	notes     *views.NotesModel
	help      *views.HelpModel

	width  int
	height int
}

// NewApp creates a new TUI application
func NewApp(deps views.Deps) *App {
	return &App{
		deps:      deps,
		state:     ViewDashboard,
		dashboard: views.NewDashboardModel(deps),
		notes:     views.NewNotesModel(deps),
		help:      views.NewHelpModel(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.SetSize(msg.Width, msg.Height)
		a.notes.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToNotesMsg:
		a.state = ViewNotes
		return a, a.notes.Show(msg.Periodicity)

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToDashboardMsg:
		a.state = ViewDashboard
		return a, a.dashboard.Reload()

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case editorFinishedMsg:
		if msg.err != nil {
			a.notes.SetMessage(msg.err.Error(), true)
		}
		return a, nil
	}

	// the dashboard keeps refreshing while hidden
	var cmd tea.Cmd
	switch a.state {
	case ViewNotes:
		if _, ok := msg.(tea.KeyMsg); ok {
			_, cmd = a.notes.Update(msg)
			return a, cmd
		}
		_, notesCmd := a.notes.Update(msg)
		_, dashCmd := a.dashboard.Update(msg)
		return a, tea.Batch(notesCmd, dashCmd)
	case ViewHelp:
		if _, ok := msg.(tea.KeyMsg); ok {
			_, cmd = a.help.Update(msg)
			return a, cmd
		}
		_, cmd = a.dashboard.Update(msg)
	default:
		_, cmd = a.dashboard.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

func (a *App) openEditor(path string) tea.Cmd {
	if a.deps.Editor == nil {
		return nil
	}

	cmd, err := a.deps.Editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewNotes:
		return a.notes.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.dashboard.View()
	}
}
