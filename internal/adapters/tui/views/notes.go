package views

import (
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"autonotes/internal/adapters/tui/styles"
	"autonotes/internal/application/commands"
	"autonotes/internal/domain"
)

// NotesKeyMap defines key bindings for the notes view
type NotesKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	NextKind key.Binding
	PrevKind key.Binding
	Copy     key.Binding
	Edit     key.Binding
	Open     key.Binding
	Back     key.Binding
}

var NotesKeys = NotesKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "prev page"),
	),
	NextKind: key.NewBinding(
		key.WithKeys("tab", "l", "right"),
		key.WithHelp("tab", "next periodicity"),
	),
	PrevKind: key.NewBinding(
		key.WithKeys("shift+tab", "h", "left"),
		key.WithHelp("shift+tab", "prev periodicity"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in Obsidian"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc", "back"),
	),
}

// notesPageSize is the number of notes shown at once
const notesPageSize = 15

type notesLoadedMsg struct {
	result *commands.ListNotesResult
	err    error
}

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

// NotesModel lists the notes of one periodicity at a time
type NotesModel struct {
	ViewState
	deps      Deps
	kind      int // index into displayOrder
	paths     []string
	current   string
	paginator *Paginator
}

// NewNotesModel creates a new notes model
func NewNotesModel(deps Deps) *NotesModel {
	return &NotesModel{deps: deps, paginator: NewPaginator(notesPageSize)}
}

func (m *NotesModel) periodicity() domain.Periodicity {
	return displayOrder[m.kind]
}

// Show switches to periodicity name and loads its notes
func (m *NotesModel) Show(name string) tea.Cmd {
	if p, err := domain.ParsePeriodicity(name); err == nil {
		for i, q := range displayOrder {
			if q == p {
				m.kind = i
			}
		}
	}
	m.ClearMessage()
	return m.load()
}

func (m *NotesModel) load() tea.Cmd {
	deps := m.deps
	p := m.periodicity()
	return func() tea.Msg {
		ctx, cancel := deps.commandContext()
		defer cancel()
		result, err := commands.NewListNotesCommand(deps.Store, p.String()).Execute(ctx)
		return notesLoadedMsg{result: result, err: err}
	}
}

func (m *NotesModel) selected() (string, bool) {
	if len(m.paths) == 0 {
		return "", false
	}
	return m.paths[m.paginator.Cursor()], true
}

func (m *NotesModel) abs(rel string) string {
	return filepath.Join(m.deps.VaultPath, filepath.FromSlash(rel))
}

// Init loads the current periodicity
func (m *NotesModel) Init() tea.Cmd {
	return m.load()
}

// Update handles messages for the notes view
func (m *NotesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notesLoadedMsg:
		if msg.err != nil {
			m.paths = nil
			m.current = ""
			m.paginator.SetTotal(0)
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		if msg.result.Periodicity != m.periodicity() {
			return m, nil // stale
		}
		m.paths = msg.result.Paths
		m.current = ""
		if msg.result.Current != nil {
			m.current = msg.result.Current.Path
		}
		m.paginator.SetTotal(len(m.paths))
		for i, p := range m.paths {
			if p == m.current {
				m.paginator.SetCursor(i)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, NotesKeys.Back):
			return m, func() tea.Msg { return SwitchToDashboardMsg{} }
		case key.Matches(msg, NotesKeys.Up):
			m.paginator.CursorUp()
		case key.Matches(msg, NotesKeys.Down):
			m.paginator.CursorDown()
		case key.Matches(msg, NotesKeys.NextPage):
			m.paginator.NextPage()
		case key.Matches(msg, NotesKeys.PrevPage):
			m.paginator.PrevPage()
		case key.Matches(msg, NotesKeys.NextKind):
			m.kind = (m.kind + 1) % len(displayOrder)
			m.ClearMessage()
			return m, m.load()
		case key.Matches(msg, NotesKeys.PrevKind):
			n := len(displayOrder)
			m.kind = (m.kind + n - 1) % n
			m.ClearMessage()
			return m, m.load()
		case key.Matches(msg, NotesKeys.Copy):
			if rel, ok := m.selected(); ok {
				if err := copyToClipboard(m.abs(rel)); err != nil {
					m.SetMessage(fmt.Sprintf("Copy failed: %v", err), true)
				} else {
					m.SetMessage("Copied "+rel, false)
				}
			}
		case key.Matches(msg, NotesKeys.Edit):
			if rel, ok := m.selected(); ok && m.deps.Editor != nil {
				path := m.abs(rel)
				return m, func() tea.Msg { return OpenEditorMsg{Path: path} }
			}
		case key.Matches(msg, NotesKeys.Open):
			if rel, ok := m.selected(); ok && m.deps.Obsidian != nil {
				if err := m.deps.Obsidian.OpenFile(m.abs(rel)); err != nil {
					m.SetMessage(fmt.Sprintf("Open failed: %v", err), true)
				} else {
					m.SetMessage("Opened "+rel, false)
				}
			}
		}
	}
	return m, nil
}

// View renders the notes view
func (m *NotesModel) View() string {
	p := m.periodicity()
	v := NewViewBuilder().Title("Notes")

	var tabs string
	for i, q := range displayOrder {
		if i == m.kind {
			tabs += styles.RowSelected.Render(" "+q.String()+" ") + " "
		} else {
			tabs += styles.MutedText.Render(" "+q.String()+" ") + " "
		}
	}
	v.Line(tabs).BlankLine()

	if len(m.paths) == 0 {
		v.Muted(fmt.Sprintf("No %s notes.", p))
	} else {
		start, end := m.paginator.VisibleRange()
		for i := start; i < end; i++ {
			rel := m.paths[i]
			marker := "  "
			style := styles.Row
			if rel == m.current {
				marker = "* "
				style = styles.RowCurrent
			}
			if i == m.paginator.Cursor() {
				style = styles.RowSelected
			}
			v.Line(style.Render(marker + rel))
		}
		if m.paginator.TotalPages() > 1 {
			v.Muted(fmt.Sprintf("page %d/%d", m.paginator.CurrentPage(), m.paginator.TotalPages()))
		}
	}
	v.BlankLine()
	v.Message(m.Message, m.MessageErr)

	bindings := []key.Binding{NotesKeys.NextKind, NotesKeys.Copy}
	if m.deps.Editor != nil {
		bindings = append(bindings, NotesKeys.Edit)
	}
	if m.deps.Obsidian != nil {
		bindings = append(bindings, NotesKeys.Open)
	}
	bindings = append(bindings, NotesKeys.Back)
	return v.Help(bindings...).String()
}
