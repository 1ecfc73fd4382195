package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"autonotes/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, HelpKeys.Close) {
		return m, func() tea.Msg { return SwitchToDashboardMsg{} }
	}
	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("autonotes help"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render("Periodic notes, created and opened on schedule"))
	b.WriteString("\n\n")

	b.WriteString(styles.Label.Render("Dashboard"))
	b.WriteString("\n")
	for _, k := range []key.Binding{DashboardKeys.Check, DashboardKeys.Refresh, DashboardKeys.Advanced, DashboardKeys.Notes} {
		b.WriteString(helpLine(k))
	}
	b.WriteString("\n")

	b.WriteString(styles.Label.Render("Notes"))
	b.WriteString("\n")
	for _, k := range []key.Binding{NotesKeys.Up, NotesKeys.Down, NotesKeys.NextPage, NotesKeys.PrevPage, NotesKeys.NextKind, NotesKeys.Copy, NotesKeys.Edit, NotesKeys.Open, NotesKeys.Back} {
		b.WriteString(helpLine(k))
	}
	b.WriteString("\n")

	b.WriteString(styles.Label.Render("General"))
	b.WriteString("\n")
	b.WriteString(helpLine(DashboardKeys.Help))
	b.WriteString(helpLine(DashboardKeys.Quit))
	b.WriteString("\n")

	b.WriteString(styles.MutedText.Render("The current period's note is marked with *."))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(k key.Binding) string {
	h := k.Help()
	return "  " + styles.HelpKey.Render(padRight(h.Key, 20)) + styles.HelpDesc.Render(h.Desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
