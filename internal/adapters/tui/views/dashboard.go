package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"autonotes/internal/adapters/tui/styles"
	"autonotes/internal/application/commands"
	"autonotes/internal/application/orchestrator"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/domain"
)

// refreshInterval is how often the dashboard re-reads the status
const refreshInterval = 5 * time.Second

// DashboardKeyMap defines key bindings for the dashboard view
type DashboardKeyMap struct {
	Check    key.Binding
	Refresh  key.Binding
	Advanced key.Binding
	Notes    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var DashboardKeys = DashboardKeyMap{
	Check: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "check now"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Advanced: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle advanced scheduling"),
	),
	Notes: key.NewBinding(
		key.WithKeys("n", "enter"),
		key.WithHelp("n", "notes"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type statusLoadedMsg struct {
	status  orchestrator.Status
	notices []string
}

type checkDoneMsg struct {
	result *commands.CheckResult
	err    error
}

type optionSetMsg struct {
	message string
	err     error
}

type refreshTickMsg time.Time

// DashboardModel shows the schedule, the settings per periodicity, the last
// pass and recent notices
type DashboardModel struct {
	ViewState
	deps    Deps
	status  orchestrator.Status
	notices []string
	loaded  bool
	busy    bool
	spinner spinner.Model
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(deps Deps) *DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &DashboardModel{deps: deps, spinner: sp}
}

// Init loads the status and starts the refresh ticker
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.Reload(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshTickMsg(t) })
}

// Reload re-reads the status and notices
func (m *DashboardModel) Reload() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := deps.commandContext()
		defer cancel()
		st, _ := commands.NewStatusCommand(deps.Ctrl).Execute(ctx)
		var notices []string
		if deps.Notices != nil {
			notices = deps.Notices.Messages()
		}
		return statusLoadedMsg{status: st, notices: notices}
	}
}

func (m *DashboardModel) runCheck() tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx, cancel := deps.commandContext()
		defer cancel()
		result, err := commands.NewCheckCommand(deps.Ctrl, "").Execute(ctx)
		return checkDoneMsg{result: result, err: err}
	}
}

func (m *DashboardModel) toggleAdvanced() tea.Cmd {
	deps := m.deps
	enable := !m.status.Settings.Daily.EnableAdvancedScheduling
	return func() tea.Msg {
		ctx, cancel := deps.commandContext()
		defer cancel()
		result, err := commands.NewSetOptionCommand(deps.Ctrl, domain.Daily.String(), "enableAdvancedScheduling", enable).Execute(ctx)
		if err != nil {
			return optionSetMsg{err: err}
		}
		return optionSetMsg{message: result.Message}
	}
}

// Update handles messages for the dashboard
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusLoadedMsg:
		m.status = msg.status
		m.notices = msg.notices
		m.loaded = true
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.Reload(), tick())

	case checkDoneMsg:
		m.busy = false
		switch {
		case msg.err != nil:
			m.SetMessage(msg.err.Error(), true)
		case msg.result != nil:
			m.SetMessage(strings.ReplaceAll(msg.result.Message, "\n", "; "), false)
		}
		return m, m.Reload()

	case optionSetMsg:
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
		} else {
			m.SetMessage(msg.message, false)
		}
		return m, m.Reload()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DashboardKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, DashboardKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		case key.Matches(msg, DashboardKeys.Notes):
			return m, func() tea.Msg { return SwitchToNotesMsg{Periodicity: domain.Daily.String()} }
		case key.Matches(msg, DashboardKeys.Refresh):
			m.ClearMessage()
			return m, m.Reload()
		case key.Matches(msg, DashboardKeys.Check):
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.SetMessage("Checking…", false)
			return m, tea.Batch(m.runCheck(), m.spinner.Tick)
		case key.Matches(msg, DashboardKeys.Advanced):
			if !m.loaded {
				return m, nil
			}
			return m, m.toggleAdvanced()
		}
	}
	return m, nil
}

// View renders the dashboard
func (m *DashboardModel) View() string {
	v := NewViewBuilder().Title("autonotes")
	if !m.loaded {
		return v.Muted("Loading…").String()
	}
	v.Subtitle("Device " + m.status.DeviceID)

	v.Line(RenderPanel("Schedule", m.renderSchedule(), m.Width))
	v.Line(RenderPanel("Notes", m.renderSettings(), m.Width))
	if r := m.status.LastReport; r != nil {
		v.Line(RenderPanel(fmt.Sprintf("Last pass (%s, %s)", r.Trigger, r.Started.Format("15:04:05")), m.renderReport(r.Outcomes), m.Width))
	}
	v.Line(RenderPanel("Notices", m.renderNotices(), m.Width))

	msg := m.Message
	if m.busy {
		msg = m.spinner.View() + " " + msg
	}
	v.Message(msg, m.MessageErr)

	return v.Help(
		DashboardKeys.Check,
		DashboardKeys.Refresh,
		DashboardKeys.Advanced,
		DashboardKeys.Notes,
		DashboardKeys.Help,
		DashboardKeys.Quit,
	).String()
}

func (m *DashboardModel) renderSchedule() string {
	var b strings.Builder
	st := m.status
	if st.NextCustom.IsZero() {
		b.WriteString(RenderLabelValue("Custom check", "off") + "\n")
	} else {
		b.WriteString(RenderLabelValue("Custom check", st.NextCustom.Format(time.DateTime)) + "\n")
	}
	last := st.LastExecution
	if last == "" {
		last = "never"
	}
	b.WriteString(RenderLabelValue("Last custom run", last) + "\n")
	for _, t := range st.Timers {
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("%s %s at %s", t.Name, t.State, t.TimeOfDay)) + "\n")
	}
	return b.String()
}

func (m *DashboardModel) renderSettings() string {
	var b strings.Builder
	b.WriteString(styles.MutedText.Render(fmt.Sprintf("%-10s %-6s %-6s %-6s %-6s %s", "", "avail", "on", "open", "pin", "close")) + "\n")
	for _, p := range displayOrder {
		ps := m.status.Settings.For(p)
		fmt.Fprintf(&b, "%s %s      %s      %s      %s      %s\n",
			RenderPeriodicity(p.String(), 10),
			RenderFlag(ps.Available),
			RenderFlag(ps.Enabled),
			RenderFlag(ps.Open),
			RenderFlag(ps.Pin),
			RenderFlag(ps.CloseExisting),
		)
	}
	d := m.status.Settings.Daily
	fmt.Fprintf(&b, "%s advanced scheduling  %s exclude weekends  %s first position",
		RenderFlag(d.EnableAdvancedScheduling),
		RenderFlag(d.ExcludeWeekends),
		RenderFlag(d.OpenAtFirstPosition),
	)
	return b.String()
}

func (m *DashboardModel) renderReport(outcomes []reconcile.Outcome) string {
	if len(outcomes) == 0 {
		return styles.MutedText.Render("nothing managed")
	}
	var b strings.Builder
	for _, o := range outcomes {
		line := commands.DescribeOutcome(o)
		switch {
		case o.Err != nil:
			line = styles.ErrorMsg.Render(line)
		case o.Skipped != "":
			line = styles.MutedText.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *DashboardModel) renderNotices() string {
	if len(m.notices) == 0 {
		return styles.MutedText.Render("none yet")
	}
	var b strings.Builder
	// newest first
	for i := len(m.notices) - 1; i >= 0; i-- {
		line := m.notices[i]
		if strings.HasPrefix(line, "Failed") {
			line = styles.WarningMsg.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
