package views

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autonotes/internal/application/orchestrator"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/domain"
)

type fakeController struct {
	settings domain.Settings
	triggers []domain.Trigger
	report   *reconcile.Report
}

func newFakeController() *fakeController {
	s := domain.DefaultSettings()
	s.Daily.Available = true
	return &fakeController{settings: s}
}

func (f *fakeController) Settings() domain.Settings { return f.settings.Clone() }

func (f *fakeController) UpdateSettings(_ context.Context, s domain.Settings) error {
	f.settings = s
	return nil
}

func (f *fakeController) SetDeviceScheduledTime(context.Context, string) error { return nil }

func (f *fakeController) Check(_ context.Context, trigger domain.Trigger) *reconcile.Report {
	f.triggers = append(f.triggers, trigger)
	if f.report != nil {
		return f.report
	}
	return &reconcile.Report{Trigger: trigger}
}

func (f *fakeController) Status() orchestrator.Status {
	return orchestrator.Status{DeviceID: "laptop", Settings: f.settings, LastReport: f.report}
}

type fakeStore struct {
	paths   map[domain.Periodicity][]string
	current *domain.Artifact
}

func (s *fakeStore) Exists(context.Context, domain.Unit, time.Time) (bool, error) { return false, nil }
func (s *fakeStore) Create(context.Context, domain.Unit, time.Time) (*domain.Artifact, error) {
	return nil, errors.New("read only")
}
func (s *fakeStore) ListAll(_ context.Context, p domain.Periodicity) ([]string, error) {
	return s.paths[p], nil
}
func (s *fakeStore) Current(_ context.Context, unit domain.Unit, _ time.Time) (*domain.Artifact, error) {
	if unit == domain.UnitDay {
		return s.current, nil
	}
	return nil, nil
}
func (s *fakeStore) FormatAndFolder(p domain.Periodicity) (string, string) {
	return domain.DefaultFormats[p], ""
}
func (s *fakeStore) FindByPath(context.Context, string) (*domain.Artifact, error) { return nil, nil }

type fakeNotices []string

func (n fakeNotices) Messages() []string { return n }

type fakeEditor struct{}

func (fakeEditor) Command(path string) (*exec.Cmd, error) { return exec.Command("true", path), nil }

type fakeObsidian struct{ opened []string }

func (o *fakeObsidian) OpenFile(path string) error {
	o.opened = append(o.opened, path)
	return nil
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDashboard_LoadsAndRenders(t *testing.T) {
	ctrl := newFakeController()
	ctrl.report = &reconcile.Report{
		Trigger: domain.TriggerStartup,
		Started: time.Date(2025, time.January, 15, 8, 0, 0, 0, time.Local),
		Outcomes: []reconcile.Outcome{
			{Periodicity: domain.Daily, Target: "Daily/2025-01-15.md", Created: true, Opened: true},
			{Periodicity: domain.Weekly, Skipped: "disabled"},
		},
	}
	m := NewDashboardModel(Deps{
		Ctrl:    ctrl,
		Notices: fakeNotices{"Today's daily note has been created."},
	})

	assert.Contains(t, m.View(), "Loading")

	m.Update(m.Reload()())
	view := m.View()

	for _, want := range []string{
		"Device laptop",
		"Custom check",
		"daily: created Daily/2025-01-15.md, opened Daily/2025-01-15.md",
		"weekly: skipped (disabled)",
		"Today's daily note has been created.",
	} {
		assert.Contains(t, view, want)
	}
}

func TestDashboard_CheckRunsManualPass(t *testing.T) {
	ctrl := newFakeController()
	ctrl.report = &reconcile.Report{
		Trigger:  domain.TriggerManual,
		Outcomes: []reconcile.Outcome{{Periodicity: domain.Daily, Target: "Daily/2025-01-15.md", Created: true}},
	}
	m := NewDashboardModel(Deps{Ctrl: ctrl})

	_, cmd := m.Update(keyPress("c"))
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	_, again := m.Update(keyPress("c"))
	assert.Nil(t, again, "a second check while busy is ignored")

	m.Update(m.runCheck()())

	assert.False(t, m.busy)
	assert.Equal(t, []domain.Trigger{domain.TriggerManual}, ctrl.triggers)
	assert.False(t, m.MessageErr)
	assert.Contains(t, m.Message, "daily: created Daily/2025-01-15.md")
}

func TestDashboard_CheckFailureIsShown(t *testing.T) {
	ctrl := newFakeController()
	ctrl.report = &reconcile.Report{
		Outcomes: []reconcile.Outcome{{Periodicity: domain.Daily, Err: errors.New("disk full")}},
	}
	m := NewDashboardModel(Deps{Ctrl: ctrl})

	m.Update(m.runCheck()())

	assert.True(t, m.MessageErr)
	assert.Contains(t, m.Message, "disk full")
}

func TestDashboard_ToggleAdvancedScheduling(t *testing.T) {
	ctrl := newFakeController()
	m := NewDashboardModel(Deps{Ctrl: ctrl})

	_, cmd := m.Update(keyPress("a"))
	assert.Nil(t, cmd, "nothing to toggle before the status loaded")

	m.Update(m.Reload()())
	_, cmd = m.Update(keyPress("a"))
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.True(t, ctrl.settings.Daily.EnableAdvancedScheduling)
	assert.Contains(t, m.Message, "daily.enableAdvancedScheduling = true")
}

func TestDashboard_Navigation(t *testing.T) {
	m := NewDashboardModel(Deps{Ctrl: newFakeController()})

	tests := []struct {
		key  string
		want tea.Msg
	}{
		{"n", SwitchToNotesMsg{Periodicity: "daily"}},
		{"?", SwitchToHelpMsg{}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, cmd := m.Update(keyPress(tt.key))
			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}
}

func notesFixture(t *testing.T) (*NotesModel, *fakeObsidian) {
	t.Helper()
	store := &fakeStore{
		paths: map[domain.Periodicity][]string{
			domain.Daily:  {"Daily/2025-01-13.md", "Daily/2025-01-14.md", "Daily/2025-01-15.md"},
			domain.Weekly: {"2025-W03.md"},
		},
		current: &domain.Artifact{Periodicity: domain.Daily, Path: "Daily/2025-01-15.md"},
	}
	obs := &fakeObsidian{}
	m := NewNotesModel(Deps{
		Ctrl:      newFakeController(),
		Store:     store,
		Editor:    fakeEditor{},
		Obsidian:  obs,
		VaultPath: "/vault",
	})
	m.Update(m.Show("daily")())
	return m, obs
}

func TestNotes_ListMarksCurrent(t *testing.T) {
	m, _ := notesFixture(t)

	assert.Equal(t, 2, m.paginator.Cursor(), "cursor starts on the current note")
	view := m.View()
	assert.Contains(t, view, "* Daily/2025-01-15.md")
	assert.Contains(t, view, "Daily/2025-01-13.md")
}

func TestNotes_CopyPath(t *testing.T) {
	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { copyToClipboard = orig })

	m, _ := notesFixture(t)
	m.Update(keyPress("k"))
	m.Update(keyPress("y"))

	assert.Equal(t, filepath.Join("/vault", "Daily", "2025-01-14.md"), copied)
	assert.Equal(t, "Copied Daily/2025-01-14.md", m.Message)
}

func TestNotes_EditAndOpen(t *testing.T) {
	m, obs := notesFixture(t)
	want := filepath.Join("/vault", "Daily", "2025-01-15.md")

	_, cmd := m.Update(keyPress("e"))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenEditorMsg{Path: want}, cmd())

	m.Update(keyPress("o"))
	assert.Equal(t, []string{want}, obs.opened)
}

func TestNotes_SwitchPeriodicity(t *testing.T) {
	m, _ := notesFixture(t)
	stale := m.load()

	_, cmd := m.Update(keyPress("tab"))
	require.NotNil(t, cmd)
	assert.Equal(t, domain.Weekly, m.periodicity())

	m.Update(cmd())
	m.Update(stale())

	assert.Equal(t, []string{"2025-W03.md"}, m.paths, "a late daily listing is ignored")
	assert.True(t, strings.Contains(m.View(), "2025-W03.md"))

	_, cmd = m.Update(keyPress("esc"))
	require.NotNil(t, cmd)
	assert.Equal(t, SwitchToDashboardMsg{}, cmd())
}

func TestNotes_Empty(t *testing.T) {
	m := NewNotesModel(Deps{Ctrl: newFakeController(), Store: &fakeStore{}})
	m.Update(m.Show("monthly")())

	assert.Contains(t, m.View(), "No monthly notes.")

	_, cmd := m.Update(keyPress("e"))
	assert.Nil(t, cmd)
}

func TestPaginator(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		moves      func(p *Paginator)
		wantCursor int
		wantStart  int
		wantEnd    int
	}{
		{"first page", 25, func(p *Paginator) {}, 0, 0, 10},
		{"cursor crosses page", 25, func(p *Paginator) {
			for i := 0; i < 10; i++ {
				p.CursorDown()
			}
		}, 10, 10, 20},
		{"next page twice", 25, func(p *Paginator) { p.NextPage(); p.NextPage() }, 20, 20, 25},
		{"next page at end", 5, func(p *Paginator) { p.NextPage() }, 0, 0, 5},
		{"cursor clamped", 5, func(p *Paginator) { p.SetCursor(42) }, 4, 0, 5},
		{"up at top", 5, func(p *Paginator) { p.CursorUp() }, 0, 0, 5},
		{"shrinking total", 25, func(p *Paginator) { p.SetCursor(24); p.SetTotal(3) }, 2, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginator(10)
			p.SetTotal(tt.total)
			tt.moves(p)

			start, end := p.VisibleRange()
			if p.Cursor() != tt.wantCursor || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("cursor %d range [%d,%d), want %d [%d,%d)", p.Cursor(), start, end, tt.wantCursor, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
