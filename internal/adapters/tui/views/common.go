package views

import (
	"context"
	"time"

	"autonotes/internal/application/commands"
	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// NoticeSource exposes the most recent user notices
type NoticeSource interface {
	Messages() []string
}

// Deps are the collaborators the views drive
type Deps struct {
	Ctrl      commands.Controller
	Store     ports.DocumentStore
	Notices   NoticeSource
	Editor    ports.EditorOpener   // nil disables editing
	Obsidian  ports.ObsidianOpener // nil disables launching
	VaultPath string
	Timeout   time.Duration // per command, defaults to a minute
}

func (d Deps) commandContext() (context.Context, context.CancelFunc) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return context.WithTimeout(context.Background(), timeout)
}

// displayOrder lists periodicities finest first
var displayOrder = []domain.Periodicity{domain.Daily, domain.Weekly, domain.Monthly, domain.Quarterly, domain.Yearly}

// Navigation messages
type (
	SwitchToDashboardMsg struct{}
	SwitchToNotesMsg     struct{ Periodicity string }
	SwitchToHelpMsg      struct{}
	OpenEditorMsg        struct{ Path string }
)
