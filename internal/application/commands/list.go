package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"autonotes/internal/application"
	"autonotes/internal/application/notes"
	"autonotes/internal/application/orchestrator"
	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// ListNotesResult contains the known notes of one periodicity
type ListNotesResult struct {
	Periodicity domain.Periodicity
	Paths       []string
	Current     *domain.Artifact // nil when this period has no note yet
}

// ListNotesCommand lists the notes of one periodicity
type ListNotesCommand struct {
	store       ports.DocumentStore
	now         func() time.Time
	Periodicity string
}

// NewListNotesCommand creates a new ListNotesCommand
func NewListNotesCommand(store ports.DocumentStore, periodicity string) *ListNotesCommand {
	return &ListNotesCommand{
		store:       store,
		now:         time.Now,
		Periodicity: periodicity,
	}
}

// Validate checks the periodicity
func (c *ListNotesCommand) Validate() error {
	if err := application.ValidateRequired("periodicity", c.Periodicity); err != nil {
		return err
	}
	_, err := application.ValidatePeriodicity("periodicity", c.Periodicity)
	return err
}

// Execute runs the list notes command
func (c *ListNotesCommand) Execute(ctx context.Context) (*ListNotesResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p, _ := domain.ParsePeriodicity(c.Periodicity)

	provider := notes.ForPeriodicity(p, c.store)
	paths, err := provider.AllPaths(ctx)
	if err != nil {
		return nil, err
	}

	var current *domain.Artifact
	if p == domain.Daily {
		current, err = notes.NewDailyProvider(c.store).CurrentOn(ctx, c.now())
	} else {
		current, err = provider.Current(ctx, c.now())
	}
	if err != nil {
		return nil, err
	}

	return &ListNotesResult{Periodicity: p, Paths: paths, Current: current}, nil
}

// StatusCommand reports the schedule and the last pass
type StatusCommand struct {
	ctrl Controller
}

// NewStatusCommand creates a new StatusCommand
func NewStatusCommand(ctrl Controller) *StatusCommand {
	return &StatusCommand{ctrl: ctrl}
}

// Execute runs the status command
func (c *StatusCommand) Execute(ctx context.Context) (orchestrator.Status, error) {
	return c.ctrl.Status(), nil
}

// FormatStatus renders a status summary as plain text
func FormatStatus(st orchestrator.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Device: %s\n", st.DeviceID)
	for _, t := range st.Timers {
		fmt.Fprintf(&sb, "Timer %s: %s at %s (next %s)\n",
			t.Name, t.State, t.TimeOfDay, t.Target.Format(time.DateTime))
	}
	if st.NextCustom.IsZero() {
		sb.WriteString("Custom check: off\n")
	} else {
		fmt.Fprintf(&sb, "Custom check: %s\n", st.NextCustom.Format(time.DateTime))
	}
	last := st.LastExecution
	if last == "" {
		last = "never"
	}
	fmt.Fprintf(&sb, "Last custom run: %s\n", last)

	if st.LastReport != nil {
		fmt.Fprintf(&sb, "Last pass: %s at %s\n", st.LastReport.Trigger, st.LastReport.Started.Format(time.DateTime))
		for _, o := range st.LastReport.Outcomes {
			fmt.Fprintf(&sb, "  %s\n", DescribeOutcome(o))
		}
	}
	return sb.String()
}
