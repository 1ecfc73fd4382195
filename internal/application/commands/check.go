package commands

import (
	"context"
	"fmt"
	"strings"

	"autonotes/internal/application"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/domain"
)

// CheckResult contains the result of a reconciliation pass
type CheckResult struct {
	Report  *reconcile.Report
	Created []string
	Message string
}

// CheckCommand runs one reconciliation pass on demand
type CheckCommand struct {
	ctrl    Controller
	Trigger string
}

// NewCheckCommand creates a new CheckCommand. An empty trigger runs a
// manual pass.
func NewCheckCommand(ctrl Controller, trigger string) *CheckCommand {
	return &CheckCommand{
		ctrl:    ctrl,
		Trigger: trigger,
	}
}

// Validate checks the trigger name
func (c *CheckCommand) Validate() error {
	if c.Trigger == "" {
		return nil
	}
	if _, err := domain.ParseTrigger(c.Trigger); err != nil {
		return &application.ValidationError{
			Field:   "trigger",
			Message: err.Error(),
		}
	}
	return nil
}

// Execute runs the pass. Per-periodicity failures are returned joined
// together with the result.
func (c *CheckCommand) Execute(ctx context.Context) (*CheckResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	trigger := domain.TriggerManual
	if c.Trigger != "" {
		trigger = domain.Trigger(c.Trigger)
	}

	report := c.ctrl.Check(ctx, trigger)
	created := report.Created()

	result := &CheckResult{
		Report:  report,
		Created: created,
		Message: summarize(report),
	}
	if err := report.Err(); err != nil {
		return result, fmt.Errorf("check failed: %w", err)
	}
	return result, nil
}

func summarize(r *reconcile.Report) string {
	var parts []string
	for _, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			parts = append(parts, fmt.Sprintf("%s: failed", o.Periodicity))
		case o.Created:
			parts = append(parts, fmt.Sprintf("%s: created %s", o.Periodicity, o.Target))
		case o.Opened:
			parts = append(parts, fmt.Sprintf("%s: opened %s", o.Periodicity, o.Target))
		}
	}
	if len(parts) == 0 {
		return "Nothing to do"
	}
	return strings.Join(parts, "\n")
}

// DescribeOutcome renders one periodicity's outcome on a single line
func DescribeOutcome(o reconcile.Outcome) string {
	if o.Err != nil {
		return fmt.Sprintf("%s: failed: %v", o.Periodicity, o.Err)
	}
	if o.Skipped != "" {
		return fmt.Sprintf("%s: skipped (%s)", o.Periodicity, o.Skipped)
	}

	var parts []string
	if o.Created {
		parts = append(parts, "created "+o.Target)
	}
	if len(o.Closed) > 0 {
		parts = append(parts, fmt.Sprintf("closed %d", len(o.Closed)))
	}
	if len(o.Unpinned) > 0 {
		parts = append(parts, fmt.Sprintf("unpinned %d", len(o.Unpinned)))
	}
	if o.Opened {
		verb := "opened "
		if o.Pinned {
			verb = "opened and pinned "
		}
		parts = append(parts, verb+o.Target)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s: up to date", o.Periodicity)
	}
	return fmt.Sprintf("%s: %s", o.Periodicity, strings.Join(parts, ", "))
}
