// Package commands holds the user-facing operations shared by the CLI, the
// MCP server and the dashboard.
package commands

import (
	"context"

	"autonotes/internal/application/orchestrator"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/domain"
)

// Controller is the part of the orchestrator commands drive
type Controller interface {
	Settings() domain.Settings
	UpdateSettings(ctx context.Context, s domain.Settings) error
	SetDeviceScheduledTime(ctx context.Context, timeOfDay string) error
	Check(ctx context.Context, trigger domain.Trigger) *reconcile.Report
	Status() orchestrator.Status
}

var _ Controller = (*orchestrator.Orchestrator)(nil)
