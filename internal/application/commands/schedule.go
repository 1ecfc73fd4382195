package commands

import (
	"context"
	"fmt"

	"autonotes/internal/application"
)

// SetScheduledTimeResult contains the result of changing the device schedule
type SetScheduledTimeResult struct {
	DeviceID  string
	TimeOfDay string
	Message   string
}

// SetScheduledTimeCommand sets or clears this device's custom check time
type SetScheduledTimeCommand struct {
	ctrl      Controller
	TimeOfDay string
	Clear     bool
}

// NewSetScheduledTimeCommand creates a new SetScheduledTimeCommand
func NewSetScheduledTimeCommand(ctrl Controller, timeOfDay string, clearTime bool) *SetScheduledTimeCommand {
	return &SetScheduledTimeCommand{
		ctrl:      ctrl,
		TimeOfDay: timeOfDay,
		Clear:     clearTime,
	}
}

// Validate checks the time of day
func (c *SetScheduledTimeCommand) Validate() error {
	if c.Clear {
		if c.TimeOfDay != "" {
			return &application.ValidationError{
				Field:   "timeOfDay",
				Message: "cannot set and clear the scheduled time at once",
			}
		}
		return nil
	}
	if err := application.ValidateRequired("timeOfDay", c.TimeOfDay); err != nil {
		return err
	}
	return application.ValidateTimeOfDay("timeOfDay", c.TimeOfDay)
}

// Execute stores the time and re-arms the custom schedule
func (c *SetScheduledTimeCommand) Execute(ctx context.Context) (*SetScheduledTimeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tod := c.TimeOfDay
	if c.Clear {
		tod = ""
	}
	if err := c.ctrl.SetDeviceScheduledTime(ctx, tod); err != nil {
		return nil, fmt.Errorf("failed to set scheduled time: %w", err)
	}

	st := c.ctrl.Status()
	msg := fmt.Sprintf("Scheduled time for %s set to %s", st.DeviceID, tod)
	if c.Clear {
		msg = fmt.Sprintf("Scheduled time for %s cleared", st.DeviceID)
	}
	if !st.Settings.Daily.EnableAdvancedScheduling {
		msg += " (advanced scheduling is off)"
	}

	return &SetScheduledTimeResult{
		DeviceID:  st.DeviceID,
		TimeOfDay: tod,
		Message:   msg,
	}, nil
}
