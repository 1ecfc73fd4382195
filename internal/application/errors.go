package application

import (
	"errors"
	"fmt"

	"autonotes/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound          = errors.New("not found")
	ErrScheduleDisabled  = errors.New("schedule disabled")
	ErrInvalidTimeOfDay  = errors.New("invalid time of day")
	ErrNoDeviceID        = errors.New("no device id")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrPassAlreadyActive = errors.New("reconciliation pass already active")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PeriodicityError is a failure while reconciling one periodicity
type PeriodicityError struct {
	Periodicity domain.Periodicity
	Op          string
	Err         error
}

func (e *PeriodicityError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Periodicity, e.Op, e.Err)
}

func (e *PeriodicityError) Unwrap() error {
	return e.Err
}
