package application

import (
	"fmt"
	"strings"

	"autonotes/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "deviceID" -> "device ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"deviceID":      "device ID",
		"timeOfDay":     "time of day",
		"scheduledTime": "scheduled time",
		"periodicity":   "periodicity",
		"trigger":       "trigger",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateTimeOfDay checks that value is a strict 24-hour HH:mm time.
// The error matches both ErrInvalidTimeOfDay and *ValidationError.
func ValidateTimeOfDay(fieldName, value string) error {
	if !domain.ValidTimeOfDay(value) {
		return fmt.Errorf("%w: %w", ErrInvalidTimeOfDay, &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected HH:mm, got: %q", value),
		})
	}
	return nil
}

// ValidatePeriodicity checks that value names a periodicity
func ValidatePeriodicity(fieldName, value string) (domain.Periodicity, error) {
	p, err := domain.ParsePeriodicity(value)
	if err != nil {
		return 0, &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected one of yearly, quarterly, monthly, weekly, daily, got: %q", value),
		}
	}
	return p, nil
}
