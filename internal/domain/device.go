package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTimeOfDay reports whether s is a strict 24-hour HH:mm time
func ValidTimeOfDay(s string) bool {
	return timeOfDayPattern.MatchString(s)
}

// ParseTimeOfDay splits a strict HH:mm string into hour and minute
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time of day %q (expected HH:mm)", s)
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, nil
}

// AtTimeOfDay returns the instant at hour:minute on t's calendar day
func AtTimeOfDay(t time.Time, hour, minute int) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, hour, minute, 0, 0, t.Location())
}

// DeviceScheduledTime returns the custom check time for a device: its own
// override when set, else the daily fallback, else "" (not configured).
func DeviceScheduledTime(s Settings, deviceID string) string {
	if d, ok := s.DeviceSettings[deviceID]; ok && d.ScheduledTime != "" {
		return d.ScheduledTime
	}
	return s.Daily.ScheduledTime
}

// LastExecutionDate returns the date of the device's last custom run
func LastExecutionDate(s Settings, deviceID string) string {
	return s.DeviceSettings[deviceID].LastExecutionDate
}

// WithDeviceScheduledTime returns a copy with the device override set,
// creating the device entry when needed
func WithDeviceScheduledTime(s Settings, deviceID, timeOfDay string) Settings {
	c := s.Clone()
	d := c.DeviceSettings[deviceID]
	d.ScheduledTime = timeOfDay
	c.DeviceSettings[deviceID] = d
	return c
}

// WithLastExecutionDate returns a copy recording the device's last run date
func WithLastExecutionDate(s Settings, deviceID, date string) Settings {
	c := s.Clone()
	d := c.DeviceSettings[deviceID]
	d.LastExecutionDate = date
	c.DeviceSettings[deviceID] = d
	return c
}
