package domain

import "fmt"

// Trigger names what started a reconciliation pass
type Trigger string

const (
	TriggerStartup        Trigger = "startup"
	TriggerMainDailyCheck Trigger = "mainDailyCheck"
	TriggerCustomSchedule Trigger = "customScheduledTime"
	TriggerLateRun        Trigger = "lateRun"
	TriggerVisibility     Trigger = "visibility"
	TriggerManual         Trigger = "manual"
)

// OldViewAction is what happens to open views of older notes
type OldViewAction int

const (
	OldViewsKeep OldViewAction = iota
	OldViewsClose
	OldViewsUnpin
)

func (a OldViewAction) String() string {
	switch a {
	case OldViewsClose:
		return "close"
	case OldViewsUnpin:
		return "unpin"
	default:
		return "keep"
	}
}

// Policy is the fixed rule set a trigger runs with
type Policy struct {
	// Advanced lets the daily note take the advanced path when advanced
	// scheduling is enabled
	Advanced bool
	// NextPeriod honors CreateTomorrowsNote on the advanced path
	NextPeriod bool
	// CloseOlder honors CloseExisting
	CloseOlder bool
	// UnpinOlder honors UnpinOldDailyNotes
	UnpinOlder bool
}

// Policy returns the rule set for t. The custom time (and a late run that
// replaces it) prepares the next day, so it unpins instead of closing; every
// other trigger closes older notes when asked to.
func (t Trigger) Policy() Policy {
	switch t {
	case TriggerCustomSchedule, TriggerLateRun:
		return Policy{Advanced: true, NextPeriod: true, UnpinOlder: true}
	default:
		return Policy{CloseOlder: true}
	}
}

// UsesAdvancedPath reports whether periodicity p takes the advanced path
func (pol Policy) UsesAdvancedPath(p Periodicity, s Settings) bool {
	return pol.Advanced && p == Daily && s.Daily.EnableAdvancedScheduling
}

// OldViewAction resolves what to do with open views of older notes
func (pol Policy) OldViewAction(p Periodicity, s Settings) OldViewAction {
	if pol.UnpinOlder && pol.UsesAdvancedPath(p, s) && s.Daily.UnpinOldDailyNotes {
		return OldViewsUnpin
	}
	if pol.CloseOlder && s.For(p).CloseExisting {
		return OldViewsClose
	}
	return OldViewsKeep
}

// Triggers lists every trigger name
func Triggers() []Trigger {
	return []Trigger{
		TriggerStartup,
		TriggerMainDailyCheck,
		TriggerCustomSchedule,
		TriggerLateRun,
		TriggerVisibility,
		TriggerManual,
	}
}

// ParseTrigger resolves a trigger name. Matching is exact.
func ParseTrigger(s string) (Trigger, error) {
	for _, t := range Triggers() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown trigger: %s", s)
}
