package commands

import (
	"context"
	"fmt"
	"sort"

	"autonotes/internal/application"
	"autonotes/internal/domain"
)

type optionScope int

const (
	scopeGlobal optionScope = iota
	scopePeriodicity
	scopeDaily
)

type option struct {
	scope optionScope
	set   func(s *domain.Settings, p domain.Periodicity, v bool)
}

func periodicityOption(set func(ps *domain.PeriodicitySettings, v bool)) option {
	return option{
		scope: scopePeriodicity,
		set: func(s *domain.Settings, p domain.Periodicity, v bool) {
			ps := s.For(p)
			set(&ps, v)
			s.Set(p, ps)
		},
	}
}

func dailyOption(set func(d *domain.DailySettings, v bool)) option {
	return option{
		scope: scopeDaily,
		set:   func(s *domain.Settings, _ domain.Periodicity, v bool) { set(&s.Daily, v) },
	}
}

func globalOption(set func(s *domain.Settings, v bool)) option {
	return option{
		scope: scopeGlobal,
		set:   func(s *domain.Settings, _ domain.Periodicity, v bool) { set(s, v) },
	}
}

var options = map[string]option{
	"enabled":       periodicityOption(func(ps *domain.PeriodicitySettings, v bool) { ps.Enabled = v }),
	"open":          periodicityOption(func(ps *domain.PeriodicitySettings, v bool) { ps.Open = v }),
	"pin":           periodicityOption(func(ps *domain.PeriodicitySettings, v bool) { ps.Pin = v }),
	"closeExisting": periodicityOption(func(ps *domain.PeriodicitySettings, v bool) { ps.CloseExisting = v }),

	"excludeWeekends":          dailyOption(func(d *domain.DailySettings, v bool) { d.ExcludeWeekends = v }),
	"openAtFirstPosition":      dailyOption(func(d *domain.DailySettings, v bool) { d.OpenAtFirstPosition = v }),
	"enableAdvancedScheduling": dailyOption(func(d *domain.DailySettings, v bool) { d.EnableAdvancedScheduling = v }),
	"createTomorrowsNote":      dailyOption(func(d *domain.DailySettings, v bool) { d.CreateTomorrowsNote = v }),
	"unpinOldDailyNotes":       dailyOption(func(d *domain.DailySettings, v bool) { d.UnpinOldDailyNotes = v }),

	"alwaysOpen":       globalOption(func(s *domain.Settings, v bool) { s.AlwaysOpen = v }),
	"processTemplater": globalOption(func(s *domain.Settings, v bool) { s.ProcessTemplater = v }),
	"debug":            globalOption(func(s *domain.Settings, v bool) { s.Debug = v }),
	"gitCommit":        globalOption(func(s *domain.Settings, v bool) { s.GitCommit = v }),
}

// OptionNames returns every option SetOptionCommand accepts, sorted
func OptionNames() []string {
	names := make([]string, 0, len(options))
	for name := range options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetOptionResult contains the result of changing one option
type SetOptionResult struct {
	Settings domain.Settings
	Message  string
}

// SetOptionCommand flips one boolean setting. Global options take no
// periodicity; daily-only options require "daily".
type SetOptionCommand struct {
	ctrl        Controller
	Periodicity string
	Option      string
	Value       bool
}

// NewSetOptionCommand creates a new SetOptionCommand
func NewSetOptionCommand(ctrl Controller, periodicity, opt string, value bool) *SetOptionCommand {
	return &SetOptionCommand{
		ctrl:        ctrl,
		Periodicity: periodicity,
		Option:      opt,
		Value:       value,
	}
}

// Validate checks that the option exists and fits the periodicity
func (c *SetOptionCommand) Validate() error {
	if err := application.ValidateRequired("option", c.Option); err != nil {
		return err
	}
	opt, ok := options[c.Option]
	if !ok {
		return &application.ValidationError{
			Field:   "option",
			Message: fmt.Sprintf("unknown option: %s", c.Option),
		}
	}

	switch opt.scope {
	case scopeGlobal:
		if c.Periodicity != "" {
			return &application.ValidationError{
				Field:   "periodicity",
				Message: fmt.Sprintf("%s is a global option", c.Option),
			}
		}
	case scopePeriodicity:
		if _, err := application.ValidatePeriodicity("periodicity", c.Periodicity); err != nil {
			return err
		}
	case scopeDaily:
		p, err := application.ValidatePeriodicity("periodicity", c.Periodicity)
		if err != nil {
			return err
		}
		if p != domain.Daily {
			return &application.ValidationError{
				Field:   "periodicity",
				Message: fmt.Sprintf("%s only applies to daily notes", c.Option),
			}
		}
	}
	return nil
}

// Execute applies the option through the settings update path
func (c *SetOptionCommand) Execute(ctx context.Context) (*SetOptionResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var p domain.Periodicity
	name := c.Option
	if c.Periodicity != "" {
		p, _ = domain.ParsePeriodicity(c.Periodicity)
		name = p.String() + "." + c.Option
	}

	s := c.ctrl.Settings()
	options[c.Option].set(&s, p, c.Value)
	if err := c.ctrl.UpdateSettings(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	msg := fmt.Sprintf("Set %s = %v", name, c.Value)
	if c.Periodicity != "" && c.Value && !s.For(p).Available {
		msg += fmt.Sprintf(" (no %s folder configured)", p)
	}
	return &SetOptionResult{Settings: s, Message: msg}, nil
}
