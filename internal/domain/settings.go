package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

// DefaultScheduledTime is the fallback custom check time
const DefaultScheduledTime = "22:00"

// DefaultGitCommitMessage is used when no commit message was configured.
// {DATE} is replaced with the commit date.
const DefaultGitCommitMessage = "Vault backup {DATE}"

// legacyOpenAndPin is the combined flag older versions persisted
const legacyOpenAndPin = "openAndPin"

// PeriodicitySettings holds the per-periodicity preferences
type PeriodicitySettings struct {
	Available     bool `json:"available"` // the store has this periodicity configured
	Enabled       bool `json:"enabled"`   // the user wants automatic creation
	CloseExisting bool `json:"closeExisting"`
	Open          bool `json:"open"`
	Pin           bool `json:"pin"`
}

// Active reports whether notes of this periodicity should be managed at all
func (p PeriodicitySettings) Active() bool {
	return p.Available && p.Enabled
}

// ShouldPin reports whether a freshly opened view gets pinned.
// Pinning without opening is never honored.
func (p PeriodicitySettings) ShouldPin() bool {
	return p.Open && p.Pin
}

// DailySettings extends PeriodicitySettings with daily-only options
type DailySettings struct {
	PeriodicitySettings
	ExcludeWeekends          bool   `json:"excludeWeekends"`
	OpenAtFirstPosition      bool   `json:"openAtFirstPosition"`
	EnableAdvancedScheduling bool   `json:"enableAdvancedScheduling"`
	ScheduledTime            string `json:"scheduledTime"` // fallback when the device has none
	CreateTomorrowsNote      bool   `json:"createTomorrowsNote"`
	UnpinOldDailyNotes       bool   `json:"unpinOldDailyNotes"`
}

// DeviceSettings is the per-device schedule state
type DeviceSettings struct {
	ScheduledTime     string `json:"scheduledTime"`
	LastExecutionDate string `json:"lastExecutionDate,omitempty"` // YYYY-MM-DD
}

// Settings is the complete, defaults-applied configuration
type Settings struct {
	AlwaysOpen       bool                      `json:"alwaysOpen"`
	ProcessTemplater bool                      `json:"processTemplater"`
	Debug            bool                      `json:"debug"`
	GitCommit        bool                      `json:"gitCommit"`
	GitCommitMessage string                    `json:"gitCommitMessage"`
	Daily            DailySettings             `json:"daily"`
	Weekly           PeriodicitySettings       `json:"weekly"`
	Monthly          PeriodicitySettings       `json:"monthly"`
	Quarterly        PeriodicitySettings       `json:"quarterly"`
	Yearly           PeriodicitySettings       `json:"yearly"`
	DeviceSettings   map[string]DeviceSettings `json:"deviceSettings"`
}

// RawSettings is the persisted settings blob as decoded JSON.
// Its shape is not trusted.
type RawSettings map[string]any

// DefaultSettings returns a fresh copy of the compiled-in defaults
func DefaultSettings() Settings {
	return Settings{
		GitCommitMessage: DefaultGitCommitMessage,
		Daily: DailySettings{
			ScheduledTime: DefaultScheduledTime,
		},
		DeviceSettings: map[string]DeviceSettings{},
	}
}

// For returns the shared settings of periodicity p
func (s Settings) For(p Periodicity) PeriodicitySettings {
	switch p {
	case Yearly:
		return s.Yearly
	case Quarterly:
		return s.Quarterly
	case Monthly:
		return s.Monthly
	case Weekly:
		return s.Weekly
	default:
		return s.Daily.PeriodicitySettings
	}
}

// Set replaces the shared settings of periodicity p
func (s *Settings) Set(p Periodicity, ps PeriodicitySettings) {
	switch p {
	case Yearly:
		s.Yearly = ps
	case Quarterly:
		s.Quarterly = ps
	case Monthly:
		s.Monthly = ps
	case Weekly:
		s.Weekly = ps
	default:
		s.Daily.PeriodicitySettings = ps
	}
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	c := s
	c.DeviceSettings = make(map[string]DeviceSettings, len(s.DeviceSettings))
	maps.Copy(c.DeviceSettings, s.DeviceSettings)
	return c
}

// WithAvailability copies the store's availability flags into the settings
func (s Settings) WithAvailability(available map[Periodicity]bool) Settings {
	c := s.Clone()
	for _, p := range AllPeriodicities() {
		ps := c.For(p)
		ps.Available = available[p]
		c.Set(p, ps)
	}
	return c
}

// LoadSettings migrates and default-fills a persisted blob
func LoadSettings(raw RawSettings) Settings {
	return ApplyDefaults(MigrateDeprecated(raw))
}

// DecodeRawSettings decodes a persisted blob. Anything that is not a JSON
// object yields an empty blob together with the decode error, so callers can
// log it and carry on with defaults.
func DecodeRawSettings(data []byte) (RawSettings, error) {
	if len(data) == 0 {
		return RawSettings{}, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return RawSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return RawSettings{}, fmt.Errorf("decode settings: expected object, got %T", v)
	}
	return RawSettings(obj), nil
}

// ApplyDefaults fills every missing or mistyped field from the defaults.
// Periodicity objects are merged field by field; device settings default to
// an empty map and are never merged with default keys.
func ApplyDefaults(raw RawSettings) Settings {
	def := DefaultSettings()

	s := Settings{
		AlwaysOpen:       boolField(raw, "alwaysOpen", def.AlwaysOpen),
		ProcessTemplater: boolField(raw, "processTemplater", def.ProcessTemplater),
		Debug:            boolField(raw, "debug", def.Debug),
		GitCommit:        boolField(raw, "gitCommit", def.GitCommit),
		GitCommitMessage: stringField(raw, "gitCommitMessage", def.GitCommitMessage),
		Weekly:           periodicityFrom(objectField(raw, "weekly"), def.Weekly),
		Monthly:          periodicityFrom(objectField(raw, "monthly"), def.Monthly),
		Quarterly:        periodicityFrom(objectField(raw, "quarterly"), def.Quarterly),
		Yearly:           periodicityFrom(objectField(raw, "yearly"), def.Yearly),
		DeviceSettings:   devicesFrom(objectField(raw, "deviceSettings")),
	}

	daily := objectField(raw, "daily")
	s.Daily = DailySettings{
		PeriodicitySettings:      periodicityFrom(daily, def.Daily.PeriodicitySettings),
		ExcludeWeekends:          boolField(daily, "excludeWeekends", def.Daily.ExcludeWeekends),
		OpenAtFirstPosition:      boolField(daily, "openAtFirstPosition", def.Daily.OpenAtFirstPosition),
		EnableAdvancedScheduling: boolField(daily, "enableAdvancedScheduling", def.Daily.EnableAdvancedScheduling),
		ScheduledTime:            stringField(daily, "scheduledTime", def.Daily.ScheduledTime),
		CreateTomorrowsNote:      boolField(daily, "createTomorrowsNote", def.Daily.CreateTomorrowsNote),
		UnpinOldDailyNotes:       boolField(daily, "unpinOldDailyNotes", def.Daily.UnpinOldDailyNotes),
	}

	return s
}

// MigrateDeprecated rewrites the legacy openAndPin flag into open and pin.
// The value is only copied when both replacements are absent or still at
// their default; the legacy key is always dropped. The input is not modified.
func MigrateDeprecated(raw RawSettings) RawSettings {
	out := make(RawSettings, len(raw))
	maps.Copy(out, raw)

	for _, p := range AllPeriodicities() {
		obj, ok := out[p.String()].(map[string]any)
		if !ok {
			continue
		}
		legacyValue, present := obj[legacyOpenAndPin]
		if !present {
			continue
		}

		migrated := make(map[string]any, len(obj))
		maps.Copy(migrated, obj)
		delete(migrated, legacyOpenAndPin)

		if legacy, ok := legacyValue.(bool); ok && isDefaultBool(obj, "open") && isDefaultBool(obj, "pin") {
			migrated["open"] = legacy
			migrated["pin"] = legacy
		}
		out[p.String()] = migrated
	}

	return out
}

// Raw converts the settings back into the persisted shape
func (s Settings) Raw() RawSettings {
	devices := make(map[string]any, len(s.DeviceSettings))
	for id, d := range s.DeviceSettings {
		entry := map[string]any{"scheduledTime": d.ScheduledTime}
		if d.LastExecutionDate != "" {
			entry["lastExecutionDate"] = d.LastExecutionDate
		}
		devices[id] = entry
	}

	daily := s.Daily.PeriodicitySettings.raw()
	daily["excludeWeekends"] = s.Daily.ExcludeWeekends
	daily["openAtFirstPosition"] = s.Daily.OpenAtFirstPosition
	daily["enableAdvancedScheduling"] = s.Daily.EnableAdvancedScheduling
	daily["scheduledTime"] = s.Daily.ScheduledTime
	daily["createTomorrowsNote"] = s.Daily.CreateTomorrowsNote
	daily["unpinOldDailyNotes"] = s.Daily.UnpinOldDailyNotes

	return RawSettings{
		"alwaysOpen":       s.AlwaysOpen,
		"processTemplater": s.ProcessTemplater,
		"debug":            s.Debug,
		"gitCommit":        s.GitCommit,
		"gitCommitMessage": s.GitCommitMessage,
		"daily":            daily,
		"weekly":           s.Weekly.raw(),
		"monthly":          s.Monthly.raw(),
		"quarterly":        s.Quarterly.raw(),
		"yearly":           s.Yearly.raw(),
		"deviceSettings":   devices,
	}
}

func (p PeriodicitySettings) raw() map[string]any {
	return map[string]any{
		"available":     p.Available,
		"enabled":       p.Enabled,
		"closeExisting": p.CloseExisting,
		"open":          p.Open,
		"pin":           p.Pin,
	}
}

func periodicityFrom(obj map[string]any, def PeriodicitySettings) PeriodicitySettings {
	return PeriodicitySettings{
		Available:     boolField(obj, "available", def.Available),
		Enabled:       boolField(obj, "enabled", def.Enabled),
		CloseExisting: boolField(obj, "closeExisting", def.CloseExisting),
		Open:          boolField(obj, "open", def.Open),
		Pin:           boolField(obj, "pin", def.Pin),
	}
}

func devicesFrom(obj map[string]any) map[string]DeviceSettings {
	devices := make(map[string]DeviceSettings, len(obj))
	for id, v := range obj {
		entry, ok := v.(map[string]any)
		if !ok || id == "" {
			continue
		}
		devices[id] = DeviceSettings{
			ScheduledTime:     stringField(entry, "scheduledTime", ""),
			LastExecutionDate: stringField(entry, "lastExecutionDate", ""),
		}
	}
	return devices
}

func objectField(m map[string]any, key string) map[string]any {
	if obj, ok := m[key].(map[string]any); ok {
		return obj
	}
	if obj, ok := m[key].(RawSettings); ok {
		return obj
	}
	return nil
}

func boolField(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func stringField(m map[string]any, key string, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func isDefaultBool(m map[string]any, key string) bool {
	v, ok := m[key].(bool)
	return !ok || !v
}
