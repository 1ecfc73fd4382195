package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_Empty(t *testing.T) {
	got := ApplyDefaults(nil)
	want := DefaultSettings()

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ApplyDefaults(nil) mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, got.DeviceSettings)
	assert.Equal(t, "22:00", got.Daily.ScheduledTime)
}

func TestApplyDefaults_FillsNewFieldsFromOlderBlob(t *testing.T) {
	// A blob persisted before the advanced scheduling fields existed
	raw := RawSettings{
		"alwaysOpen": true,
		"daily": map[string]any{
			"available": true,
			"enabled":   true,
			"open":      true,
		},
	}

	got := ApplyDefaults(raw)

	assert.True(t, got.AlwaysOpen)
	assert.True(t, got.Daily.Available)
	assert.True(t, got.Daily.Enabled)
	assert.True(t, got.Daily.Open)
	assert.False(t, got.Daily.EnableAdvancedScheduling)
	assert.Equal(t, DefaultScheduledTime, got.Daily.ScheduledTime)
	assert.Equal(t, DefaultGitCommitMessage, got.GitCommitMessage)
	assert.False(t, got.Weekly.Enabled)
}

func TestApplyDefaults_MalformedFieldsAreAbsent(t *testing.T) {
	raw := RawSettings{
		"alwaysOpen":     "yes",
		"daily":          []any{1, 2, 3},
		"weekly":         map[string]any{"enabled": 1, "closeExisting": true},
		"deviceSettings": map[string]any{"laptop": "22:30", "desktop": map[string]any{"scheduledTime": 7}},
	}

	got := ApplyDefaults(raw)

	assert.False(t, got.AlwaysOpen)
	assert.Equal(t, DefaultSettings().Daily, got.Daily)
	assert.False(t, got.Weekly.Enabled)
	assert.True(t, got.Weekly.CloseExisting)
	assert.NotContains(t, got.DeviceSettings, "laptop")
	require.Contains(t, got.DeviceSettings, "desktop")
	assert.Equal(t, "", got.DeviceSettings["desktop"].ScheduledTime)
}

func TestApplyDefaults_DeviceSettingsNotMergedWithDefaults(t *testing.T) {
	raw := RawSettings{
		"deviceSettings": map[string]any{
			"laptop": map[string]any{"scheduledTime": "21:15", "lastExecutionDate": "2025-01-01"},
		},
	}

	got := ApplyDefaults(raw)

	want := map[string]DeviceSettings{
		"laptop": {ScheduledTime: "21:15", LastExecutionDate: "2025-01-01"},
	}
	if diff := cmp.Diff(want, got.DeviceSettings); diff != "" {
		t.Errorf("device settings mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	inputs := []RawSettings{
		nil,
		{},
		{"debug": true, "yearly": map[string]any{"enabled": true}},
		{
			"gitCommit":        true,
			"gitCommitMessage": "backup {DATE}",
			"daily": map[string]any{
				"enabled":                  true,
				"enableAdvancedScheduling": true,
				"scheduledTime":            "",
			},
			"deviceSettings": map[string]any{
				"a": map[string]any{"scheduledTime": "06:00"},
			},
		},
	}

	for i, raw := range inputs {
		once := ApplyDefaults(raw)
		twice := ApplyDefaults(once.Raw())
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("input %d: not idempotent (-once +twice):\n%s", i, diff)
		}
	}
}

func TestMigrateDeprecated(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawSettings
		wantOpen bool
		wantPin  bool
	}{
		{
			name:     "legacy true copied into both",
			raw:      RawSettings{"daily": map[string]any{"openAndPin": true}},
			wantOpen: true,
			wantPin:  true,
		},
		{
			name:     "legacy false stays false",
			raw:      RawSettings{"daily": map[string]any{"openAndPin": false}},
			wantOpen: false,
			wantPin:  false,
		},
		{
			name:     "explicit replacement wins",
			raw:      RawSettings{"daily": map[string]any{"openAndPin": false, "open": true}},
			wantOpen: true,
			wantPin:  false,
		},
		{
			name:     "replacement at default is overwritten",
			raw:      RawSettings{"daily": map[string]any{"openAndPin": true, "open": false, "pin": false}},
			wantOpen: true,
			wantPin:  true,
		},
		{
			name:     "mistyped legacy is dropped",
			raw:      RawSettings{"daily": map[string]any{"openAndPin": "true"}},
			wantOpen: false,
			wantPin:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			migrated := MigrateDeprecated(tt.raw)

			daily, ok := migrated["daily"].(map[string]any)
			require.True(t, ok)
			assert.NotContains(t, daily, "openAndPin")

			s := ApplyDefaults(migrated)
			assert.Equal(t, tt.wantOpen, s.Daily.Open)
			assert.Equal(t, tt.wantPin, s.Daily.Pin)
		})
	}
}

func TestMigrateDeprecated_DoesNotMutateInput(t *testing.T) {
	daily := map[string]any{"openAndPin": true}
	raw := RawSettings{"daily": daily}

	MigrateDeprecated(raw)

	assert.Contains(t, daily, "openAndPin")
	assert.NotContains(t, daily, "open")
}

func TestMigrateDeprecated_NoLegacyIsNoop(t *testing.T) {
	raw := RawSettings{
		"alwaysOpen": true,
		"weekly":     map[string]any{"open": true, "pin": false},
		"unknown":    42,
	}

	got := MigrateDeprecated(raw)

	if diff := cmp.Diff(raw, got); diff != "" {
		t.Errorf("migration changed settings without legacy field (-want +got):\n%s", diff)
	}
}

func TestMigrateDeprecated_Idempotent(t *testing.T) {
	raw := RawSettings{
		"monthly": map[string]any{"openAndPin": true},
		"daily":   map[string]any{"openAndPin": true, "pin": true},
	}

	once := MigrateDeprecated(raw)
	twice := MigrateDeprecated(once)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second migration changed result (-once +twice):\n%s", diff)
	}
}

func TestDecodeRawSettings(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		wantLen int
	}{
		{"empty", "", false, 0},
		{"object", `{"debug": true}`, false, 1},
		{"array", `[1,2]`, true, 0},
		{"garbage", `{not json`, true, 0},
		{"null", `null`, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := DecodeRawSettings([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NotNil(t, raw)
			assert.Len(t, raw, tt.wantLen)
		})
	}
}

func TestWithAvailability(t *testing.T) {
	s := DefaultSettings()
	s.Daily.Enabled = true

	got := s.WithAvailability(map[Periodicity]bool{Daily: true, Monthly: true})

	assert.True(t, got.Daily.Available)
	assert.True(t, got.Daily.Enabled)
	assert.True(t, got.Monthly.Available)
	assert.False(t, got.Yearly.Available)
	assert.False(t, s.Daily.Available, "original must not change")
}

func TestShouldPin_RequiresOpen(t *testing.T) {
	assert.False(t, PeriodicitySettings{Pin: true}.ShouldPin())
	assert.True(t, PeriodicitySettings{Open: true, Pin: true}.ShouldPin())
	assert.False(t, PeriodicitySettings{Open: true}.ShouldPin())
}
