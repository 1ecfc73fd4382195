package domain

import "testing"

func TestTriggerPolicy(t *testing.T) {
	tests := []struct {
		trigger Trigger
		want    Policy
	}{
		{TriggerStartup, Policy{CloseOlder: true}},
		{TriggerMainDailyCheck, Policy{CloseOlder: true}},
		{TriggerManual, Policy{CloseOlder: true}},
		{TriggerVisibility, Policy{CloseOlder: true}},
		{TriggerCustomSchedule, Policy{Advanced: true, NextPeriod: true, UnpinOlder: true}},
		{TriggerLateRun, Policy{Advanced: true, NextPeriod: true, UnpinOlder: true}},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			if got := tt.trigger.Policy(); got != tt.want {
				t.Errorf("Policy() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPolicy_OldViewAction(t *testing.T) {
	advanced := DefaultSettings()
	advanced.Daily.EnableAdvancedScheduling = true
	advanced.Daily.UnpinOldDailyNotes = true
	advanced.Daily.CloseExisting = true
	advanced.Weekly.CloseExisting = true

	plain := DefaultSettings()
	plain.Daily.CloseExisting = true

	tests := []struct {
		name     string
		trigger  Trigger
		p        Periodicity
		settings Settings
		want     OldViewAction
	}{
		{"startup closes", TriggerStartup, Daily, plain, OldViewsClose},
		{"startup keeps when not asked", TriggerStartup, Weekly, plain, OldViewsKeep},
		{"custom time unpins daily", TriggerCustomSchedule, Daily, advanced, OldViewsUnpin},
		{"custom time keeps weekly", TriggerCustomSchedule, Weekly, advanced, OldViewsKeep},
		{"custom time without advanced keeps", TriggerCustomSchedule, Daily, plain, OldViewsKeep},
		{"late run unpins daily", TriggerLateRun, Daily, advanced, OldViewsUnpin},
		{"main check closes even with advanced", TriggerMainDailyCheck, Daily, advanced, OldViewsClose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.trigger.Policy().OldViewAction(tt.p, tt.settings)
			if got != tt.want {
				t.Errorf("OldViewAction = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseTrigger(t *testing.T) {
	for _, want := range Triggers() {
		got, err := ParseTrigger(string(want))
		if err != nil || got != want {
			t.Errorf("ParseTrigger(%q) = %q, %v", want, got, err)
		}
	}

	for _, bad := range []string{"", "Manual", "late-run"} {
		if _, err := ParseTrigger(bad); err == nil {
			t.Errorf("ParseTrigger(%q) expected error", bad)
		}
	}
}
