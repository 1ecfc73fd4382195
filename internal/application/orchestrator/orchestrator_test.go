package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"autonotes/internal/application"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/application/scheduler"
	"autonotes/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const device = "laptop"

type fakeSettingsStore struct {
	mu      sync.Mutex
	raw     domain.RawSettings
	loadErr error
	saveErr error
	saves   int
}

func (s *fakeSettingsStore) Load(context.Context) (domain.RawSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.raw, nil
}

func (s *fakeSettingsStore) Save(_ context.Context, raw domain.RawSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.raw = raw
	s.saves++
	return nil
}

func (s *fakeSettingsStore) saved() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.LoadSettings(s.raw)
}

type fakeReconciler struct {
	mu       sync.Mutex
	triggers []domain.Trigger
	fail     map[domain.Trigger]error
	delay    time.Duration
	active   atomic.Int32
	maxSeen  atomic.Int32
}

func (r *fakeReconciler) Run(_ context.Context, _ domain.Settings, trigger domain.Trigger) *reconcile.Report {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		prev := r.maxSeen.Load()
		if n <= prev || r.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	report := &reconcile.Report{Trigger: trigger}
	if err := r.fail[trigger]; err != nil {
		report.Outcomes = append(report.Outcomes, reconcile.Outcome{Periodicity: domain.Daily, Err: err})
	}
	return report
}

func (r *fakeReconciler) seen() []domain.Trigger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Trigger(nil), r.triggers...)
}

type fakeVisibility struct {
	fn      func()
	removed bool
}

func (v *fakeVisibility) OnVisible(fn func()) func() {
	v.fn = fn
	return func() { v.removed = true }
}

type fakeAvailability map[domain.Periodicity]bool

func (a fakeAvailability) Available() map[domain.Periodicity]bool { return a }

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

type fixture struct {
	clock      clockwork.FakeClock
	sched      *scheduler.Scheduler
	store      *fakeSettingsStore
	engine     *fakeReconciler
	visibility *fakeVisibility
	orch       *Orchestrator
}

func newFixture(t *testing.T, now time.Time, s domain.Settings, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:      clockwork.NewFakeClockAt(now),
		store:      &fakeSettingsStore{raw: s.Raw()},
		engine:     &fakeReconciler{fail: map[domain.Trigger]error{}},
		visibility: &fakeVisibility{},
	}
	logger := zaptest.NewLogger(t)
	f.sched = scheduler.New(logger, scheduler.WithClock(f.clock))
	base := []Option{WithLogger(logger), WithVisibility(f.visibility)}
	f.orch = New(device, f.store, f.engine, f.sched, append(base, opts...)...)
	t.Cleanup(f.orch.Stop)
	return f
}

// waitForTarget blocks until the fire delivered by the clock has been handled
// and timer is armed for want
func (f *fixture) waitForTarget(t *testing.T, timer string, want time.Time) {
	t.Helper()
	require.Eventually(t, func() bool {
		info := f.sched.Timer(timer)
		return info.State == scheduler.StateArmed && info.Target.Equal(want)
	}, time.Second, time.Millisecond, "%s never armed for %v", timer, want)
	f.sched.Wait()
}

func advanced(tod, lastRun string) domain.Settings {
	s := domain.DefaultSettings()
	s.Daily.EnableAdvancedScheduling = true
	s.DeviceSettings[device] = domain.DeviceSettings{ScheduledTime: tod, LastExecutionDate: lastRun}
	return s
}

func TestStart_RunsStartupAndArmsMainTick(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings())

	require.NoError(t, f.orch.Start(context.Background()))

	assert.Equal(t, []domain.Trigger{domain.TriggerStartup}, f.engine.seen())
	main := f.sched.Timer(TimerMainDailyCheck)
	assert.Equal(t, scheduler.StateArmed, main.State)
	assert.True(t, main.Target.Equal(utc(2025, time.January, 2, 0, 2)))
	assert.Equal(t, scheduler.StateIdle, f.sched.Timer(TimerCustom).State)
	assert.NotNil(t, f.visibility.fn)
}

func TestStart_Twice(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings())

	require.NoError(t, f.orch.Start(context.Background()))
	err := f.orch.Start(context.Background())

	assert.ErrorIs(t, err, application.ErrInvalidOperation)
	assert.Len(t, f.engine.seen(), 1)
}

func TestStart_UnreadableSettingsUseDefaults(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings())
	f.store.loadErr = errors.New("permission denied")

	require.NoError(t, f.orch.Start(context.Background()))

	assert.Equal(t, domain.DefaultSettings(), f.orch.Settings())
}

func TestStart_ArmsCustomTimerForDevice(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", ""))

	require.NoError(t, f.orch.Start(context.Background()))

	custom := f.sched.Timer(TimerCustom)
	assert.Equal(t, scheduler.StateArmed, custom.State)
	assert.True(t, custom.Target.Equal(utc(2025, time.January, 1, 22, 30)))
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup}, f.engine.seen())
}

func TestStart_CustomTimeFallsBackToDailySetting(t *testing.T) {
	s := domain.DefaultSettings()
	s.Daily.EnableAdvancedScheduling = true
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), s)

	require.NoError(t, f.orch.Start(context.Background()))

	assert.Equal(t, domain.DefaultScheduledTime, f.sched.Timer(TimerCustom).TimeOfDay)
}

func TestStart_InvalidDeviceTimeDisablesCustomTimer(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 23, 0), advanced("9:30", ""))

	require.NoError(t, f.orch.Start(context.Background()))

	assert.Equal(t, scheduler.StateIdle, f.sched.Timer(TimerCustom).State)
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup}, f.engine.seen())
}

func TestStart_MissedRun(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		lastRun  string
		fail     error
		wantLate bool
		wantLast string
	}{
		{
			name:     "past target, not run today",
			now:      utc(2025, time.January, 1, 23, 0),
			lastRun:  "2024-12-31",
			wantLate: true,
			wantLast: "2025-01-01",
		},
		{
			name:     "past target, never run",
			now:      utc(2025, time.January, 1, 23, 0),
			wantLate: true,
			wantLast: "2025-01-01",
		},
		{
			name:     "already run today",
			now:      utc(2025, time.January, 1, 23, 0),
			lastRun:  "2025-01-01",
			wantLast: "2025-01-01",
		},
		{
			name:     "before target",
			now:      utc(2025, time.January, 1, 12, 0),
			lastRun:  "2024-12-31",
			wantLast: "2024-12-31",
		},
		{
			name:     "failed late run is not recorded",
			now:      utc(2025, time.January, 1, 23, 0),
			lastRun:  "2024-12-31",
			fail:     errors.New("disk full"),
			wantLate: true,
			wantLast: "2024-12-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.now, advanced("22:30", tt.lastRun))
			f.engine.fail[domain.TriggerLateRun] = tt.fail

			require.NoError(t, f.orch.Start(context.Background()))

			want := []domain.Trigger{domain.TriggerStartup}
			if tt.wantLate {
				want = append(want, domain.TriggerLateRun)
			}
			assert.Equal(t, want, f.engine.seen())
			assert.Equal(t, tt.wantLast, domain.LastExecutionDate(f.orch.Settings(), device))
		})
	}
}

func TestCustomFire_RecordsLastExecutionForThisDeviceOnly(t *testing.T) {
	s := advanced("22:30", "")
	s.DeviceSettings["desktop"] = domain.DeviceSettings{ScheduledTime: "06:00", LastExecutionDate: "2024-12-01"}
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), s)
	require.NoError(t, f.orch.Start(context.Background()))

	f.clock.Advance(10*time.Hour + 30*time.Minute)
	f.waitForTarget(t, TimerCustom, utc(2025, time.January, 2, 22, 30))

	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerCustomSchedule}, f.engine.seen())
	saved := f.store.saved()
	assert.Equal(t, "2025-01-01", domain.LastExecutionDate(saved, device))
	assert.Equal(t, "2024-12-01", domain.LastExecutionDate(saved, "desktop"))

	custom := f.sched.Timer(TimerCustom)
	assert.Equal(t, scheduler.StateArmed, custom.State)
	assert.True(t, custom.Target.Equal(utc(2025, time.January, 2, 22, 30)))
}

func TestCustomFire_FailureIsNotRecorded(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", ""))
	f.engine.fail[domain.TriggerCustomSchedule] = errors.New("workspace gone")
	require.NoError(t, f.orch.Start(context.Background()))

	f.clock.Advance(10*time.Hour + 30*time.Minute)
	f.waitForTarget(t, TimerCustom, utc(2025, time.January, 2, 22, 30))

	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerCustomSchedule}, f.engine.seen())
	assert.Empty(t, domain.LastExecutionDate(f.orch.Settings(), device))
}

func TestMainDailyCheck_Fires(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 23, 59), domain.DefaultSettings())
	require.NoError(t, f.orch.Start(context.Background()))

	f.clock.Advance(3 * time.Minute)
	f.waitForTarget(t, TimerMainDailyCheck, utc(2025, time.January, 3, 0, 2))

	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerMainDailyCheck}, f.engine.seen())
}

func TestHandleVisible_RecoversRunMissedDuringSleep(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", "2024-12-31"))
	require.NoError(t, f.orch.Start(context.Background()))

	// asleep through the custom time; the stale delivery is dropped
	f.clock.Advance(11 * time.Hour)
	f.waitForTarget(t, TimerCustom, utc(2025, time.January, 2, 22, 30))
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup}, f.engine.seen())

	f.visibility.fn()

	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerLateRun}, f.engine.seen())
	assert.Equal(t, "2025-01-01", domain.LastExecutionDate(f.orch.Settings(), device))

	// a second wake the same evening only runs the regular check
	f.orch.HandleVisible(context.Background())
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerLateRun, domain.TriggerVisibility}, f.engine.seen())
	assert.Equal(t, "2025-01-01", domain.LastExecutionDate(f.orch.Settings(), device))
}

func TestHandleVisible_OvernightSleepRunsPass(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 23, 0), domain.DefaultSettings())
	require.NoError(t, f.orch.Start(context.Background()))

	// the midnight tick is delivered late and dropped as drifted
	f.clock.Advance(9 * time.Hour)
	f.waitForTarget(t, TimerMainDailyCheck, utc(2025, time.January, 3, 0, 2))
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup}, f.engine.seen())

	f.visibility.fn()

	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerVisibility}, f.engine.seen())
}

func TestHandleVisible_RearmsBeforeTarget(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", ""))
	require.NoError(t, f.orch.Start(context.Background()))

	f.sched.Cancel(TimerCustom) // lost while suspended
	f.clock.Advance(2 * time.Hour)

	f.orch.HandleVisible(context.Background())

	custom := f.sched.Timer(TimerCustom)
	assert.Equal(t, scheduler.StateArmed, custom.State)
	assert.True(t, custom.Target.Equal(utc(2025, time.January, 1, 22, 30)))
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup, domain.TriggerVisibility}, f.engine.seen())
}

func TestSetDeviceScheduledTime(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", ""))
	require.NoError(t, f.orch.Start(context.Background()))

	require.NoError(t, f.orch.SetDeviceScheduledTime(context.Background(), "07:15"))

	custom := f.sched.Timer(TimerCustom)
	assert.Equal(t, "07:15", custom.TimeOfDay)
	assert.True(t, custom.Target.Equal(utc(2025, time.January, 2, 7, 15)))
	assert.Equal(t, "07:15", domain.DeviceScheduledTime(f.store.saved(), device))

	err := f.orch.SetDeviceScheduledTime(context.Background(), "7:15")
	assert.ErrorIs(t, err, application.ErrInvalidTimeOfDay)
	assert.Equal(t, "07:15", f.sched.Timer(TimerCustom).TimeOfDay)
}

func TestSetDeviceScheduledTime_NoDevice(t *testing.T) {
	clock := clockwork.NewFakeClockAt(utc(2025, time.January, 1, 12, 0))
	sched := scheduler.New(zap.NewNop(), scheduler.WithClock(clock))
	o := New("", &fakeSettingsStore{}, &fakeReconciler{}, sched)

	err := o.SetDeviceScheduledTime(context.Background(), "07:15")

	assert.ErrorIs(t, err, application.ErrNoDeviceID)
}

func TestUpdateSettings_DisablingAdvancedCancelsCustomTimer(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", ""))
	require.NoError(t, f.orch.Start(context.Background()))
	require.Equal(t, scheduler.StateArmed, f.sched.Timer(TimerCustom).State)

	s := f.orch.Settings()
	s.Daily.EnableAdvancedScheduling = false
	require.NoError(t, f.orch.UpdateSettings(context.Background(), s))

	assert.Equal(t, scheduler.StateIdle, f.sched.Timer(TimerCustom).State)
	assert.Equal(t, scheduler.StateArmed, f.sched.Timer(TimerMainDailyCheck).State)
	assert.False(t, f.store.saved().Daily.EnableAdvancedScheduling)
}

func TestUpdateSettings_SaveFailureKeepsState(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", ""))
	require.NoError(t, f.orch.Start(context.Background()))
	f.store.saveErr = errors.New("read-only")

	s := f.orch.Settings()
	s.Daily.EnableAdvancedScheduling = false
	err := f.orch.UpdateSettings(context.Background(), s)

	require.Error(t, err)
	assert.True(t, f.orch.Settings().Daily.EnableAdvancedScheduling)
	assert.Equal(t, scheduler.StateArmed, f.sched.Timer(TimerCustom).State)
}

func TestUpdateSettings_DebugFlipsLevel(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings(), WithLevel(level))
	require.NoError(t, f.orch.Start(context.Background()))

	s := f.orch.Settings()
	s.Debug = true
	require.NoError(t, f.orch.UpdateSettings(context.Background(), s))
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	s.Debug = false
	require.NoError(t, f.orch.UpdateSettings(context.Background(), s))
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}

func TestSyncAvailability(t *testing.T) {
	available := fakeAvailability{domain.Daily: true}
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings(), WithAvailability(available))
	require.NoError(t, f.orch.Start(context.Background()))
	assert.True(t, f.orch.Settings().Daily.Available)
	assert.False(t, f.orch.Settings().Weekly.Available)

	require.NoError(t, f.orch.SyncAvailability(context.Background()))
	assert.Equal(t, 0, f.store.saves, "unchanged availability is not saved")

	available[domain.Weekly] = true
	require.NoError(t, f.orch.SyncAvailability(context.Background()))
	assert.Equal(t, 1, f.store.saves)
	assert.True(t, f.store.saved().Weekly.Available)
}

func TestCheck_DefaultsToManual(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings())

	report := f.orch.Check(context.Background(), "")

	assert.Equal(t, domain.TriggerManual, report.Trigger)
	assert.Same(t, report, f.orch.LastReport())
}

func TestCheck_PassesNeverOverlap(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), domain.DefaultSettings())
	f.engine.delay = 2 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.orch.Check(context.Background(), domain.TriggerManual)
		}()
	}
	wg.Wait()

	assert.Len(t, f.engine.seen(), 8)
	assert.Equal(t, int32(1), f.engine.maxSeen.Load())
}

func TestStop(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", "2024-12-31"))
	require.NoError(t, f.orch.Start(context.Background()))

	f.orch.Stop()
	f.orch.Stop()

	assert.Empty(t, f.sched.Snapshot())
	assert.True(t, f.visibility.removed)

	f.clock.Advance(12 * time.Hour)
	f.orch.HandleVisible(context.Background())
	assert.Equal(t, []domain.Trigger{domain.TriggerStartup}, f.engine.seen())
}

func TestStatus(t *testing.T) {
	f := newFixture(t, utc(2025, time.January, 1, 12, 0), advanced("22:30", "2024-12-31"))
	require.NoError(t, f.orch.Start(context.Background()))

	st := f.orch.Status()

	assert.Equal(t, device, st.DeviceID)
	assert.Equal(t, "2024-12-31", st.LastExecution)
	assert.True(t, st.NextCustom.Equal(utc(2025, time.January, 1, 22, 30)))
	require.Len(t, st.Timers, 2)
	assert.Equal(t, TimerCustom, st.Timers[0].Name)
	assert.Equal(t, domain.TriggerStartup, st.LastReport.Trigger)
}
