// Package orchestrator wires the reconciliation engine to its triggers:
// startup, the two daily timers, visibility recovery and manual checks. It
// owns the settings and is the only place they are changed.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"autonotes/internal/application"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/application/scheduler"
	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

const (
	// MainDailyCheckTime is when the fixed daily tick fires
	MainDailyCheckTime = "00:02"

	TimerMainDailyCheck = string(domain.TriggerMainDailyCheck)
	TimerCustom         = string(domain.TriggerCustomSchedule)
)

// Reconciler runs one reconciliation pass
type Reconciler interface {
	Run(ctx context.Context, s domain.Settings, trigger domain.Trigger) *reconcile.Report
}

// Orchestrator drives reconciliation passes. Passes never overlap.
type Orchestrator struct {
	pass sync.Mutex // held for the whole of a pass

	mu         sync.Mutex
	settings   domain.Settings
	lastReport *reconcile.Report
	started    bool
	stopped    bool
	removeVis  func()

	deviceID     string
	store        ports.SettingsStore
	availability ports.AvailabilitySource
	visibility   ports.VisibilitySource
	engine       Reconciler
	sched        *scheduler.Scheduler
	logger       *zap.Logger
	level        *zap.AtomicLevel
	baseLevel    zapcore.Level
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l.Named("orchestrator")
		}
	}
}

// WithLevel lets Settings.Debug switch the given level to debug
func WithLevel(level zap.AtomicLevel) Option {
	return func(o *Orchestrator) {
		o.level = &level
		o.baseLevel = level.Level()
	}
}

// WithVisibility subscribes to "became visible" events on Start
func WithVisibility(v ports.VisibilitySource) Option {
	return func(o *Orchestrator) { o.visibility = v }
}

// WithAvailability sets the source of the per-periodicity availability flags
func WithAvailability(a ports.AvailabilitySource) Option {
	return func(o *Orchestrator) { o.availability = a }
}

// New creates an orchestrator for one device
func New(deviceID string, store ports.SettingsStore, engine Reconciler, sched *scheduler.Scheduler, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings: domain.DefaultSettings(),
		deviceID: deviceID,
		store:    store,
		engine:   engine,
		sched:    sched,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DeviceID returns the identifier device-scoped settings are stored under
func (o *Orchestrator) DeviceID() string {
	return o.deviceID
}

// Settings returns a copy of the current settings
func (o *Orchestrator) Settings() domain.Settings {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.settings.Clone()
}

// LastReport returns the report of the most recent pass, or nil
func (o *Orchestrator) LastReport() *reconcile.Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastReport
}

// Load reads the persisted settings, migrates them and fills defaults. A
// blob that cannot be read degrades to the defaults.
func (o *Orchestrator) Load(ctx context.Context) error {
	raw, err := o.store.Load(ctx)
	if err != nil {
		o.logger.Warn("settings unreadable, using defaults", zap.Error(err))
		raw = domain.RawSettings{}
	}

	s := domain.LoadSettings(raw)
	if o.availability != nil {
		s = s.WithAvailability(o.availability.Available())
	}

	o.mu.Lock()
	o.settings = s
	o.mu.Unlock()

	o.applyLogLevel(s)
	return nil
}

// Start loads the settings, runs the startup pass, arms both timers and
// recovers a custom run missed while the process was not running.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return fmt.Errorf("start: %w", application.ErrInvalidOperation)
	}
	o.started = true
	o.mu.Unlock()

	if err := o.Load(ctx); err != nil {
		return err
	}

	o.runPass(ctx, domain.TriggerStartup)

	if _, err := o.sched.Arm(TimerMainDailyCheck, MainDailyCheckTime, o.onMainDailyCheck); err != nil {
		return fmt.Errorf("arm %s: %w", TimerMainDailyCheck, err)
	}
	o.armCustom()

	if o.visibility != nil {
		remove := o.visibility.OnVisible(func() { o.HandleVisible(context.Background()) })
		o.mu.Lock()
		o.removeVis = remove
		o.mu.Unlock()
	}

	o.checkMissedRun(ctx)
	return nil
}

// Stop cancels every timer and the visibility subscription, then waits for
// an in-flight pass to finish. It must not be called from a timer callback.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	remove := o.removeVis
	o.removeVis = nil
	o.mu.Unlock()

	o.sched.CancelAll()
	if remove != nil {
		remove()
	}
	o.sched.Wait()

	o.pass.Lock()
	defer o.pass.Unlock()
	o.logger.Debug("stopped")
}

// Check runs a pass on demand. An empty trigger means manual.
func (o *Orchestrator) Check(ctx context.Context, trigger domain.Trigger) *reconcile.Report {
	if trigger == "" {
		trigger = domain.TriggerManual
	}
	return o.runPass(ctx, trigger)
}

// HandleVisible runs the missed-run check, or a visibility pass when no late
// run was due, so notes for a day that began during suspension are created.
// While today's custom time is still ahead the custom timer is re-armed in
// case it was dropped during suspension.
func (o *Orchestrator) HandleVisible(ctx context.Context) {
	if o.isStopped() {
		return
	}
	if !o.checkMissedRun(ctx) {
		o.runPass(ctx, domain.TriggerVisibility)
	}

	target, ok := o.todaysTarget()
	if ok && o.sched.Now().Before(target) {
		o.armCustom()
	}
}

// UpdateSettings persists s and applies it. It is the single entry point for
// settings changes; the schedule is re-derived when its inputs changed.
func (o *Orchestrator) UpdateSettings(ctx context.Context, s domain.Settings) error {
	return o.update(ctx, func(domain.Settings) domain.Settings { return s })
}

// SetDeviceScheduledTime sets this device's custom check time. An empty
// timeOfDay clears the override.
func (o *Orchestrator) SetDeviceScheduledTime(ctx context.Context, timeOfDay string) error {
	if o.deviceID == "" {
		return application.ErrNoDeviceID
	}
	if timeOfDay != "" {
		if err := application.ValidateTimeOfDay("scheduledTime", timeOfDay); err != nil {
			return err
		}
	}
	return o.update(ctx, func(s domain.Settings) domain.Settings {
		return domain.WithDeviceScheduledTime(s, o.deviceID, timeOfDay)
	})
}

// SyncAvailability refreshes the availability flags from the document store
// configuration and persists them when they changed
func (o *Orchestrator) SyncAvailability(ctx context.Context) error {
	if o.availability == nil {
		return nil
	}
	available := o.availability.Available()
	cur := o.Settings()
	changed := false
	for _, p := range domain.AllPeriodicities() {
		if cur.For(p).Available != available[p] {
			changed = true
		}
	}
	if !changed {
		return nil
	}

	o.logger.Info("availability changed", zap.Any("available", available))
	return o.update(ctx, func(s domain.Settings) domain.Settings {
		return s.WithAvailability(available)
	})
}

func (o *Orchestrator) update(ctx context.Context, mutate func(domain.Settings) domain.Settings) error {
	o.mu.Lock()
	prev := o.settings
	next := mutate(prev.Clone())
	if err := o.store.Save(ctx, next.Raw()); err != nil {
		o.mu.Unlock()
		return fmt.Errorf("save settings: %w", err)
	}
	o.settings = next
	started, stopped := o.started, o.stopped
	o.mu.Unlock()

	o.applyLogLevel(next)
	if started && !stopped && o.scheduleKey(prev) != o.scheduleKey(next) {
		o.armCustom()
	}
	return nil
}

func (o *Orchestrator) scheduleKey(s domain.Settings) string {
	if !s.Daily.EnableAdvancedScheduling {
		return ""
	}
	return domain.DeviceScheduledTime(s, o.deviceID)
}

// armCustom arms or disarms the custom timer from the current settings
func (o *Orchestrator) armCustom() {
	s := o.Settings()
	if !s.Daily.EnableAdvancedScheduling {
		o.sched.Cancel(TimerCustom)
		return
	}
	if o.deviceID == "" {
		o.sched.Cancel(TimerCustom)
		o.logger.Warn("custom schedule disabled", zap.Error(application.ErrNoDeviceID))
		return
	}

	tod := domain.DeviceScheduledTime(s, o.deviceID)
	target, err := o.sched.Arm(TimerCustom, tod, o.onCustomTime)
	if err != nil {
		o.logger.Info("custom schedule disabled", zap.Error(err))
		return
	}
	o.logger.Debug("custom schedule armed", zap.Time("target", target))
}

// todaysTarget returns today's custom check instant when one is configured
func (o *Orchestrator) todaysTarget() (time.Time, bool) {
	s := o.Settings()
	if !s.Daily.EnableAdvancedScheduling || o.deviceID == "" {
		return time.Time{}, false
	}
	hour, minute, err := domain.ParseTimeOfDay(domain.DeviceScheduledTime(s, o.deviceID))
	if err != nil {
		return time.Time{}, false
	}
	return domain.AtTimeOfDay(o.sched.Now(), hour, minute), true
}

// checkMissedRun runs a late pass when today's custom time has passed and
// this device has not run it yet today
func (o *Orchestrator) checkMissedRun(ctx context.Context) bool {
	target, ok := o.todaysTarget()
	if !ok {
		return false
	}
	now := o.sched.Now()
	if !now.After(target) {
		return false
	}
	today := domain.ISODate(now)
	if domain.LastExecutionDate(o.Settings(), o.deviceID) == today {
		return false
	}

	o.logger.Info("missed scheduled run, running late",
		zap.Time("target", target),
		zap.Time("now", now),
	)
	report := o.runPass(ctx, domain.TriggerLateRun)
	if err := report.Err(); err != nil {
		return true
	}
	if err := o.recordExecution(ctx, today); err != nil {
		o.logger.Error("record execution failed", zap.Error(err))
	}
	return true
}

func (o *Orchestrator) onMainDailyCheck(ctx context.Context) error {
	return o.runPass(ctx, domain.TriggerMainDailyCheck).Err()
}

func (o *Orchestrator) onCustomTime(ctx context.Context) error {
	report := o.runPass(ctx, domain.TriggerCustomSchedule)
	if err := report.Err(); err != nil {
		return err
	}
	return o.recordExecution(ctx, domain.ISODate(o.sched.Now()))
}

func (o *Orchestrator) recordExecution(ctx context.Context, date string) error {
	return o.update(ctx, func(s domain.Settings) domain.Settings {
		return domain.WithLastExecutionDate(s, o.deviceID, date)
	})
}

func (o *Orchestrator) runPass(ctx context.Context, trigger domain.Trigger) *reconcile.Report {
	o.pass.Lock()
	defer o.pass.Unlock()

	report := o.engine.Run(ctx, o.Settings(), trigger)

	o.mu.Lock()
	o.lastReport = report
	o.mu.Unlock()

	fields := []zap.Field{
		zap.String("trigger", string(trigger)),
		zap.Strings("created", report.Created()),
	}
	if err := report.Err(); err != nil {
		o.logger.Warn("pass finished with errors", append(fields, zap.Error(err))...)
	} else {
		o.logger.Debug("pass finished", fields...)
	}
	return report
}

func (o *Orchestrator) applyLogLevel(s domain.Settings) {
	if o.level == nil {
		return
	}
	if s.Debug {
		o.level.SetLevel(zapcore.DebugLevel)
		return
	}
	o.level.SetLevel(o.baseLevel)
}

func (o *Orchestrator) isStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

// Status is a point-in-time summary for the CLI and dashboards
type Status struct {
	DeviceID      string
	Settings      domain.Settings
	Timers        []scheduler.TimerInfo
	NextCustom    time.Time // zero when the custom schedule is off
	LastExecution string
	LastReport    *reconcile.Report
}

// Status summarises the schedule and the last pass
func (o *Orchestrator) Status() Status {
	s := o.Settings()
	st := Status{
		DeviceID:      o.deviceID,
		Settings:      s,
		Timers:        o.sched.Snapshot(),
		LastExecution: domain.LastExecutionDate(s, o.deviceID),
		LastReport:    o.LastReport(),
	}
	if s.Daily.EnableAdvancedScheduling && o.deviceID != "" {
		if next, err := scheduler.ComputeNextFire(domain.DeviceScheduledTime(s, o.deviceID), o.sched.Now()); err == nil {
			st.NextCustom = next
		}
	}
	return st
}
