// Package scheduler runs named daily timers that survive sleep and failing
// callbacks.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"autonotes/internal/application"
	"autonotes/internal/domain"
)

// DefaultDriftTolerance is how far a fire may land from its target before it
// is treated as a stale delivery after sleep
const DefaultDriftTolerance = 5 * time.Minute

// State of a named timer
type State int

const (
	StateIdle State = iota
	StateArmed
	StateFired
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	case StateCancelled:
		return "cancelled"
	default:
		return "idle"
	}
}

// Callback is the work run when a timer fires
type Callback func(ctx context.Context) error

// TimerInfo is a read-only view of one named timer
type TimerInfo struct {
	Name      string
	TimeOfDay string
	Target    time.Time
	State     State
}

type entry struct {
	name       string
	timeOfDay  string
	target     time.Time
	state      State
	generation uint64
	timer      clockwork.Timer
	fn         Callback
}

// Scheduler owns a set of independently named daily timers. Each fire
// re-arms the timer for the next occurrence, whatever the callback did.
type Scheduler struct {
	mu        sync.Mutex
	clock     Clock
	logger    *zap.Logger
	tolerance time.Duration
	timers    map[string]*entry
	gen       uint64
	inflight  sync.WaitGroup
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces the system clock
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithDriftTolerance replaces DefaultDriftTolerance
func WithDriftTolerance(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tolerance = d
		}
	}
}

// New creates a scheduler with no timers armed
func New(logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		clock:     RealClock(),
		logger:    logger.Named("scheduler"),
		tolerance: DefaultDriftTolerance,
		timers:    make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = wallClock{s.clock}
	return s
}

// Now returns the scheduler clock's current time
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// ComputeNextFire returns the next instant strictly after now at timeOfDay
// (HH:mm) in now's location: today when still ahead, otherwise tomorrow.
func ComputeNextFire(timeOfDay string, now time.Time) (time.Time, error) {
	hour, minute, err := domain.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", application.ErrInvalidTimeOfDay, err)
	}

	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", application.ErrInvalidTimeOfDay, err)
	}

	return sched.Next(now), nil
}

// Arm schedules fn daily at timeOfDay under name, replacing any timer already
// registered under that name. An empty or malformed timeOfDay disarms the
// name and returns ErrScheduleDisabled.
func (s *Scheduler) Arm(name, timeOfDay string, fn Callback) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(name)

	if timeOfDay == "" || !domain.ValidTimeOfDay(timeOfDay) {
		s.logger.Info("schedule disabled",
			zap.String("timer", name),
			zap.String("time_of_day", timeOfDay),
		)
		return time.Time{}, fmt.Errorf("%s: %w", name, application.ErrScheduleDisabled)
	}

	return s.armLocked(name, timeOfDay, fn, s.clock.Now())
}

// caller holds s.mu
func (s *Scheduler) armLocked(name, timeOfDay string, fn Callback, from time.Time) (time.Time, error) {
	target, err := ComputeNextFire(timeOfDay, from)
	if err != nil {
		return time.Time{}, err
	}

	s.gen++
	e := &entry{
		name:       name,
		timeOfDay:  timeOfDay,
		target:     target,
		state:      StateArmed,
		generation: s.gen,
		fn:         fn,
	}
	gen := e.generation
	delay := target.Sub(s.clock.Now())
	e.timer = s.clock.AfterFunc(delay, func() { s.fire(name, gen) })
	s.timers[name] = e

	s.logger.Debug("timer armed",
		zap.String("timer", name),
		zap.Time("target", target),
		zap.Duration("delay", delay),
	)
	return target, nil
}

func (s *Scheduler) fire(name string, gen uint64) {
	s.mu.Lock()
	e, ok := s.timers[name]
	if !ok || e.generation != gen || e.state != StateArmed {
		// replaced or cancelled after the clock had already queued us
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	drift := now.Sub(e.target)
	if drift < 0 {
		drift = -drift
	}

	if drift > s.tolerance {
		s.logger.Warn("spurious fire skipped",
			zap.String("timer", name),
			zap.Time("target", e.target),
			zap.Duration("drift", drift),
		)
		if _, err := s.armLocked(name, e.timeOfDay, e.fn, now); err != nil {
			s.logger.Error("re-arm failed", zap.String("timer", name), zap.Error(err))
		}
		s.mu.Unlock()
		return
	}

	e.state = StateFired
	fn, timeOfDay, target := e.fn, e.timeOfDay, e.target
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	s.run(name, fn)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.timers[name]
	if !ok || cur.generation != gen || cur.state != StateFired {
		return
	}
	from := s.clock.Now()
	if from.Before(target) {
		from = target
	}
	if _, err := s.armLocked(name, timeOfDay, fn, from); err != nil {
		s.logger.Error("re-arm failed", zap.String("timer", name), zap.Error(err))
	}
}

func (s *Scheduler) run(name string, fn Callback) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timer callback panicked",
				zap.String("timer", name),
				zap.Any("panic", r),
			)
		}
	}()

	if err := fn(context.Background()); err != nil {
		s.logger.Error("timer callback failed",
			zap.String("timer", name),
			zap.Error(err),
		)
	}
}

// Cancel disarms the named timer. Unknown names are ignored.
func (s *Scheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
}

// caller holds s.mu
func (s *Scheduler) cancelLocked(name string) {
	e, ok := s.timers[name]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.state = StateCancelled
	delete(s.timers, name)
	s.logger.Debug("timer cancelled", zap.String("timer", name))
}

// CancelAll disarms every timer
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.timers {
		s.cancelLocked(name)
	}
}

// Wait blocks until callbacks already running have returned
func (s *Scheduler) Wait() {
	s.inflight.Wait()
}

// Timer returns the named timer. Names never armed, or cancelled, report
// StateIdle.
func (s *Scheduler) Timer(name string) TimerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	if !ok {
		return TimerInfo{Name: name, State: StateIdle}
	}
	return e.info()
}

// Snapshot returns every registered timer sorted by name
func (s *Scheduler) Snapshot() []TimerInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TimerInfo, 0, len(s.timers))
	for _, e := range s.timers {
		out = append(out, e.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e *entry) info() TimerInfo {
	return TimerInfo{
		Name:      e.name,
		TimeOfDay: e.timeOfDay,
		Target:    e.target,
		State:     e.state,
	}
}
