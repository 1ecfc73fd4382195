package host

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"autonotes/internal/ports"
)

// WakeDetector reports a resume from sleep as a visibility event. It ticks
// on a short interval and treats a wall clock jump well past the interval
// as time spent suspended.
type WakeDetector struct {
	interval time.Duration
	slack    time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func()
}

var _ ports.VisibilitySource = (*WakeDetector)(nil)

// NewWakeDetector ticks every interval; a gap larger than interval+slack is
// reported
func NewWakeDetector(interval, slack time.Duration, logger *zap.Logger) *WakeDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WakeDetector{
		interval: interval,
		slack:    slack,
		now:      func() time.Time { return time.Now().Round(0) },
		logger:   logger.Named("wake"),
		subs:     make(map[int]func()),
	}
}

// OnVisible registers fn and returns a function removing it
func (w *WakeDetector) OnVisible(fn func()) (remove func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Trigger notifies every subscriber now
func (w *WakeDetector) Trigger() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Run watches for gaps until ctx is cancelled
func (w *WakeDetector) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := w.now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := w.now()
			if w.Observe(last, now) {
				w.logger.Info("resume from sleep detected", zap.Duration("gap", now.Sub(last)))
				w.Trigger()
			}
			last = now
		}
	}
}

// Observe reports whether the gap between two ticks means the host slept
func (w *WakeDetector) Observe(last, now time.Time) bool {
	return now.Sub(last) > w.interval+w.slack
}
