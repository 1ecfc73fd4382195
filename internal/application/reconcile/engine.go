// Package reconcile decides, per periodicity, which note must exist and which
// workspace views to close, unpin, open and pin.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"autonotes/internal/application"
	"autonotes/internal/application/notes"
	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

const (
	// DefaultSettlingDelay lets the workspace layout settle after views were
	// closed and before a replacement is opened
	DefaultSettlingDelay = time.Second

	createdNoticeDuration = 5 * time.Second
	failureNoticeDuration = 10 * time.Second
)

// Engine runs reconciliation passes
type Engine struct {
	providers map[domain.Periodicity]*notes.Provider
	daily     *notes.DailyProvider
	workspace ports.Workspace
	notifier  ports.Notifier
	templater ports.TemplateProcessor
	logger    *zap.Logger
	now       func() time.Time
	settle    time.Duration
	guard     *Guard
}

// Option configures an Engine
type Option func(*Engine)

// WithTemplater enables template post-processing of created notes
func WithTemplater(t ports.TemplateProcessor) Option {
	return func(e *Engine) { e.templater = t }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Named("reconcile")
		}
	}
}

// WithNow replaces the wall clock
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSettlingDelay replaces DefaultSettlingDelay. Zero disables settling.
func WithSettlingDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.settle = d
		}
	}
}

// NewEngine creates an engine over the given store and workspace
func NewEngine(store ports.DocumentStore, ws ports.Workspace, notifier ports.Notifier, opts ...Option) *Engine {
	e := &Engine{
		providers: notes.All(store),
		daily:     notes.NewDailyProvider(store),
		workspace: ws,
		notifier:  notifier,
		logger:    zap.NewNop(),
		now:       time.Now,
		settle:    DefaultSettlingDelay,
		guard:     &firstPositionGuard,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run reconciles every periodicity, coarsest first. A failure in one
// periodicity is logged, reported to the user and recorded in the report;
// the remaining periodicities still run.
func (e *Engine) Run(ctx context.Context, s domain.Settings, trigger domain.Trigger) *Report {
	now := e.now()
	report := &Report{Trigger: trigger, Started: now}
	policy := trigger.Policy()

	e.logger.Debug("pass started",
		zap.String("trigger", string(trigger)),
		zap.Time("now", now),
	)

	for _, p := range domain.AllPeriodicities() {
		out := e.reconcileSafely(ctx, p, s, policy, now)
		if out.Err != nil {
			e.logger.Error("reconcile failed",
				zap.String("trigger", string(trigger)),
				zap.Stringer("periodicity", p),
				zap.Error(out.Err),
			)
			e.notifier.Notify(failureNotice(out.Err), failureNoticeDuration)
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	return report
}

func (e *Engine) reconcileSafely(ctx context.Context, p domain.Periodicity, s domain.Settings, policy domain.Policy, now time.Time) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out.Periodicity = p
			out.Err = &application.PeriodicityError{
				Periodicity: p,
				Op:          "reconcile",
				Err:         fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return e.reconcile(ctx, p, s, policy, now)
}

func (e *Engine) reconcile(ctx context.Context, p domain.Periodicity, s domain.Settings, policy domain.Policy, now time.Time) Outcome {
	out := Outcome{Periodicity: p}
	ps := s.For(p)
	if !ps.Active() {
		out.Skipped = "disabled"
		return out
	}

	index := BuildOpenViewIndex(e.workspace)
	action := policy.OldViewAction(p, s)

	target, created, skip, err := e.resolveTarget(ctx, p, s, policy, action, now)
	if err != nil {
		out.Err = err
		return out
	}
	if target == nil {
		out.Skipped = skip
		return out
	}
	out.Target = target.Path
	out.Created = created

	if created {
		e.notifier.Notify(createdNotice(p, target, now), createdNoticeDuration)
		e.logger.Info("note created",
			zap.Stringer("periodicity", p),
			zap.String("path", target.Path),
		)
	}

	if action != domain.OldViewsKeep {
		closed, unpinned, err := e.retireOlderViews(ctx, p, index, target.Path, action)
		out.Closed, out.Unpinned = closed, unpinned
		if err != nil {
			out.Err = &application.PeriodicityError{Periodicity: p, Op: action.String(), Err: err}
			return out
		}
	}

	if ps.Open && !index.Has(target.Path) {
		if len(out.Closed) > 0 {
			if err := e.settleLayout(ctx); err != nil {
				out.Err = &application.PeriodicityError{Periodicity: p, Op: "open", Err: err}
				return out
			}
		}
		first := p == domain.Daily && s.Daily.OpenAtFirstPosition
		pinned, err := e.openTarget(ctx, target, ps.ShouldPin(), first)
		out.Opened = err == nil
		out.Pinned = pinned
		if err != nil {
			out.Err = &application.PeriodicityError{Periodicity: p, Op: "open", Err: err}
			return out
		}
	}

	if created && out.Opened && s.ProcessTemplater && e.templater != nil {
		if err := e.templater.Process(ctx, target, true); err != nil {
			out.Err = &application.PeriodicityError{Periodicity: p, Op: "process template for", Err: err}
			return out
		}
	}

	return out
}

// resolveTarget picks the note the pass works towards, creating it when
// missing. A nil target with a reason means nothing is left to do.
func (e *Engine) resolveTarget(ctx context.Context, p domain.Periodicity, s domain.Settings, policy domain.Policy, action domain.OldViewAction, now time.Time) (*domain.Artifact, bool, string, error) {
	wrap := func(op string, err error) error {
		return &application.PeriodicityError{Periodicity: p, Op: op, Err: err}
	}

	if policy.UsesAdvancedPath(p, s) {
		next := policy.NextPeriod && s.Daily.CreateTomorrowsNote
		day := notes.Target(now, next, s.Daily.ExcludeWeekends)

		present, err := e.daily.IsPresentOn(ctx, day)
		if err != nil {
			return nil, false, "", wrap("look up", err)
		}
		if !present {
			a, err := e.daily.CreateOn(ctx, day)
			if err != nil {
				return nil, false, "", wrap("create", err)
			}
			return a, true, "", nil
		}
		if !s.AlwaysOpen && action != domain.OldViewsUnpin {
			return nil, false, "already present", nil
		}
		a, err := e.daily.CurrentOn(ctx, day)
		if err != nil {
			return nil, false, "", wrap("look up", err)
		}
		return a, false, "already present", nil
	}

	if p == domain.Daily && s.Daily.ExcludeWeekends && domain.IsWeekend(now) {
		return nil, false, "weekend", nil
	}

	var (
		present bool
		err     error
	)
	if p == domain.Daily {
		present, err = e.daily.IsPresentOn(ctx, now)
	} else {
		present, err = e.providers[p].IsPresent(ctx, now)
	}
	if err != nil {
		return nil, false, "", wrap("look up", err)
	}

	if !present {
		a, err := e.providers[p].Create(ctx, now)
		if err != nil {
			return nil, false, "", wrap("create", err)
		}
		return a, true, "", nil
	}
	if !s.AlwaysOpen {
		return nil, false, "already present", nil
	}

	var a *domain.Artifact
	if p == domain.Daily {
		a, err = e.daily.CurrentOn(ctx, now)
	} else {
		a, err = e.providers[p].Current(ctx, now)
	}
	if err != nil {
		return nil, false, "", wrap("look up", err)
	}
	return a, false, "already present", nil
}

// retireOlderViews closes or unpins every open view of an older note of this
// periodicity. The view showing targetPath is never touched.
func (e *Engine) retireOlderViews(ctx context.Context, p domain.Periodicity, index *OpenViewIndex, targetPath string, action domain.OldViewAction) (closed, unpinned []string, err error) {
	paths, err := e.providers[p].AllPaths(ctx)
	if err != nil {
		return nil, nil, err
	}
	known := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		known[path] = struct{}{}
	}

	for _, v := range index.Views() {
		path := v.ArtifactPath()
		if path == targetPath {
			continue
		}
		if _, ok := known[path]; !ok {
			continue
		}

		switch action {
		case domain.OldViewsClose:
			if err := v.Close(ctx); err != nil {
				return closed, unpinned, fmt.Errorf("close %s: %w", path, err)
			}
			closed = append(closed, path)
		case domain.OldViewsUnpin:
			if !v.Pinned() {
				continue
			}
			if err := v.SetPinned(ctx, false); err != nil {
				return closed, unpinned, fmt.Errorf("unpin %s: %w", path, err)
			}
			unpinned = append(unpinned, path)
		}
	}

	if len(closed) > 0 || len(unpinned) > 0 {
		e.logger.Debug("older views retired",
			zap.Stringer("periodicity", p),
			zap.Strings("closed", closed),
			zap.Strings("unpinned", unpinned),
		)
	}
	return closed, unpinned, nil
}

// openTarget opens target in a new view and pins it when asked. First
// position placement holds the guard for the whole open sequence.
func (e *Engine) openTarget(ctx context.Context, target *domain.Artifact, pin, first bool) (pinned bool, err error) {
	placement := ports.PlacementDefault
	if first {
		release, ok := e.guard.Acquire()
		if ok {
			defer release()
			placement = ports.PlacementFirst
		} else {
			e.logger.Debug("first position placement already in progress")
			first = false
		}
	}

	view, err := e.workspace.OpenNewView(ctx, placement)
	if err != nil {
		return false, err
	}
	if err := view.Load(ctx, target); err != nil {
		return false, fmt.Errorf("load %s: %w", target.Path, err)
	}

	if pin {
		if err := view.SetPinned(ctx, true); err != nil {
			return false, fmt.Errorf("pin %s: %w", target.Path, err)
		}
		pinned = true
	}

	// pinning may reorder views
	if first && view.Index() != 0 {
		if err := view.MoveTo(ctx, 0); err != nil {
			return pinned, fmt.Errorf("move %s to first position: %w", target.Path, err)
		}
	}

	return pinned, nil
}

func (e *Engine) settleLayout(ctx context.Context) error {
	if e.settle <= 0 {
		return nil
	}
	t := time.NewTimer(e.settle)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func createdNotice(p domain.Periodicity, a *domain.Artifact, now time.Time) string {
	today := domain.StartOf(p.Unit(), now)
	start := a.PeriodStart
	if start.IsZero() {
		start = today
	}
	start = domain.StartOf(p.Unit(), start)

	switch {
	case !start.After(today):
		return fmt.Sprintf("Today's %s note has been created.", p)
	case p == domain.Daily && start.Equal(domain.AddUnits(domain.UnitDay, today, 1)):
		return fmt.Sprintf("Tomorrow's %s note has been created.", p)
	default:
		return fmt.Sprintf("Next period's %s note has been created.", p)
	}
}

func failureNotice(err error) string {
	var perr *application.PeriodicityError
	if !errors.As(err, &perr) {
		return fmt.Sprintf("Auto notes failed: %v", err)
	}
	return fmt.Sprintf("Failed to %s %s note: %v", perr.Op, perr.Periodicity, perr.Err)
}
