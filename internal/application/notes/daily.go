package notes

import (
	"context"
	"fmt"
	"path"
	"time"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// DailyProvider adds target-date handling and a direct disk probe for notes
// the store has not indexed yet (for example synced from another device)
type DailyProvider struct {
	*Provider
}

// NewDailyProvider creates the daily provider
func NewDailyProvider(store ports.DocumentStore) *DailyProvider {
	return &DailyProvider{Provider: ForPeriodicity(domain.Daily, store)}
}

// Target returns the day a daily note should be prepared for: ref, or the
// next day when nextPeriod is set, then moved forward past any weekend day
// when excludeWeekends is set.
func Target(ref time.Time, nextPeriod, excludeWeekends bool) time.Time {
	target := ref
	if nextPeriod {
		target = domain.AddUnits(domain.UnitDay, target, 1)
	}
	if excludeWeekends {
		for domain.IsWeekend(target) {
			target = domain.AddUnits(domain.UnitDay, target, 1)
		}
	}
	return target
}

// ExpectedPath builds the vault-relative path the store would use for target
func (d *DailyProvider) ExpectedPath(target time.Time) string {
	format, folder := d.store.FormatAndFolder(domain.Daily)
	name := domain.NewDateFormat(format).Format(domain.StartOf(domain.UnitDay, target))
	return path.Join(folder, name+".md")
}

// IsPresentOn reports whether the note for target exists. A miss in the
// store's lookup is followed by a single probe of the expected path.
func (d *DailyProvider) IsPresentOn(ctx context.Context, target time.Time) (bool, error) {
	ok, err := d.IsPresent(ctx, target)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	a, err := d.probe(ctx, target)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// CreateOn creates the note for target
func (d *DailyProvider) CreateOn(ctx context.Context, target time.Time) (*domain.Artifact, error) {
	return d.Create(ctx, target)
}

// CurrentOn returns the note for target, probing the disk on a store miss
func (d *DailyProvider) CurrentOn(ctx context.Context, target time.Time) (*domain.Artifact, error) {
	a, err := d.Current(ctx, target)
	if err != nil || a != nil {
		return a, err
	}
	return d.probe(ctx, target)
}

func (d *DailyProvider) probe(ctx context.Context, target time.Time) (*domain.Artifact, error) {
	p := d.ExpectedPath(target)
	a, err := d.store.FindByPath(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", p, err)
	}
	if a != nil && a.PeriodStart.IsZero() {
		a.PeriodStart = domain.StartOf(domain.UnitDay, target)
		a.Periodicity = domain.Daily
	}
	return a, nil
}
