// Package notes is the uniform facade over the five kinds of periodic notes.
package notes

import (
	"context"
	"fmt"
	"time"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// Provider answers presence and creation questions for one periodicity.
// Every reference date is truncated to the start of its period first.
type Provider struct {
	periodicity domain.Periodicity
	store       ports.DocumentStore
}

// ForPeriodicity creates the provider of periodicity p
func ForPeriodicity(p domain.Periodicity, store ports.DocumentStore) *Provider {
	return &Provider{periodicity: p, store: store}
}

// All creates one provider per periodicity
func All(store ports.DocumentStore) map[domain.Periodicity]*Provider {
	providers := make(map[domain.Periodicity]*Provider, 5)
	for _, p := range domain.AllPeriodicities() {
		providers[p] = ForPeriodicity(p, store)
	}
	return providers
}

// Periodicity returns the kind of note this provider manages
func (p *Provider) Periodicity() domain.Periodicity {
	return p.periodicity
}

func (p *Provider) unit() domain.Unit {
	return p.periodicity.Unit()
}

// PeriodStart truncates ref to the start of this provider's period. Weeks
// begin on the day the configured name format counts from.
func (p *Provider) PeriodStart(ref time.Time) time.Time {
	if p.periodicity == domain.Weekly {
		format, _ := p.store.FormatAndFolder(domain.Weekly)
		if format == "" {
			format = domain.DefaultFormats[domain.Weekly]
		}
		return domain.StartOfWeek(ref, domain.NewDateFormat(format).WeekStart())
	}
	return domain.StartOf(p.unit(), ref)
}

// IsPresent reports whether the note for ref's period exists
func (p *Provider) IsPresent(ctx context.Context, ref time.Time) (bool, error) {
	ok, err := p.store.Exists(ctx, p.unit(), p.PeriodStart(ref))
	if err != nil {
		return false, fmt.Errorf("lookup %s note: %w", p.periodicity, err)
	}
	return ok, nil
}

// Create creates the note for ref's period. It does not check for an
// existing note first.
func (p *Provider) Create(ctx context.Context, ref time.Time) (*domain.Artifact, error) {
	a, err := p.store.Create(ctx, p.unit(), p.PeriodStart(ref))
	if err != nil {
		return nil, fmt.Errorf("create %s note: %w", p.periodicity, err)
	}
	return a, nil
}

// AllPaths returns the paths of every known note of this kind
func (p *Provider) AllPaths(ctx context.Context) ([]string, error) {
	paths, err := p.store.ListAll(ctx, p.periodicity)
	if err != nil {
		return nil, fmt.Errorf("list %s notes: %w", p.periodicity, err)
	}
	return paths, nil
}

// Current returns the note for ref's period without creating it, or nil
func (p *Provider) Current(ctx context.Context, ref time.Time) (*domain.Artifact, error) {
	a, err := p.store.Current(ctx, p.unit(), p.PeriodStart(ref))
	if err != nil {
		return nil, fmt.Errorf("current %s note: %w", p.periodicity, err)
	}
	return a, nil
}
