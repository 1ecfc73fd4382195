package reconcile

import (
	"errors"
	"time"

	"autonotes/internal/domain"
)

// Outcome is what one periodicity's reconciliation did
type Outcome struct {
	Periodicity domain.Periodicity
	Skipped     string // reason, empty when processed
	Target      string
	Created     bool
	Closed      []string
	Unpinned    []string
	Opened      bool
	Pinned      bool
	Err         error
}

// Report collects the outcomes of one pass, in pass order
type Report struct {
	Trigger  domain.Trigger
	Started  time.Time
	Outcomes []Outcome
}

// Err joins every per-periodicity error, or returns nil
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Outcome returns the outcome recorded for p
func (r *Report) Outcome(p domain.Periodicity) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Periodicity == p {
			return o, true
		}
	}
	return Outcome{}, false
}

// Created returns the paths of every note created during the pass
func (r *Report) Created() []string {
	var paths []string
	for _, o := range r.Outcomes {
		if o.Created {
			paths = append(paths, o.Target)
		}
	}
	return paths
}
