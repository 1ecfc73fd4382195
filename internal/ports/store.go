package ports

import (
	"context"
	"errors"
	"time"

	"autonotes/internal/domain"
)

// ErrArtifactExists is returned by Create when the note is already on disk
var ErrArtifactExists = errors.New("artifact already exists")

// DocumentStore defines the interface for periodic note storage
type DocumentStore interface {
	// Exists reports whether the note for the period containing date is known.
	// This is the fast lookup; it may miss notes that are not indexed yet.
	Exists(ctx context.Context, unit domain.Unit, date time.Time) (bool, error)

	// Create writes the note for the period containing date
	Create(ctx context.Context, unit domain.Unit, date time.Time) (*domain.Artifact, error)

	// ListAll returns the vault-relative paths of every known note of a periodicity
	ListAll(ctx context.Context, p domain.Periodicity) ([]string, error)

	// Current returns the note for the period containing date, or nil
	Current(ctx context.Context, unit domain.Unit, date time.Time) (*domain.Artifact, error)

	// FormatAndFolder returns the configured name format and folder
	FormatAndFolder(p domain.Periodicity) (format, folder string)

	// FindByPath probes the disk directly for a vault-relative path.
	// Returns nil when nothing is there.
	FindByPath(ctx context.Context, path string) (*domain.Artifact, error)
}

// AvailabilitySource reports which periodicities the store has configured
type AvailabilitySource interface {
	Available() map[domain.Periodicity]bool
}
