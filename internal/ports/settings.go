package ports

import (
	"context"

	"autonotes/internal/domain"
)

// SettingsStore persists the settings blob
type SettingsStore interface {
	// Load returns the persisted blob, or an empty one when nothing was saved
	Load(ctx context.Context) (domain.RawSettings, error)
	Save(ctx context.Context, raw domain.RawSettings) error
}
