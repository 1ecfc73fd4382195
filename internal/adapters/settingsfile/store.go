// Package settingsfile persists the settings blob as JSON on disk.
package settingsfile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mitchellh/go-homedir"
	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// settingsKey is the diskv key holding the blob, stored as <dir>/data.json
const settingsKey = "data.json"

// Store implements ports.SettingsStore on top of diskv
type Store struct {
	d      *diskv.Diskv
	dir    string
	logger *zap.Logger
}

var _ ports.SettingsStore = (*Store)(nil)

// New creates a store rooted at dir
func New(dir string, logger *zap.Logger) (*Store, error) {
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand settings dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     expanded,
			CacheSizeMax: 64 * 1024,
			FilePerm:     0644,
			PathPerm:     0755,
		}),
		dir:    expanded,
		logger: logger.Named("settings"),
	}, nil
}

// Dir returns the directory the blob is written to
func (s *Store) Dir() string {
	return s.dir
}

// Load returns the saved blob. A missing file yields an empty blob; a blob
// that is not a JSON object is logged and also yields an empty blob.
func (s *Store) Load(ctx context.Context) (domain.RawSettings, error) {
	if !s.d.Has(settingsKey) {
		return domain.RawSettings{}, nil
	}
	data, err := s.d.Read(settingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	raw, err := domain.DecodeRawSettings(data)
	if err != nil {
		s.logger.Warn("settings file is malformed, using defaults", zap.Error(err))
		return raw, nil
	}
	return raw, nil
}

// Save replaces the blob on disk
func (s *Store) Save(ctx context.Context, raw domain.RawSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.d.Write(settingsKey, data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
