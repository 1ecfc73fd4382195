// Package filesystem stores periodic notes as Markdown files in a vault
// directory, with an optional index for fast lookups.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// NoteConfig is where and how notes of one periodicity are stored
type NoteConfig struct {
	Folder   string // vault-relative, "" for the vault root
	Format   string // name format, defaults to domain.DefaultFormats
	Template string // vault-relative template note copied into new notes
}

// Store implements ports.DocumentStore on top of the filesystem
type Store struct {
	vaultPath string
	index     ports.ArtifactIndex
	logger    *zap.Logger

	mu    sync.RWMutex
	notes map[domain.Periodicity]NoteConfig
}

var (
	_ ports.DocumentStore      = (*Store)(nil)
	_ ports.AvailabilitySource = (*Store)(nil)
)

// Option configures a Store
type Option func(*Store)

// WithIndex serves lookups from an already opened index
func WithIndex(idx ports.ArtifactIndex) Option {
	return func(s *Store) { s.index = idx }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.Named("store")
		}
	}
}

// NewStore creates a store for the vault at vaultPath. Only periodicities
// present in notes are available.
func NewStore(vaultPath string, notes map[domain.Periodicity]NoteConfig, opts ...Option) *Store {
	if expanded, err := homedir.Expand(vaultPath); err == nil {
		vaultPath = expanded
	}
	s := &Store{
		vaultPath: vaultPath,
		logger:    zap.NewNop(),
	}
	s.SetNotes(notes)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VaultPath returns the absolute vault root
func (s *Store) VaultPath() string {
	return s.vaultPath
}

// SetNotes replaces the per-periodicity configuration
func (s *Store) SetNotes(notes map[domain.Periodicity]NoteConfig) {
	clean := make(map[domain.Periodicity]NoteConfig, len(notes))
	for p, nc := range notes {
		nc.Folder = strings.Trim(path.Clean("/"+filepath.ToSlash(nc.Folder)), "/")
		if nc.Format == "" {
			nc.Format = domain.DefaultFormats[p]
		}
		clean[p] = nc
	}
	s.mu.Lock()
	s.notes = clean
	s.mu.Unlock()
}

func (s *Store) config(p domain.Periodicity) (NoteConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nc, ok := s.notes[p]
	return nc, ok
}

// Available reports which periodicities have a folder configured
func (s *Store) Available() map[domain.Periodicity]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.Periodicity]bool, len(s.notes))
	for p := range s.notes {
		out[p] = true
	}
	return out
}

// FormatAndFolder returns the configured name format and folder
func (s *Store) FormatAndFolder(p domain.Periodicity) (format, folder string) {
	nc, ok := s.config(p)
	if !ok {
		return domain.DefaultFormats[p], ""
	}
	return nc.Format, nc.Folder
}

// Abs converts a vault-relative path to an absolute filesystem path
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.vaultPath, filepath.FromSlash(rel))
}

func (s *Store) pathFor(p domain.Periodicity, date time.Time) string {
	format, folder := s.FormatAndFolder(p)
	return path.Join(folder, domain.NewDateFormat(format).Format(date)+".md")
}

// Classify returns the periodicity whose folder and name format rel
// matches
func (s *Store) Classify(rel string) (domain.Periodicity, bool) {
	rel = filepath.ToSlash(rel)
	if path.Ext(rel) != ".md" {
		return 0, false
	}
	dir, name := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	name = strings.TrimSuffix(name, ".md")

	s.mu.RLock()
	defer s.mu.RUnlock()
	// coarsest first so a bare "YYYY" folder never swallows finer notes
	for _, p := range domain.AllPeriodicities() {
		nc, ok := s.notes[p]
		if !ok || nc.Folder != dir {
			continue
		}
		if domain.NewDateFormat(nc.Format).Regexp().MatchString(name) {
			return p, true
		}
	}
	return 0, false
}

// Exists reports whether the note for the period starting at date is known
func (s *Store) Exists(ctx context.Context, unit domain.Unit, date time.Time) (bool, error) {
	p := unit.Periodicity()
	if _, ok := s.config(p); !ok {
		return false, nil
	}
	rel := s.pathFor(p, date)

	if s.index != nil {
		entry, err := s.index.Get(rel)
		if err != nil {
			return false, fmt.Errorf("index lookup %s: %w", rel, err)
		}
		return entry != nil, nil
	}

	info, err := os.Stat(s.Abs(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Create writes the note for the period starting at date, seeded from the
// configured template. An existing file is never overwritten.
func (s *Store) Create(ctx context.Context, unit domain.Unit, date time.Time) (*domain.Artifact, error) {
	p := unit.Periodicity()
	nc, ok := s.config(p)
	if !ok {
		return nil, fmt.Errorf("no %s folder configured", p)
	}
	rel := s.pathFor(p, date)
	full := s.Abs(rel)

	var content []byte
	if nc.Template != "" {
		tpl := nc.Template
		if path.Ext(tpl) == "" {
			tpl += ".md"
		}
		data, err := os.ReadFile(s.Abs(tpl))
		if err != nil {
			s.logger.Warn("template unreadable, creating empty note",
				zap.String("template", tpl),
				zap.Error(err),
			)
		} else {
			content = data
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%s: %w", rel, ports.ErrArtifactExists)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write note: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write note: %w", err)
	}

	if err := s.upsert(rel, p); err != nil {
		s.logger.Warn("index update failed", zap.String("path", rel), zap.Error(err))
	}

	return &domain.Artifact{Periodicity: p, PeriodStart: date, Path: rel}, nil
}

// ListAll returns the vault-relative paths of every note of p, sorted
func (s *Store) ListAll(ctx context.Context, p domain.Periodicity) ([]string, error) {
	nc, ok := s.config(p)
	if !ok {
		return nil, nil
	}
	if s.index != nil {
		return s.index.ListPaths(p)
	}

	entries, err := os.ReadDir(s.Abs(nc.Folder))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s folder: %w", p, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rel := path.Join(nc.Folder, e.Name())
		if kind, ok := s.Classify(rel); ok && kind == p {
			paths = append(paths, rel)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Current returns the note for the period starting at date, or nil
func (s *Store) Current(ctx context.Context, unit domain.Unit, date time.Time) (*domain.Artifact, error) {
	ok, err := s.Exists(ctx, unit, date)
	if err != nil || !ok {
		return nil, err
	}
	p := unit.Periodicity()
	return &domain.Artifact{Periodicity: p, PeriodStart: date, Path: s.pathFor(p, date)}, nil
}

// FindByPath stats rel on disk, bypassing the index
func (s *Store) FindByPath(ctx context.Context, rel string) (*domain.Artifact, error) {
	info, err := os.Stat(s.Abs(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	a := &domain.Artifact{Path: filepath.ToSlash(rel)}
	if p, ok := s.Classify(rel); ok {
		a.Periodicity = p
		// picked up before the watcher saw it
		if err := s.upsert(a.Path, p); err != nil {
			s.logger.Debug("index update failed", zap.String("path", a.Path), zap.Error(err))
		}
	}
	return a, nil
}

// Sync brings the index up to date with the vault
func (s *Store) Sync(ctx context.Context) (*domain.SyncStats, error) {
	if s.index == nil {
		return &domain.SyncStats{}, nil
	}
	if s.index.NeedsFullRebuild() {
		return s.index.SyncFull(s.Classify)
	}
	return s.index.SyncIncremental(s.Classify)
}

// Refresh re-reads one vault-relative path after a change on disk
func (s *Store) Refresh(rel string) error {
	rel = filepath.ToSlash(rel)
	p, periodic := s.Classify(rel)
	_, statErr := os.Stat(s.Abs(rel))
	if periodic && statErr == nil {
		return s.upsert(rel, p)
	}
	return s.remove(rel)
}

// Rename moves an index entry after a rename on disk
func (s *Store) Rename(oldRel, newRel string) error {
	if s.index == nil {
		return nil
	}
	if _, ok := s.Classify(newRel); !ok {
		return s.remove(oldRel)
	}
	tx, err := s.index.BeginTx()
	if err != nil {
		return err
	}
	if err := tx.RenameEntry(filepath.ToSlash(oldRel), filepath.ToSlash(newRel)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) upsert(rel string, p domain.Periodicity) error {
	if s.index == nil {
		return nil
	}
	var mtime int64
	if info, err := os.Stat(s.Abs(rel)); err == nil {
		mtime = info.ModTime().Unix()
	}
	tx, err := s.index.BeginTx()
	if err != nil {
		return err
	}
	if err := tx.UpsertEntry(&domain.IndexEntry{Path: rel, Periodicity: p, Mtime: mtime}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) remove(rel string) error {
	if s.index == nil {
		return nil
	}
	tx, err := s.index.BeginTx()
	if err != nil {
		return err
	}
	if err := tx.DeleteEntry(rel); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
