// Package watcher keeps the note index in step with changes made to the
// vault by other tools.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// renameWindow is how long a Rename waits for the matching Create
const renameWindow = 100 * time.Millisecond

// Indexer receives vault-relative paths whose state changed on disk
type Indexer interface {
	Refresh(rel string) error
	Rename(oldRel, newRel string) error
}

// Watcher follows the vault tree with fsnotify
type Watcher struct {
	root     string
	indexer  Indexer
	logger   *zap.Logger
	onChange func()
	delay    time.Duration
	ready    chan struct{} // closed once the initial watches are in place
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l.Named("watcher")
		}
	}
}

// OnChange registers fn, called once per burst of note changes
func OnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithThrottle sets how long a burst of events is coalesced
func WithThrottle(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// New creates a watcher for the vault at root
func New(root string, indexer Indexer, opts ...Option) *Watcher {
	w := &Watcher{
		root:    filepath.Clean(root),
		indexer: indexer,
		logger:  zap.NewNop(),
		delay:   250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	defer fw.Close()

	dirs, err := collectDirs(w.root)
	if err != nil {
		return fmt.Errorf("watcher: enumerate directories: %w", err)
	}
	watched := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watcher: watch %s: %w", dir, err)
		}
		watched[dir] = struct{}{}
	}
	w.logger.Debug("watching vault", zap.String("root", w.root), zap.Int("dirs", len(dirs)))
	if w.ready != nil {
		close(w.ready)
	}

	notify := newThrottle(w.delay, w.onChange)
	defer notify.Stop()

	var (
		pendingRename string
		renameTimer   <-chan time.Time
	)
	flushRename := func() {
		if pendingRename != "" {
			w.refresh(pendingRename)
			pendingRename = ""
		}
		renameTimer = nil
	}

	for {
		select {
		case <-ctx.Done():
			flushRename()
			return nil

		case <-renameTimer:
			flushRename()
			notify.Enqueue()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if isHidden(w.root, evt.Name) {
				continue
			}

			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					w.watchTree(fw, evt.Name, watched)
					continue
				}
			}

			rel, ok := w.rel(evt.Name)
			if !ok || !strings.HasSuffix(strings.ToLower(rel), ".md") {
				continue
			}

			switch {
			case evt.Has(fsnotify.Rename):
				flushRename()
				pendingRename = rel
				renameTimer = time.After(renameWindow)
			case evt.Has(fsnotify.Create) && pendingRename != "":
				if err := w.indexer.Rename(pendingRename, rel); err != nil {
					w.logger.Warn("index rename failed",
						zap.String("from", pendingRename),
						zap.String("to", rel),
						zap.Error(err),
					)
				}
				pendingRename = ""
				renameTimer = nil
			default:
				w.refresh(rel)
			}
			notify.Enqueue()
		}
	}
}

func (w *Watcher) refresh(rel string) {
	if err := w.indexer.Refresh(rel); err != nil {
		w.logger.Warn("index refresh failed", zap.String("path", rel), zap.Error(err))
	}
}

func (w *Watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// watchTree adds dir and everything below it; notes written before the
// watch was in place are picked up through Refresh
func (w *Watcher) watchTree(fw *fsnotify.Watcher, dir string, watched map[string]struct{}) {
	dirs, err := collectDirs(dir)
	if err != nil {
		w.logger.Warn("failed to enumerate new directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	for _, d := range dirs {
		if _, found := watched[d]; found {
			continue
		}
		if err := fw.Add(d); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("dir", d), zap.Error(err))
			continue
		}
		watched[d] = struct{}{}

		entries, err := os.ReadDir(d)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if rel, ok := w.rel(filepath.Join(d, e.Name())); ok {
				w.refresh(rel)
			}
		}
	}
}

// collectDirs returns base and every non-hidden directory below it
func collectDirs(base string) ([]string, error) {
	base = filepath.Clean(base)
	dirs := []string{base}
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() || path == base {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func isHidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// throttle coalesces rapid change notifications into one call
type throttle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func()
}

func newThrottle(delay time.Duration, fn func()) *throttle {
	return &throttle{delay: delay, fn: fn}
}

func (t *throttle) Enqueue() {
	if t.fn == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, t.flush)
	}
}

func (t *throttle) flush() {
	t.mu.Lock()
	t.timer = nil
	t.mu.Unlock()
	t.fn()
}

func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
