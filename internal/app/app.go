// Package app builds the object graph shared by every binary.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"autonotes/internal/adapters/filesystem"
	"autonotes/internal/adapters/git"
	"autonotes/internal/adapters/host"
	"autonotes/internal/adapters/notify"
	"autonotes/internal/adapters/obsidian"
	"autonotes/internal/adapters/settingsfile"
	"autonotes/internal/adapters/sqlite"
	"autonotes/internal/adapters/templater"
	"autonotes/internal/adapters/watcher"
	"autonotes/internal/application/orchestrator"
	"autonotes/internal/application/reconcile"
	"autonotes/internal/application/scheduler"
	"autonotes/internal/config"
	"autonotes/internal/domain"
	"autonotes/internal/logging"
	"autonotes/internal/ports"
)

// noticeHistory is how many notices status output can show
const noticeHistory = 20

// Options tunes the graph for one binary
type Options struct {
	// LogOutput overrides where logs go when no log_file is configured.
	// Defaults to stderr.
	LogOutput   []string
	Development bool
	// Notices receives user notices as they happen; nil keeps them in the
	// recorder only
	Notices io.Writer
	// Launch opens every note the engine loads in the Obsidian app
	Launch bool
	// Clock drives the scheduler; nil means the system clock
	Clock scheduler.Clock
}

// App holds the wired components
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Level        zap.AtomicLevel
	DeviceID     string
	Index        *sqlite.Index // nil when the index could not be opened
	Store        *filesystem.Store
	Settings     *settingsfile.Store
	Workspace    *obsidian.Workspace
	Notices      *notify.Recorder
	Engine       *reconcile.Engine
	Scheduler    *scheduler.Scheduler
	Wake         *host.WakeDetector
	Orchestrator *orchestrator.Orchestrator
	Committer    *git.Committer
}

// New wires every component from cfg. Nothing is started.
func New(cfg *config.Config, opts Options) (*App, error) {
	logOutput := opts.LogOutput
	if cfg.LogFile != "" {
		logOutput = []string{cfg.LogFile}
	}
	logger, level, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		Development: opts.Development,
		OutputPaths: logOutput,
	})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Level: level}

	noteConfigs, err := cfg.NoteConfigs()
	if err != nil {
		logger.Warn("ignoring notes configuration", zap.Error(err))
	}
	notes := make(map[domain.Periodicity]filesystem.NoteConfig, len(noteConfigs))
	for p, nc := range noteConfigs {
		notes[p] = filesystem.NoteConfig{Folder: nc.Folder, Format: nc.Format, Template: nc.Template}
	}

	storeOpts := []filesystem.Option{filesystem.WithLogger(logger)}
	idx := sqlite.NewIndex(cfg.DataDir)
	if err := idx.Open(cfg.Vault); err != nil {
		logger.Warn("note index unavailable, reading the vault directly", zap.Error(err))
	} else {
		a.Index = idx
		storeOpts = append(storeOpts, filesystem.WithIndex(idx))
	}
	a.Store = filesystem.NewStore(cfg.Vault, notes, storeOpts...)

	if a.Settings, err = settingsfile.New(cfg.SettingsDir, logger); err != nil {
		a.Close()
		return nil, err
	}
	if a.DeviceID, err = host.DeviceID(cfg.DeviceID, cfg.DataDir); err != nil {
		a.Close()
		return nil, err
	}

	wsOpts := []obsidian.WorkspaceOption{obsidian.WithWorkspaceLogger(logger)}
	if opts.Launch {
		wsOpts = append(wsOpts, obsidian.WithOpener(obsidian.NewOpener(cfg.Vault)))
	}
	a.Workspace = obsidian.NewWorkspace(cfg.WorkspaceFile, cfg.Vault, wsOpts...)

	var console ports.Notifier
	if opts.Notices != nil {
		console = notify.NewConsole(opts.Notices)
	}
	a.Notices = notify.NewRecorder(noticeHistory, console)

	a.Engine = reconcile.NewEngine(a.Store, a.Workspace, a.Notices,
		reconcile.WithTemplater(templater.New(cfg.Vault, logger)),
		reconcile.WithLogger(logger),
		reconcile.WithSettlingDelay(cfg.SettlingDelay),
	)

	schedOpts := []scheduler.Option{scheduler.WithDriftTolerance(cfg.DriftTolerance)}
	if opts.Clock != nil {
		schedOpts = append(schedOpts, scheduler.WithClock(opts.Clock))
	}
	a.Scheduler = scheduler.New(logger, schedOpts...)

	wakeInterval := cfg.WakeInterval
	if wakeInterval <= 0 {
		wakeInterval = 30 * time.Second
	}
	a.Wake = host.NewWakeDetector(wakeInterval, wakeInterval, logger)

	a.Orchestrator = orchestrator.New(a.DeviceID, a.Settings, a.Engine, a.Scheduler,
		orchestrator.WithLogger(logger),
		orchestrator.WithLevel(level),
		orchestrator.WithVisibility(a.Wake),
		orchestrator.WithAvailability(a.Store),
	)
	a.Committer = git.NewCommitter(cfg.Vault, logger)

	logger.Debug("wired",
		zap.String("vault", cfg.Vault),
		zap.String("device", a.DeviceID),
		zap.Bool("indexed", a.Index != nil),
	)
	return a, nil
}

// Sync brings the note index up to date with the vault
func (a *App) Sync(ctx context.Context) error {
	stats, err := a.Store.Sync(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync index: %w", err)
	}
	a.Logger.Debug("index synced",
		zap.Int("scanned", stats.FilesScanned),
		zap.Int("added", stats.EntriesAdded),
		zap.Int("updated", stats.EntriesUpdated),
		zap.Int("deleted", stats.EntriesDeleted),
		zap.Duration("took", stats.Duration),
	)
	return nil
}

// Watcher returns a vault watcher feeding the store. onChange may be nil.
func (a *App) Watcher(onChange func()) *watcher.Watcher {
	opts := []watcher.Option{watcher.WithLogger(a.Logger)}
	if onChange != nil {
		opts = append(opts, watcher.OnChange(onChange))
	}
	return watcher.New(a.Store.VaultPath(), a.Store, opts...)
}

// GitSchedule returns the daily commit helper reading the live settings
func (a *App) GitSchedule() *git.Schedule {
	return git.NewSchedule(a.Committer, a.Orchestrator.Settings, a.Logger)
}

// Close stops the orchestrator and releases the index
func (a *App) Close() {
	if a.Orchestrator != nil {
		a.Orchestrator.Stop()
	}
	if a.Index != nil {
		if err := a.Index.Close(); err != nil {
			a.Logger.Warn("failed to close index", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
