package git

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// CheckInterval is how often the commit window is checked
const CheckInterval = "@every 5m"

// The daily commit window, inclusive on both ends
const (
	windowHour      = 18
	windowLengthSec = 4*60 + 59
)

// InWindow reports whether t falls within 18:00:00-18:04:59 local time
func InWindow(t time.Time) bool {
	start := time.Date(t.Year(), t.Month(), t.Day(), windowHour, 0, 0, 0, t.Location())
	offset := t.Sub(start)
	return offset >= 0 && offset < (windowLengthSec+1)*time.Second
}

// Message expands {DATE} in the configured commit message
func Message(template string, now time.Time) string {
	if template == "" {
		template = domain.DefaultGitCommitMessage
	}
	return strings.Replace(template, "{DATE}", now.Format("2006-01-02"), 1)
}

// Schedule checks every five minutes whether the vault should be committed
type Schedule struct {
	committer ports.Committer
	settings  func() domain.Settings
	now       func() time.Time
	logger    *zap.Logger
}

// NewSchedule creates a schedule reading the current settings from settings
func NewSchedule(committer ports.Committer, settings func() domain.Settings, logger *zap.Logger) *Schedule {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Schedule{
		committer: committer,
		settings:  settings,
		now:       time.Now,
		logger:    logger.Named("git"),
	}
}

// Run checks on CheckInterval until ctx is cancelled
func (s *Schedule) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(CheckInterval, func() { s.Tick(ctx) }); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Tick commits when enabled, inside the window and the vault is a repo.
// It reports whether a commit was attempted.
func (s *Schedule) Tick(ctx context.Context) bool {
	settings := s.settings()
	now := s.now()
	if !settings.GitCommit || !InWindow(now) {
		return false
	}
	if !s.committer.IsRepo(ctx) {
		s.logger.Debug("vault is not a git repository")
		return false
	}
	if err := s.committer.Commit(ctx, Message(settings.GitCommitMessage, now)); err != nil {
		s.logger.Warn("git commit failed", zap.Error(err))
	}
	return true
}
