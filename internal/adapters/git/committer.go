// Package git snapshots the vault into its git repository once a day.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"autonotes/internal/ports"
)

// Runner executes git with args inside dir and returns its stdout
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Committer implements ports.Committer with the git binary
type Committer struct {
	dir    string
	run    Runner
	logger *zap.Logger
}

var _ ports.Committer = (*Committer)(nil)

// NewCommitter creates a committer for the repository at dir
func NewCommitter(dir string, logger *zap.Logger) *Committer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Committer{dir: dir, run: execGit, logger: logger.Named("git")}
}

// IsRepo reports whether the vault root holds a .git folder
func (c *Committer) IsRepo(ctx context.Context) bool {
	info, err := os.Stat(filepath.Join(c.dir, ".git"))
	return err == nil && info.IsDir()
}

// Commit stages everything, commits with message and pushes. A clean
// working tree is not an error.
func (c *Committer) Commit(ctx context.Context, message string) error {
	status, err := c.run(ctx, c.dir, "status", "--porcelain")
	if err != nil {
		return err
	}
	if strings.TrimSpace(status) == "" {
		c.logger.Debug("nothing to commit")
		return nil
	}

	c.logger.Debug("staging changes")
	if _, err := c.run(ctx, c.dir, "add", "."); err != nil {
		return err
	}
	c.logger.Debug("committing changes")
	if _, err := c.run(ctx, c.dir, "commit", "-m", message); err != nil {
		return err
	}
	c.logger.Debug("pushing changes")
	if _, err := c.run(ctx, c.dir, "push"); err != nil {
		return err
	}
	c.logger.Info("vault committed", zap.String("message", message))
	return nil
}

func execGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
