// Package templater expands template placeholders in freshly created notes.
package templater

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// freshWindow is how old a note may be and still count as just created
const freshWindow = time.Minute

var placeholder = regexp.MustCompile(`\{\{\s*(date|time|title)\s*(?::([^}]*))?\}\}`)

// Processor implements ports.TemplateProcessor for {{date}}, {{date:FORMAT}},
// {{time}}, {{time:FORMAT}} and {{title}}
type Processor struct {
	vaultPath string
	now       func() time.Time
	logger    *zap.Logger
}

var _ ports.TemplateProcessor = (*Processor)(nil)

// New creates a processor for notes under vaultPath
func New(vaultPath string, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		vaultPath: vaultPath,
		now:       time.Now,
		logger:    logger.Named("templater"),
	}
}

// Process rewrites the note in place. Unless force is set, notes modified
// more than a minute ago are left alone.
func (p *Processor) Process(ctx context.Context, a *domain.Artifact, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(p.vaultPath, filepath.FromSlash(a.Path))
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", a.Path, err)
	}
	if !force && p.now().Sub(info.ModTime()) > freshWindow {
		p.logger.Debug("note is not fresh, skipping", zap.String("path", a.Path))
		return nil
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", a.Path, err)
	}
	out := p.Expand(string(data), a)
	if out == string(data) {
		return nil
	}
	if err := os.WriteFile(full, []byte(out), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.Path, err)
	}
	p.logger.Debug("expanded template", zap.String("path", a.Path))
	return nil
}

// Expand replaces every placeholder in content
func (p *Processor) Expand(content string, a *domain.Artifact) string {
	date := a.PeriodStart
	if date.IsZero() {
		date = p.now()
	}
	now := p.now()

	return placeholder.ReplaceAllStringFunc(content, func(m string) string {
		sub := placeholder.FindStringSubmatch(m)
		name, format := sub[1], strings.TrimSpace(sub[2])
		switch name {
		case "date":
			if format == "" {
				format = "YYYY-MM-DD"
			}
			return domain.NewDateFormat(format).Format(date)
		case "time":
			if format == "" {
				format = "HH:mm"
			}
			return domain.NewDateFormat(format).Format(now)
		default:
			return strings.TrimSuffix(path.Base(a.Path), ".md")
		}
	})
}
