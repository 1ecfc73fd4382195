package ports

import (
	"context"

	"autonotes/internal/domain"
)

// TemplateProcessor post-processes a freshly created note
type TemplateProcessor interface {
	Process(ctx context.Context, a *domain.Artifact, force bool) error
}
