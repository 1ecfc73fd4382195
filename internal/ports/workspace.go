package ports

import (
	"context"

	"autonotes/internal/domain"
)

// Placement hints where a new view should be created
type Placement int

const (
	PlacementDefault Placement = iota
	PlacementFirst
)

// View is one open pane of the workspace
type View interface {
	// ArtifactPath returns the vault-relative path shown in the view, or ""
	ArtifactPath() string

	// IsPrimary reports whether this is a document view rather than an
	// auxiliary or sidebar pane
	IsPrimary() bool

	Pinned() bool
	Index() int

	Load(ctx context.Context, a *domain.Artifact) error
	SetPinned(ctx context.Context, pinned bool) error
	Close(ctx context.Context) error
	MoveTo(ctx context.Context, index int) error
}

// Workspace is the multi-pane view manager
type Workspace interface {
	// ForEachOpenView visits every open view in display order
	ForEachOpenView(fn func(View))

	// OpenNewView creates an empty view
	OpenNewView(ctx context.Context, placement Placement) (View, error)
}
