package ports

import "context"

// Committer snapshots the vault into version control
type Committer interface {
	IsRepo(ctx context.Context) bool
	Commit(ctx context.Context, message string) error
}
