package ports

import "autonotes/internal/domain"

// Classifier maps a vault-relative path to the periodicity whose folder and
// format it matches
type Classifier func(relPath string) (domain.Periodicity, bool)

// ArtifactIndex provides cached access to the periodic notes of a vault.
// Lookups should be O(1) or O(log n) via database indexes.
type ArtifactIndex interface {
	// Lifecycle
	Open(vaultPath string) error
	Close() error

	// Sync operations
	NeedsFullRebuild() bool
	SyncIncremental(classify Classifier) (*domain.SyncStats, error)
	SyncFull(classify Classifier) (*domain.SyncStats, error)

	// Queries
	Get(path string) (*domain.IndexEntry, error)
	ListPaths(p domain.Periodicity) ([]string, error)

	// Batch updates
	BeginTx() (IndexTx, error)
}

// IndexTx represents a transaction for atomic cache updates
type IndexTx interface {
	UpsertEntry(entry *domain.IndexEntry) error
	DeleteEntry(path string) error
	RenameEntry(oldPath, newPath string) error

	// Transaction control
	Commit() error
	Rollback() error
}
