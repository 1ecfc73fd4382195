package domain

import "time"

// IndexEntry is a cached periodic note path
type IndexEntry struct {
	Path        string // Relative path from vault root (primary key)
	Periodicity Periodicity
	Mtime       int64 // Unix timestamp for incremental sync
}

// SyncStats holds statistics from a sync operation
type SyncStats struct {
	EntriesAdded   int
	EntriesUpdated int
	EntriesDeleted int
	FilesScanned   int
	Duration       time.Duration
}
