package sqlite

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

type scanned struct {
	path        string
	periodicity domain.Periodicity
	mtime       int64
}

// walkNotes calls fn for every markdown file the classifier recognises.
// Hidden directories are skipped and unreadable entries ignored.
func (idx *Index) walkNotes(classify ports.Classifier, stats *domain.SyncStats, fn func(scanned) error) error {
	return filepath.WalkDir(idx.vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != idx.vaultPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		stats.FilesScanned++

		rel, err := filepath.Rel(idx.vaultPath, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		p, ok := classify(rel)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(scanned{path: rel, periodicity: p, mtime: info.ModTime().Unix()})
	})
}

// SyncFull performs a complete rebuild of the index
func (idx *Index) SyncFull(classify ports.Classifier) (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return nil, err
	}

	err = idx.walkNotes(classify, stats, func(s scanned) error {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO entries (path, periodicity, mtime)
			VALUES (?, ?, ?)
		`, s.path, s.periodicity.String(), s.mtime); err != nil {
			return fmt.Errorf("index %s: %w", s.path, err)
		}
		stats.EntriesAdded++
		return nil
	})
	if err != nil {
		return stats, err
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_sync_time', ?)`,
		time.Now().Unix()); err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, err
	}
	if err := idx.updateMeta(); err != nil {
		return stats, fmt.Errorf("failed to update metadata: %w", err)
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// SyncIncremental updates only notes that changed since the last sync and
// drops entries whose file is gone
func (idx *Index) SyncIncremental(classify ports.Classifier) (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	var lastSyncUnix int64
	idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_sync_time'`).Scan(&lastSyncUnix)

	existing := make(map[string]string)
	rows, err := idx.db.Query(`SELECT path, periodicity FROM entries`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var path, kind string
		if err := rows.Scan(&path, &kind); err != nil {
			rows.Close()
			return nil, err
		}
		existing[path] = kind
	}
	rows.Close()

	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	seen := make(map[string]bool)
	err = idx.walkNotes(classify, stats, func(s scanned) error {
		seen[s.path] = true
		kind, known := existing[s.path]
		if known && s.mtime <= lastSyncUnix && kind == s.periodicity.String() {
			return nil
		}
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO entries (path, periodicity, mtime)
			VALUES (?, ?, ?)
		`, s.path, s.periodicity.String(), s.mtime); err != nil {
			return fmt.Errorf("index %s: %w", s.path, err)
		}
		if known {
			stats.EntriesUpdated++
		} else {
			stats.EntriesAdded++
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	for path := range existing {
		if seen[path] {
			continue
		}
		if _, err := tx.Exec(`DELETE FROM entries WHERE path = ?`, path); err != nil {
			return stats, err
		}
		stats.EntriesDeleted++
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_sync_time', ?)`,
		time.Now().Unix()); err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	return stats, nil
}
