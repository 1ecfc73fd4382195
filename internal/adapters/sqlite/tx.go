package sqlite

import (
	"database/sql"

	"autonotes/internal/domain"
	"autonotes/internal/ports"
)

// indexTx implements ports.IndexTx
type indexTx struct {
	tx *sql.Tx
}

// Ensure indexTx implements IndexTx
var _ ports.IndexTx = (*indexTx)(nil)

// UpsertEntry inserts or updates an entry
func (t *indexTx) UpsertEntry(entry *domain.IndexEntry) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO entries (path, periodicity, mtime)
		VALUES (?, ?, ?)
	`, entry.Path, entry.Periodicity.String(), entry.Mtime)
	return err
}

// DeleteEntry removes an entry by path
func (t *indexTx) DeleteEntry(path string) error {
	_, err := t.tx.Exec(`DELETE FROM entries WHERE path = ?`, path)
	return err
}

// RenameEntry updates an entry's path
func (t *indexTx) RenameEntry(oldPath, newPath string) error {
	_, err := t.tx.Exec(`UPDATE entries SET path = ? WHERE path = ?`, newPath, oldPath)
	return err
}

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}
