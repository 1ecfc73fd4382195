package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"autonotes/internal/domain"
	"autonotes/internal/ports"

	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = "1"

// Index implements ports.ArtifactIndex using SQLite
type Index struct {
	db        *sql.DB
	dataDir   string
	vaultPath string
	dbPath    string
}

// Ensure Index implements ArtifactIndex
var _ ports.ArtifactIndex = (*Index)(nil)

// NewIndex creates a new SQLite index stored under dataDir. An empty
// dataDir means $XDG_DATA_HOME/autonotes.
func NewIndex(dataDir string) *Index {
	return &Index{dataDir: dataDir}
}

// Open initializes the index for the given vault path
func (idx *Index) Open(vaultPath string) error {
	vaultPath, err := homedir.Expand(vaultPath)
	if err != nil {
		return fmt.Errorf("failed to expand vault path: %w", err)
	}

	idx.vaultPath = vaultPath
	idx.dbPath = databasePath(idx.dataDir, vaultPath)

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", idx.dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS entries (
			path TEXT PRIMARY KEY,
			periodicity TEXT NOT NULL,
			mtime INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_periodicity ON entries(periodicity);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	return nil
}

// Close closes the database connection
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// NeedsFullRebuild returns true if the index should be fully rebuilt
func (idx *Index) NeedsFullRebuild() bool {
	var version, vaultHash string

	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'vault_path_hash'").Scan(&vaultHash)

	return version != schemaVersion || vaultHash != hashVaultPath(idx.vaultPath)
}

// databasePath returns the path for the SQLite database
func databasePath(dataDir, vaultPath string) string {
	if dataDir == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, _ := homedir.Dir()
			dataHome = filepath.Join(home, ".local", "share")
		}
		dataDir = filepath.Join(dataHome, "autonotes")
	}
	return filepath.Join(dataDir, hashVaultPath(vaultPath)+".db")
}

// hashVaultPath returns a short hash of the vault path
func hashVaultPath(vaultPath string) string {
	h := sha256.Sum256([]byte(vaultPath))
	return hex.EncodeToString(h[:8])
}

// updateMeta records the schema version and vault path hash once a full
// rebuild has completed
func (idx *Index) updateMeta() error {
	_, err := idx.db.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
		INSERT OR REPLACE INTO meta (key, value) VALUES ('vault_path_hash', ?);
	`, schemaVersion, hashVaultPath(idx.vaultPath))
	return err
}

// Get retrieves an entry by path, or nil when it is not indexed
func (idx *Index) Get(path string) (*domain.IndexEntry, error) {
	var (
		entry domain.IndexEntry
		kind  string
	)

	err := idx.db.QueryRow(`
		SELECT path, periodicity, mtime
		FROM entries WHERE path = ?
	`, path).Scan(&entry.Path, &kind, &entry.Mtime)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p, err := domain.ParsePeriodicity(kind)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", path, err)
	}
	entry.Periodicity = p
	return &entry, nil
}

// ListPaths returns every indexed path of a periodicity, sorted
func (idx *Index) ListPaths(p domain.Periodicity) ([]string, error) {
	rows, err := idx.db.Query(`
		SELECT path FROM entries WHERE periodicity = ? ORDER BY path
	`, p.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, rows.Err()
}

// BeginTx starts a new transaction
func (idx *Index) BeginTx() (ports.IndexTx, error) {
	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}
