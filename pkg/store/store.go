// Package store persists the vault's two durable blobs in SQLite: the
// encrypted container (slot "data") and the lockout metadata (slot
// "auth"). Both are stored as JSON text in a single slots table.
//
// The store is deliberately key-blind: it never sees plaintext or key
// material. Slot writes are total overwrites inside one transaction,
// so a crash mid-write leaves the prior value intact.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/koasset/koasset/pkg/crypto"
	"github.com/koasset/koasset/pkg/lockout"
)

const (
	// DBFileName is the SQLite database file inside the vault directory.
	DBFileName = "vault.db"

	// FileMode restricts the database to the owner.
	FileMode = 0600

	// DirMode restricts the vault directory to the owner.
	DirMode = 0700

	slotData = "data"
	slotAuth = "auth"
)

// ErrStorage wraps every underlying persistence failure so callers can
// classify storage trouble without depending on database/sql errors.
var ErrStorage = errors.New("store: storage failure")

// Store is the encrypted container store backed by a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (creating if necessary) the store in the given vault
// directory. The directory is created with 0700 and the database file
// tightened to 0600.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("%w: failed to create vault directory: %v", ErrStorage, err)
	}

	dbPath := filepath.Join(dir, DBFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", ErrStorage, err)
	}

	// Single-connection mode avoids "database is locked" errors; one
	// process owns the vault.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS slots (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create slots table: %v", ErrStorage, err)
	}

	if err := os.Chmod(dbPath, FileMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to set database permissions: %v", ErrStorage, err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// GetEncryptedData returns the stored container, or nil when the vault
// has never been initialized.
func (s *Store) GetEncryptedData() (*crypto.Container, error) {
	raw, ok, err := s.getSlot(slotData)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var c crypto.Container
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: corrupt data slot: %v", ErrStorage, err)
	}
	return &c, nil
}

// SaveEncryptedData overwrites the stored container with a new one.
func (s *Store) SaveEncryptedData(c *crypto.Container) error {
	if c == nil {
		return fmt.Errorf("%w: nil container", ErrStorage)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: failed to encode container: %v", ErrStorage, err)
	}
	return s.putSlot(slotData, raw)
}

// GetAuthMetadata returns the stored lockout metadata, or the zero
// value when none has been written yet.
func (s *Store) GetAuthMetadata() (lockout.Metadata, error) {
	raw, ok, err := s.getSlot(slotAuth)
	if err != nil || !ok {
		return lockout.Metadata{}, err
	}

	var m lockout.Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return lockout.Metadata{}, fmt.Errorf("%w: corrupt auth slot: %v", ErrStorage, err)
	}
	return m, nil
}

// SaveAuthMetadata overwrites the stored lockout metadata.
func (s *Store) SaveAuthMetadata(m lockout.Metadata) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: failed to encode auth metadata: %v", ErrStorage, err)
	}
	return s.putSlot(slotAuth, raw)
}

// ClearAll deletes both slots. Only the explicit full-reset flow calls
// this; nothing else ever deletes the container.
func (s *Store) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM slots`); err != nil {
		return fmt.Errorf("%w: failed to clear slots: %v", ErrStorage, err)
	}
	return nil
}

func (s *Store) getSlot(name string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM slots WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: failed to read slot %q: %v", ErrStorage, name, err)
	}
	return []byte(value), true, nil
}

func (s *Store) putSlot(name string, value []byte) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO slots (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, name, string(value))
	if err != nil {
		return fmt.Errorf("%w: failed to write slot %q: %v", ErrStorage, name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit slot %q: %v", ErrStorage, name, err)
	}
	return nil
}
