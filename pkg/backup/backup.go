// Package backup implements export and import of the vault in two
// forms: the encrypted container verbatim (safe to store anywhere),
// and a plaintext bundle of the decrypted records (for migration; the
// user owns the risk).
package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/koasset/koasset/pkg/crypto"
	"github.com/koasset/koasset/pkg/lockout"
	"github.com/koasset/koasset/pkg/model"
	"github.com/koasset/koasset/pkg/store"
)

// BundleVersion is the plaintext bundle format version.
const BundleVersion = 1

// Vault is the slice of the session the plaintext paths need.
type Vault interface {
	Snapshot() (*model.Dataset, error)
	Mutate(fn func(*model.Dataset) error) error
}

// EncryptedFilename returns the conventional name for an encrypted
// backup taken at the given time.
func EncryptedFilename(now time.Time) string {
	return "koasset-backup-" + now.Format("2006-01-02") + ".enc"
}

// PlainFilename returns the conventional name for a plaintext backup.
func PlainFilename(now time.Time) string {
	return "koasset-backup-" + now.Format("2006-01-02") + ".json"
}

// ExportEncrypted dumps the stored container as JSON, byte-exact with
// what sits on disk. No key is needed; the export is as safe as the
// vault itself.
func ExportEncrypted(st *store.Store) ([]byte, error) {
	container, err := st.GetEncryptedData()
	if err != nil {
		return nil, err
	}
	if container == nil {
		return nil, ErrNoData
	}
	data, err := json.Marshal(container)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to encode container: %w", err)
	}
	return data, nil
}

// ImportEncrypted restores an encrypted backup, destructively
// replacing the local container.
//
// The file is validated structurally first, then test-decrypted with a
// key derived from the backup's own salt. Only after the PIN proves
// correct is anything written: the container is replaced and the
// lockout state cleared. Any failure leaves the local vault untouched.
// Callers must require a fresh login afterwards.
func ImportEncrypted(st *store.Store, data []byte, pin string) error {
	// 1. Structural validation before any crypto
	var container crypto.Container
	if err := json.Unmarshal(data, &container); err != nil {
		return fmt.Errorf("%w: not a container file", ErrInvalidFormat)
	}
	if err := container.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	// 2. The backup carries its own salt; derive and test-decrypt
	salt, err := container.SaltBytes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	key := crypto.DeriveKey([]byte(pin), salt)
	defer crypto.SecureWipe(key)

	plaintext, err := crypto.Decrypt(&container, key)
	if err != nil {
		return ErrWrongPIN
	}
	crypto.SecureWipe(plaintext)

	// 3. PIN verified: replace the container and clear stale lockout
	if err := st.SaveEncryptedData(&container); err != nil {
		return err
	}
	return st.SaveAuthMetadata(lockout.RecordSuccess())
}

// Bundle is the plaintext backup payload. Settings stay local and are
// not exported.
type Bundle struct {
	Version       int                   `json:"version"`
	Timestamp     time.Time             `json:"timestamp"`
	Assets        []model.Asset         `json:"assets"`
	Beneficiaries []model.Beneficiary   `json:"beneficiaries"`
	History       []model.HistoryRecord `json:"history"`
}

// ExportPlain serializes the decrypted records from an authenticated
// session.
func ExportPlain(v Vault) ([]byte, error) {
	snap, err := v.Snapshot()
	if err != nil {
		return nil, err
	}
	bundle := Bundle{
		Version:       BundleVersion,
		Timestamp:     time.Now().UTC(),
		Assets:        snap.Assets,
		Beneficiaries: snap.Beneficiaries,
		History:       snap.History,
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("backup: failed to encode bundle: %w", err)
	}
	return data, nil
}

// ImportPlain replaces the record collections wholesale from a
// plaintext bundle, through an authenticated session. Names and notes
// are NFC-normalized so records written on other platforms compare
// equal afterwards. Records failing validation abort the import.
func ImportPlain(v Vault, data []byte) error {
	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("%w: not a backup bundle", ErrInvalidFormat)
	}
	if bundle.Version != BundleVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, bundle.Version)
	}
	if bundle.Assets == nil || bundle.Beneficiaries == nil || bundle.History == nil {
		return fmt.Errorf("%w: missing record collections", ErrInvalidFormat)
	}

	for i := range bundle.Assets {
		a := &bundle.Assets[i]
		a.Name = norm.NFC.String(a.Name)
		a.Institution = norm.NFC.String(a.Institution)
		a.Notes = norm.NFC.String(a.Notes)
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	for i := range bundle.Beneficiaries {
		b := &bundle.Beneficiaries[i]
		b.Name = norm.NFC.String(b.Name)
		b.GuardianName = norm.NFC.String(b.GuardianName)
		b.Address = norm.NFC.String(b.Address)
		if err := b.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}
	for i := range bundle.History {
		h := &bundle.History[i]
		h.Note = norm.NFC.String(h.Note)
		if err := h.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	}

	return v.Mutate(func(d *model.Dataset) error {
		d.Assets = bundle.Assets
		d.Beneficiaries = bundle.Beneficiaries
		d.History = bundle.History
		return nil
	})
}
