package vault

import (
	"fmt"

	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/crypto"
	"github.com/koasset/koasset/pkg/model"
)

// cache holds the decrypted dataset while a session key is live.
// It only ever exists inside an authenticated Session.
type cache struct {
	data   *model.Dataset
	report model.QuarantineReport
}

// Snapshot returns a deep copy of the hydrated dataset for reading.
// Callers can inspect it freely without racing writes.
func (s *Session) Snapshot() (*model.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return nil, ErrNotAuthenticated
	}
	return s.cache.data.Clone(), nil
}

// QuarantineReport returns the record-validation report from the last
// hydrate.
func (s *Session) QuarantineReport() (model.QuarantineReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return model.QuarantineReport{}, ErrNotAuthenticated
	}
	return s.cache.report, nil
}

// Mutate applies fn to a copy of the dataset, then persists the
// result: serialize, encrypt under the session key, save, and only
// then swap the in-memory dataset. If any step fails — including fn
// itself — the cache and the stored container are unchanged.
func (s *Session) Mutate(fn func(*model.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return ErrNotAuthenticated
	}

	next := s.cache.data.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.persistLocked(next); err != nil {
		return err
	}
	s.cache.data = next
	s.logSuccess(audit.OpDataWrite)
	return nil
}

// Data returns a copy of one named collection.
func (s *Session) Data(collection string) (any, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	switch collection {
	case model.CollectionAssets:
		return snap.Assets, nil
	case model.CollectionBeneficiaries:
		return snap.Beneficiaries, nil
	case model.CollectionHistory:
		return snap.History, nil
	case model.CollectionSettings:
		return snap.Settings, nil
	default:
		return nil, fmt.Errorf("vault: unknown collection %q", collection)
	}
}

// SetData replaces one named collection wholesale and persists the
// full dataset.
func (s *Session) SetData(collection string, value any) error {
	return s.Mutate(func(d *model.Dataset) error {
		switch collection {
		case model.CollectionAssets:
			v, ok := value.([]model.Asset)
			if !ok {
				return fmt.Errorf("vault: %s expects []model.Asset", collection)
			}
			d.Assets = v
		case model.CollectionBeneficiaries:
			v, ok := value.([]model.Beneficiary)
			if !ok {
				return fmt.Errorf("vault: %s expects []model.Beneficiary", collection)
			}
			d.Beneficiaries = v
		case model.CollectionHistory:
			v, ok := value.([]model.HistoryRecord)
			if !ok {
				return fmt.Errorf("vault: %s expects []model.HistoryRecord", collection)
			}
			d.History = v
		case model.CollectionSettings:
			v, ok := value.(model.Settings)
			if !ok {
				return fmt.Errorf("vault: %s expects model.Settings", collection)
			}
			d.Settings = v
		default:
			return fmt.Errorf("vault: unknown collection %q", collection)
		}
		return nil
	})
}

// persistLocked encrypts and saves a dataset under the live key.
// Caller holds s.mu.
func (s *Session) persistLocked(d *model.Dataset) error {
	raw, err := d.Marshal()
	if err != nil {
		return err
	}
	defer crypto.SecureWipe(raw)

	container, err := crypto.Encrypt(raw, s.key, s.salt)
	if err != nil {
		return err
	}
	return s.store.SaveEncryptedData(container)
}

// ExportContainer returns the raw stored container, for encrypted
// backups. Works in any state; the container is safe to hand out.
func (s *Session) ExportContainer() (*crypto.Container, error) {
	return s.store.GetEncryptedData()
}
