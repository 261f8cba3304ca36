package estate

import (
	"sort"
	"strings"
	"time"

	"github.com/koasset/koasset/pkg/model"
)

// CreateBeneficiary validates and stores a new beneficiary.
func (s *Service) CreateBeneficiary(b model.Beneficiary) (model.Beneficiary, error) {
	now := time.Now().UTC()
	b.ID = model.NewID()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := b.Validate(); err != nil {
		return model.Beneficiary{}, err
	}

	err := s.vault.Mutate(func(d *model.Dataset) error {
		d.Beneficiaries = append(d.Beneficiaries, b)
		return nil
	})
	if err != nil {
		return model.Beneficiary{}, err
	}
	return b, nil
}

// UpdateBeneficiary replaces the stored beneficiary.
func (s *Service) UpdateBeneficiary(b model.Beneficiary) (model.Beneficiary, error) {
	b.UpdatedAt = time.Now().UTC()
	if err := b.Validate(); err != nil {
		return model.Beneficiary{}, err
	}

	err := s.vault.Mutate(func(d *model.Dataset) error {
		for i := range d.Beneficiaries {
			if d.Beneficiaries[i].ID == b.ID {
				b.CreatedAt = d.Beneficiaries[i].CreatedAt
				d.Beneficiaries[i] = b
				return nil
			}
		}
		return ErrBeneficiaryNotFound
	})
	if err != nil {
		return model.Beneficiary{}, err
	}
	return b, nil
}

// DeleteBeneficiary removes a beneficiary. It refuses while any asset
// still references the beneficiary, so designations never dangle.
func (s *Service) DeleteBeneficiary(id string) error {
	return s.vault.Mutate(func(d *model.Dataset) error {
		for _, a := range d.Assets {
			if a.PrimaryBeneficiaryID == id {
				return ErrBeneficiaryInUse
			}
			for _, cid := range a.ContingentBeneficiaryIDs {
				if cid == id {
					return ErrBeneficiaryInUse
				}
			}
		}

		for i := range d.Beneficiaries {
			if d.Beneficiaries[i].ID == id {
				d.Beneficiaries = append(d.Beneficiaries[:i], d.Beneficiaries[i+1:]...)
				return nil
			}
		}
		return ErrBeneficiaryNotFound
	})
}

// FindBeneficiary returns one beneficiary by ID.
func (s *Service) FindBeneficiary(id string) (model.Beneficiary, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return model.Beneficiary{}, err
	}
	for _, b := range snap.Beneficiaries {
		if b.ID == id {
			return b, nil
		}
	}
	return model.Beneficiary{}, ErrBeneficiaryNotFound
}

// ListBeneficiaries returns all beneficiaries sorted by name.
func (s *Service) ListBeneficiaries() ([]model.Beneficiary, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	bens := snap.Beneficiaries
	sort.Slice(bens, func(i, j int) bool {
		return strings.ToLower(bens[i].Name) < strings.ToLower(bens[j].Name)
	})
	return bens, nil
}
