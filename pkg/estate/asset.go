package estate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/koasset/koasset/pkg/model"
)

// CreateAsset validates and stores a new asset, assigning it an ID and
// timestamps and recording the initial value snapshot in the history.
func (s *Service) CreateAsset(a model.Asset) (model.Asset, error) {
	now := time.Now().UTC()
	a.ID = model.NewID()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := a.Validate(); err != nil {
		return model.Asset{}, err
	}

	err := s.vault.Mutate(func(d *model.Dataset) error {
		d.Assets = append(d.Assets, a)
		d.History = append(d.History, model.HistoryRecord{
			ID:        model.NewID(),
			AssetID:   a.ID,
			Value:     a.Value,
			Timestamp: now,
			Note:      "initial value",
		})
		return nil
	})
	if err != nil {
		return model.Asset{}, err
	}
	return a, nil
}

// UpdateAsset replaces the stored asset with the given one. A value
// change records a history snapshot.
func (s *Service) UpdateAsset(a model.Asset) (model.Asset, error) {
	a.UpdatedAt = time.Now().UTC()
	if err := a.Validate(); err != nil {
		return model.Asset{}, err
	}

	err := s.vault.Mutate(func(d *model.Dataset) error {
		for i := range d.Assets {
			if d.Assets[i].ID != a.ID {
				continue
			}
			if d.Assets[i].Value != a.Value {
				d.History = append(d.History, model.HistoryRecord{
					ID:        model.NewID(),
					AssetID:   a.ID,
					Value:     a.Value,
					Timestamp: a.UpdatedAt,
				})
			}
			a.CreatedAt = d.Assets[i].CreatedAt
			d.Assets[i] = a
			return nil
		}
		return ErrAssetNotFound
	})
	if err != nil {
		return model.Asset{}, err
	}
	return a, nil
}

// SetAssetValue updates just the value of an asset, with an optional
// note on the history snapshot.
func (s *Service) SetAssetValue(id string, value int64, note string) error {
	if value < 0 {
		return fmt.Errorf("%w: negative value", model.ErrInvalidAsset)
	}
	now := time.Now().UTC()
	return s.vault.Mutate(func(d *model.Dataset) error {
		for i := range d.Assets {
			if d.Assets[i].ID != id {
				continue
			}
			if d.Assets[i].Value == value {
				return nil
			}
			d.Assets[i].Value = value
			d.Assets[i].UpdatedAt = now
			d.History = append(d.History, model.HistoryRecord{
				ID:        model.NewID(),
				AssetID:   id,
				Value:     value,
				Timestamp: now,
				Note:      note,
			})
			return nil
		}
		return ErrAssetNotFound
	})
}

// DeleteAsset removes an asset and cascades the delete to its history.
func (s *Service) DeleteAsset(id string) error {
	return s.vault.Mutate(func(d *model.Dataset) error {
		idx := -1
		for i := range d.Assets {
			if d.Assets[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrAssetNotFound
		}
		d.Assets = append(d.Assets[:idx], d.Assets[idx+1:]...)

		kept := d.History[:0]
		for _, h := range d.History {
			if h.AssetID != id {
				kept = append(kept, h)
			}
		}
		d.History = kept
		return nil
	})
}

// FindAsset returns one asset by ID.
func (s *Service) FindAsset(id string) (model.Asset, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return model.Asset{}, err
	}
	for _, a := range snap.Assets {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Asset{}, ErrAssetNotFound
}

// ListAssets returns all assets sorted by name.
func (s *Service) ListAssets() ([]model.Asset, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	assets := snap.Assets
	sort.Slice(assets, func(i, j int) bool {
		return strings.ToLower(assets[i].Name) < strings.ToLower(assets[j].Name)
	})
	return assets, nil
}

// SearchAssets returns assets whose name, institution, or notes
// contain the query, case-insensitively.
func (s *Service) SearchAssets(query string) ([]model.Asset, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return snap.Assets, nil
	}

	var out []model.Asset
	for _, a := range snap.Assets {
		if strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Institution), q) ||
			strings.Contains(strings.ToLower(a.Notes), q) {
			out = append(out, a)
		}
	}
	return out, nil
}

// AssetsByCategory returns assets in the given category.
func (s *Service) AssetsByCategory(c model.Category) ([]model.Asset, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []model.Asset
	for _, a := range snap.Assets {
		if a.Category == c {
			out = append(out, a)
		}
	}
	return out, nil
}

// AssetsByBeneficiary returns assets naming the beneficiary as primary
// or contingent.
func (s *Service) AssetsByBeneficiary(beneficiaryID string) ([]model.Asset, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []model.Asset
	for _, a := range snap.Assets {
		if a.PrimaryBeneficiaryID == beneficiaryID {
			out = append(out, a)
			continue
		}
		for _, id := range a.ContingentBeneficiaryIDs {
			if id == beneficiaryID {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

// AssetsNeedingReview returns assets not reviewed within the given
// number of days. Never-reviewed assets fall back to their creation
// time.
func (s *Service) AssetsNeedingReview(days int) ([]model.Asset, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	var out []model.Asset
	for _, a := range snap.Assets {
		last := a.CreatedAt
		if a.LastReviewed != nil {
			last = *a.LastReviewed
		}
		if last.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

// MarkReviewed stamps the asset as reviewed now.
func (s *Service) MarkReviewed(id string) error {
	now := time.Now().UTC()
	return s.vault.Mutate(func(d *model.Dataset) error {
		for i := range d.Assets {
			if d.Assets[i].ID == id {
				d.Assets[i].LastReviewed = &now
				d.Assets[i].UpdatedAt = now
				return nil
			}
		}
		return ErrAssetNotFound
	})
}

// TotalValue returns the sum of all asset values in cents.
func (s *Service) TotalValue() (int64, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, a := range snap.Assets {
		total += a.Value
	}
	return total, nil
}

// TotalsByCategory returns the value sum per category, in cents.
func (s *Service) TotalsByCategory() (map[model.Category]int64, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	totals := make(map[model.Category]int64)
	for _, a := range snap.Assets {
		totals[a.Category] += a.Value
	}
	return totals, nil
}
