package estate

import (
	"sort"

	"github.com/koasset/koasset/pkg/model"
)

// HistoryForAsset returns the asset's value snapshots, newest first.
func (s *Service) HistoryForAsset(assetID string) ([]model.HistoryRecord, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []model.HistoryRecord
	for _, h := range snap.History {
		if h.AssetID == assetID {
			out = append(out, h)
		}
	}
	sortHistory(out)
	return out, nil
}

// AllHistory returns every value snapshot, newest first.
func (s *Service) AllHistory() ([]model.HistoryRecord, error) {
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	out := snap.History
	sortHistory(out)
	return out, nil
}

// AddHistory records a manual value snapshot for an asset.
func (s *Service) AddHistory(h model.HistoryRecord) (model.HistoryRecord, error) {
	h.ID = model.NewID()
	if err := h.Validate(); err != nil {
		return model.HistoryRecord{}, err
	}

	err := s.vault.Mutate(func(d *model.Dataset) error {
		for _, a := range d.Assets {
			if a.ID == h.AssetID {
				d.History = append(d.History, h)
				return nil
			}
		}
		return ErrAssetNotFound
	})
	if err != nil {
		return model.HistoryRecord{}, err
	}
	return h, nil
}

func sortHistory(h []model.HistoryRecord) {
	sort.Slice(h, func(i, j int) bool {
		return h[i].Timestamp.After(h[j].Timestamp)
	})
}
