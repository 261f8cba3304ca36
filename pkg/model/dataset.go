package model

import (
	"encoding/json"
	"fmt"
)

// Collection names as they appear in the serialized dataset.
const (
	CollectionAssets        = "assets"
	CollectionBeneficiaries = "beneficiaries"
	CollectionHistory       = "history"
	CollectionSettings      = "settings"
)

// Dataset is everything stored inside one encrypted container.
type Dataset struct {
	Assets        []Asset         `json:"assets"`
	Beneficiaries []Beneficiary   `json:"beneficiaries"`
	History       []HistoryRecord `json:"history"`
	Settings      Settings        `json:"settings"`
}

// NewDataset returns the empty dataset a fresh vault is initialized
// with.
func NewDataset() *Dataset {
	return &Dataset{
		Assets:        []Asset{},
		Beneficiaries: []Beneficiary{},
		History:       []HistoryRecord{},
		Settings:      DefaultSettings(),
	}
}

// Clone returns a deep copy of the dataset. Mutations are prepared on
// a clone and only swapped in after the encrypted write succeeds.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Assets:        make([]Asset, len(d.Assets)),
		Beneficiaries: make([]Beneficiary, len(d.Beneficiaries)),
		History:       make([]HistoryRecord, len(d.History)),
		Settings:      d.Settings,
	}
	copy(c.Assets, d.Assets)
	copy(c.Beneficiaries, d.Beneficiaries)
	copy(c.History, d.History)
	for i := range c.Assets {
		if ids := c.Assets[i].ContingentBeneficiaryIDs; ids != nil {
			c.Assets[i].ContingentBeneficiaryIDs = append([]string(nil), ids...)
		}
	}
	return c
}

// Marshal serializes the dataset to the canonical JSON form that gets
// encrypted.
func (d *Dataset) Marshal() ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("model: failed to serialize dataset: %w", err)
	}
	return raw, nil
}

// QuarantineReport counts records dropped during parsing because they
// failed schema validation. The decrypted payload was authenticated,
// so failures here mean a version skew or a bug, not tampering; the
// rest of the dataset stays usable.
type QuarantineReport struct {
	Assets        int
	Beneficiaries int
	History       int
	Reasons       []string
}

// Total returns the number of quarantined records.
func (q QuarantineReport) Total() int {
	return q.Assets + q.Beneficiaries + q.History
}

// ParseDataset parses decrypted plaintext into a dataset. Records that
// fail validation are quarantined rather than failing the whole parse;
// only structurally unreadable JSON is a hard error.
func ParseDataset(raw []byte) (*Dataset, QuarantineReport, error) {
	var report QuarantineReport

	var in Dataset
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, report, fmt.Errorf("model: unreadable dataset: %w", err)
	}

	out := NewDataset()
	if in.Settings != (Settings{}) {
		out.Settings = in.Settings
	}

	for i := range in.Assets {
		if err := in.Assets[i].Validate(); err != nil {
			report.Assets++
			report.Reasons = append(report.Reasons, err.Error())
			continue
		}
		out.Assets = append(out.Assets, in.Assets[i])
	}
	for i := range in.Beneficiaries {
		if err := in.Beneficiaries[i].Validate(); err != nil {
			report.Beneficiaries++
			report.Reasons = append(report.Reasons, err.Error())
			continue
		}
		out.Beneficiaries = append(out.Beneficiaries, in.Beneficiaries[i])
	}
	for i := range in.History {
		if err := in.History[i].Validate(); err != nil {
			report.History++
			report.Reasons = append(report.Reasons, err.Error())
			continue
		}
		out.History = append(out.History, in.History[i])
	}

	return out, report, nil
}
