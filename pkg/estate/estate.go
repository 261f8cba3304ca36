// Package estate implements the domain operations over the decrypted
// dataset: asset, beneficiary, and value-history management. All reads
// and writes go through the vault session; nothing here touches the
// encrypted container or key material directly.
package estate

import (
	"errors"

	"github.com/koasset/koasset/pkg/model"
)

// Sentinel errors for domain operations.
var (
	ErrAssetNotFound       = errors.New("estate: asset not found")
	ErrBeneficiaryNotFound = errors.New("estate: beneficiary not found")
	ErrBeneficiaryInUse    = errors.New("estate: beneficiary is referenced by assets")
)

// Vault is the slice of the session the estate service needs: an
// isolated read snapshot and an atomic mutate-and-persist.
type Vault interface {
	Snapshot() (*model.Dataset, error)
	Mutate(fn func(*model.Dataset) error) error
}

// Service provides estate CRUD over an authenticated vault session.
type Service struct {
	vault Vault
}

// NewService creates an estate service over the given vault.
func NewService(v Vault) *Service {
	return &Service{vault: v}
}
