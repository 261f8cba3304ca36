// Package model defines the typed records that live inside the
// encrypted container: assets, beneficiaries, value history, and
// settings. All monetary values are integer cents.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for record validation.
var (
	ErrInvalidAsset       = errors.New("model: invalid asset")
	ErrInvalidBeneficiary = errors.New("model: invalid beneficiary")
	ErrInvalidHistory     = errors.New("model: invalid history record")
)

// Category classifies an asset. The set covers financial accounts,
// investments, insurance, property, and a catch-all.
type Category string

const (
	CategoryChecking       Category = "Checking Account"
	CategorySavings        Category = "Savings Account"
	CategoryMoneyMarket    Category = "Money Market Account"
	CategoryIRA            Category = "IRA"
	Category401k           Category = "401k"
	CategoryRothIRA        Category = "Roth IRA"
	CategoryBrokerage      Category = "Brokerage Account"
	Category529Plan        Category = "529 Plan"
	CategoryHSA            Category = "HSA"
	CategoryLifeInsurance  Category = "Life Insurance"
	CategoryDisability     Category = "Disability Insurance"
	CategoryLongTermCare   Category = "Long-term Care Insurance"
	CategoryRealEstate     Category = "Real Estate"
	CategoryVehicle        Category = "Vehicle"
	CategoryStocks         Category = "Stocks"
	CategoryBonds          Category = "Bonds"
	CategoryMutualFunds    Category = "Mutual Funds"
	CategoryCrypto         Category = "Crypto"
	CategoryCash           Category = "Cash"
	CategoryBusinessEquity Category = "Business Equity"
	CategoryCollectibles   Category = "Collectibles"
	CategoryOther          Category = "Other"
	CategoryCD             Category = "CD"
	CategoryPension        Category = "Pension"
)

// Categories lists every valid asset category in display order.
var Categories = []Category{
	CategoryChecking, CategorySavings, CategoryMoneyMarket,
	CategoryIRA, Category401k, CategoryRothIRA, CategoryBrokerage,
	Category529Plan, CategoryHSA, CategoryCD, CategoryPension,
	CategoryLifeInsurance, CategoryDisability, CategoryLongTermCare,
	CategoryRealEstate, CategoryVehicle,
	CategoryStocks, CategoryBonds, CategoryMutualFunds, CategoryCrypto,
	CategoryCash, CategoryBusinessEquity, CategoryCollectibles,
	CategoryOther,
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Relationship classifies a beneficiary's relation to the owner.
type Relationship string

const (
	RelationshipSpouse  Relationship = "Spouse"
	RelationshipChild   Relationship = "Child"
	RelationshipParent  Relationship = "Parent"
	RelationshipSibling Relationship = "Sibling"
	RelationshipTrust   Relationship = "Trust"
	RelationshipEstate  Relationship = "Estate"
	RelationshipCharity Relationship = "Charity"
	RelationshipFriend  Relationship = "Friend"
	RelationshipOther   Relationship = "Other"
)

// Relationships lists every valid beneficiary relationship.
var Relationships = []Relationship{
	RelationshipSpouse, RelationshipChild, RelationshipParent,
	RelationshipSibling, RelationshipTrust, RelationshipEstate,
	RelationshipCharity, RelationshipFriend, RelationshipOther,
}

// ValidRelationship reports whether r is a known relationship.
func ValidRelationship(r Relationship) bool {
	for _, known := range Relationships {
		if r == known {
			return true
		}
	}
	return false
}

// Asset is one financial or physical item in the estate. Value is in
// cents. Credential fields are reference-only: the password hint is a
// reminder, never the password itself.
type Asset struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`

	Value        int64      `json:"value"`
	InterestRate float64    `json:"interestRate,omitempty"`
	MaturityDate *time.Time `json:"maturityDate,omitempty"`

	Institution   string `json:"institution,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	URL           string `json:"url,omitempty"`

	Username     string `json:"username,omitempty"`
	PasswordHint string `json:"passwordHint,omitempty"`

	PrimaryBeneficiaryID     string   `json:"primaryBeneficiaryId,omitempty"`
	ContingentBeneficiaryIDs []string `json:"contingentBeneficiaryIds,omitempty"`

	Notes string `json:"notes,omitempty"`

	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastReviewed *time.Time `json:"lastReviewed,omitempty"`
}

// Validate checks the asset's required fields and value ranges.
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAsset)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAsset)
	}
	if !ValidCategory(a.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidAsset, a.Category)
	}
	if a.Value < 0 {
		return fmt.Errorf("%w: negative value", ErrInvalidAsset)
	}
	return nil
}

// MaskedAccountNumber returns the account number with all but the last
// four characters replaced, for display surfaces that must not leak
// the full number.
func (a *Asset) MaskedAccountNumber() string {
	n := a.AccountNumber
	if n == "" {
		return ""
	}
	if len(n) <= 4 {
		return strings.Repeat("*", len(n))
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

// Beneficiary is a person or entity designated to receive assets.
type Beneficiary struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Address     string `json:"address,omitempty"`

	Relationship Relationship `json:"relationship"`

	IsMinor      bool   `json:"isMinor,omitempty"`
	GuardianName string `json:"guardianName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the beneficiary's required fields.
func (b *Beneficiary) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidBeneficiary)
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidBeneficiary)
	}
	if !ValidRelationship(b.Relationship) {
		return fmt.Errorf("%w: unknown relationship %q", ErrInvalidBeneficiary, b.Relationship)
	}
	return nil
}

// HistoryRecord is one value snapshot of an asset.
type HistoryRecord struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"assetId"`
	Value     int64     `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// Validate checks the history record's required fields.
func (h *HistoryRecord) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidHistory)
	}
	if strings.TrimSpace(h.AssetID) == "" {
		return fmt.Errorf("%w: missing asset id", ErrInvalidHistory)
	}
	if h.Value < 0 {
		return fmt.Errorf("%w: negative value", ErrInvalidHistory)
	}
	return nil
}

// Settings holds user preferences stored alongside the records.
type Settings struct {
	Currency   string `json:"currency"`
	ReviewDays int    `json:"reviewDays"`
}

// DefaultSettings returns the settings a fresh vault starts with.
func DefaultSettings() Settings {
	return Settings{Currency: "USD", ReviewDays: 180}
}

// NewID returns a fresh UUIDv4 record identifier.
func NewID() string {
	return uuid.NewString()
}
