package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/estate"
	"github.com/koasset/koasset/pkg/model"
	"github.com/koasset/koasset/pkg/store"
	"github.com/koasset/koasset/pkg/vault"
)

func newTestServer(t *testing.T, policy *Policy) *Server {
	t.Helper()
	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := audit.NewLogger(filepath.Join(dir, "audit"))
	session := vault.NewSession(st, logger)
	if err := session.Setup("4829"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	now := time.Now().UTC()
	err = session.Mutate(func(d *model.Dataset) error {
		d.Assets = append(d.Assets,
			model.Asset{
				ID: model.NewID(), Name: "Chase Checking", Category: model.CategoryChecking,
				Value: 150000, AccountNumber: "123456789", Username: "secret-login",
				PasswordHint: "the usual", CreatedAt: now, UpdatedAt: now,
			},
			model.Asset{
				ID: model.NewID(), Name: "Fidelity 401k", Category: model.Category401k,
				Value: 8_500_000, PrimaryBeneficiaryID: "ben-1", CreatedAt: now, UpdatedAt: now,
			},
		)
		d.Beneficiaries = append(d.Beneficiaries, model.Beneficiary{
			ID: "ben-1", Name: "Alex Morgan", Relationship: model.RelationshipSpouse,
			Email: "alex@example.com", CreatedAt: now, UpdatedAt: now,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	return &Server{
		session:  session,
		estate:   estate.NewService(session),
		policy:   policy,
		audit:    logger,
		currency: "USD",
	}
}

func allowAll() *Policy {
	return &Policy{Version: 1, DefaultAction: ActionAllow}
}

// TestAssetListMasksSensitiveFields tests that the agent view never
// carries credentials or full account numbers.
func TestAssetListMasksSensitiveFields(t *testing.T) {
	s := newTestServer(t, allowAll())

	_, out, err := s.handleAssetList(context.Background(), nil, AssetListInput{})
	if err != nil {
		t.Fatalf("handleAssetList() error = %v", err)
	}
	if len(out.Assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(out.Assets))
	}

	var checking AssetInfo
	for _, a := range out.Assets {
		if a.Name == "Chase Checking" {
			checking = a
		}
	}
	if checking.AccountNumber != "*****6789" {
		t.Errorf("AccountNumber = %q, want masked form", checking.AccountNumber)
	}
	if strings.Contains(checking.AccountNumber, "12345") {
		t.Error("masked account number leaks leading digits")
	}
	if checking.ValueCents != 150000 {
		t.Errorf("ValueCents = %d, want 150000", checking.ValueCents)
	}
}

// TestAssetListCategoryFilter tests filtered listing and bad input.
func TestAssetListCategoryFilter(t *testing.T) {
	s := newTestServer(t, allowAll())

	_, out, err := s.handleAssetList(context.Background(), nil, AssetListInput{Category: "401k"})
	if err != nil {
		t.Fatalf("handleAssetList() error = %v", err)
	}
	if len(out.Assets) != 1 || out.Assets[0].Name != "Fidelity 401k" {
		t.Errorf("filtered assets = %v", out.Assets)
	}
	if !out.Assets[0].HasBeneficiary {
		t.Error("HasBeneficiary = false for an asset with a primary beneficiary")
	}

	if _, _, err := s.handleAssetList(context.Background(), nil, AssetListInput{Category: "Nope"}); err == nil {
		t.Error("handleAssetList() should reject unknown categories")
	}
}

// TestEstateSummary tests the aggregate view.
func TestEstateSummary(t *testing.T) {
	s := newTestServer(t, allowAll())

	_, out, err := s.handleEstateSummary(context.Background(), nil, EstateSummaryInput{})
	if err != nil {
		t.Fatalf("handleEstateSummary() error = %v", err)
	}
	if out.TotalCents != 8_650_000 {
		t.Errorf("TotalCents = %d, want 8650000", out.TotalCents)
	}
	if out.AssetCount != 2 || out.BeneficiaryCount != 1 {
		t.Errorf("counts = %d assets, %d beneficiaries", out.AssetCount, out.BeneficiaryCount)
	}
	if out.ByCategory["401k"] != 8_500_000 {
		t.Errorf("ByCategory = %v", out.ByCategory)
	}
	if out.Currency != "USD" {
		t.Errorf("Currency = %q", out.Currency)
	}
}

// TestBeneficiaryListOmitsContactDetails tests the reduced view.
func TestBeneficiaryListOmitsContactDetails(t *testing.T) {
	s := newTestServer(t, allowAll())

	_, out, err := s.handleBeneficiaryList(context.Background(), nil, BeneficiaryListInput{})
	if err != nil {
		t.Fatalf("handleBeneficiaryList() error = %v", err)
	}
	if len(out.Beneficiaries) != 1 {
		t.Fatalf("beneficiaries = %d, want 1", len(out.Beneficiaries))
	}
	b := out.Beneficiaries[0]
	if b.Name != "Alex Morgan" || b.Relationship != "Spouse" {
		t.Errorf("beneficiary = %+v", b)
	}
}

// TestPolicyGatesTools tests that a deny policy blocks handlers.
func TestPolicyGatesTools(t *testing.T) {
	s := newTestServer(t, &Policy{Version: 1, DefaultAction: ActionDeny, AllowedTools: []string{"estate_summary"}})

	if _, _, err := s.handleAssetList(context.Background(), nil, AssetListInput{}); err == nil {
		t.Error("asset_list should be denied")
	}
	if _, _, err := s.handleEstateSummary(context.Background(), nil, EstateSummaryInput{}); err != nil {
		t.Errorf("estate_summary should be allowed: %v", err)
	}

	// nil policy (no file) denies everything.
	s.policy = nil
	if _, _, err := s.handleEstateSummary(context.Background(), nil, EstateSummaryInput{}); err == nil {
		t.Error("nil policy should deny all tools")
	}
}
