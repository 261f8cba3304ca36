package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/model"
)

// AssetListInput is the input for the asset_list tool.
type AssetListInput struct {
	Category string `json:"category,omitempty"`
}

// AssetListOutput is the output for the asset_list tool.
type AssetListOutput struct {
	Assets []AssetInfo `json:"assets"`
}

// AssetInfo is the agent-safe view of one asset. Credentials and full
// account numbers never appear here.
type AssetInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	ValueCents     int64  `json:"value_cents"`
	Institution    string `json:"institution,omitempty"`
	AccountNumber  string `json:"account_number,omitempty"` // masked
	HasBeneficiary bool   `json:"has_beneficiary"`
	UpdatedAt      string `json:"updated_at"`
}

// EstateSummaryInput is the input for the estate_summary tool.
type EstateSummaryInput struct{}

// EstateSummaryOutput is the output for the estate_summary tool.
type EstateSummaryOutput struct {
	TotalCents       int64            `json:"total_cents"`
	Currency         string           `json:"currency"`
	ByCategory       map[string]int64 `json:"by_category"`
	AssetCount       int              `json:"asset_count"`
	BeneficiaryCount int              `json:"beneficiary_count"`
}

// BeneficiaryListInput is the input for the beneficiary_list tool.
type BeneficiaryListInput struct{}

// BeneficiaryListOutput is the output for the beneficiary_list tool.
type BeneficiaryListOutput struct {
	Beneficiaries []BeneficiaryInfo `json:"beneficiaries"`
}

// BeneficiaryInfo is the agent-safe view of one beneficiary.
type BeneficiaryInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	IsMinor      bool   `json:"is_minor"`
}

// checkPolicy gates a tool call and audits denials.
func (s *Server) checkPolicy(tool string) error {
	allowed, reason := s.policy.IsToolAllowed(tool)
	if !allowed {
		_ = s.audit.LogDenied(audit.OpMCPDenied, audit.SourceMCP, reason)
		return fmt.Errorf("denied by policy: %s", reason)
	}
	return nil
}

// handleAssetList handles the asset_list tool call.
func (s *Server) handleAssetList(_ context.Context, _ *mcp.CallToolRequest, input AssetListInput) (*mcp.CallToolResult, AssetListOutput, error) {
	if err := s.checkPolicy("asset_list"); err != nil {
		return nil, AssetListOutput{}, err
	}

	var (
		assets []model.Asset
		err    error
	)
	if input.Category != "" {
		c := model.Category(input.Category)
		if !model.ValidCategory(c) {
			return nil, AssetListOutput{}, fmt.Errorf("unknown category: %s", input.Category)
		}
		assets, err = s.estate.AssetsByCategory(c)
	} else {
		assets, err = s.estate.ListAssets()
	}
	if err != nil {
		return nil, AssetListOutput{}, fmt.Errorf("failed to list assets: %w", err)
	}

	out := AssetListOutput{Assets: make([]AssetInfo, 0, len(assets))}
	for _, a := range assets {
		out.Assets = append(out.Assets, AssetInfo{
			ID:             a.ID,
			Name:           a.Name,
			Category:       string(a.Category),
			ValueCents:     a.Value,
			Institution:    a.Institution,
			AccountNumber:  a.MaskedAccountNumber(),
			HasBeneficiary: a.PrimaryBeneficiaryID != "" || len(a.ContingentBeneficiaryIDs) > 0,
			UpdatedAt:      a.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	_ = s.audit.LogSuccess(audit.OpMCPAssetList, audit.SourceMCP)
	return nil, out, nil
}

// handleEstateSummary handles the estate_summary tool call.
func (s *Server) handleEstateSummary(_ context.Context, _ *mcp.CallToolRequest, _ EstateSummaryInput) (*mcp.CallToolResult, EstateSummaryOutput, error) {
	if err := s.checkPolicy("estate_summary"); err != nil {
		return nil, EstateSummaryOutput{}, err
	}

	snap, err := s.session.Snapshot()
	if err != nil {
		return nil, EstateSummaryOutput{}, fmt.Errorf("failed to read estate: %w", err)
	}

	out := EstateSummaryOutput{
		Currency:         s.currency,
		ByCategory:       make(map[string]int64),
		AssetCount:       len(snap.Assets),
		BeneficiaryCount: len(snap.Beneficiaries),
	}
	for _, a := range snap.Assets {
		out.TotalCents += a.Value
		out.ByCategory[string(a.Category)] += a.Value
	}

	_ = s.audit.LogSuccess(audit.OpMCPEstateSummary, audit.SourceMCP)
	return nil, out, nil
}

// handleBeneficiaryList handles the beneficiary_list tool call.
func (s *Server) handleBeneficiaryList(_ context.Context, _ *mcp.CallToolRequest, _ BeneficiaryListInput) (*mcp.CallToolResult, BeneficiaryListOutput, error) {
	if err := s.checkPolicy("beneficiary_list"); err != nil {
		return nil, BeneficiaryListOutput{}, err
	}

	bens, err := s.estate.ListBeneficiaries()
	if err != nil {
		return nil, BeneficiaryListOutput{}, fmt.Errorf("failed to list beneficiaries: %w", err)
	}

	out := BeneficiaryListOutput{Beneficiaries: make([]BeneficiaryInfo, 0, len(bens))}
	for _, b := range bens {
		out.Beneficiaries = append(out.Beneficiaries, BeneficiaryInfo{
			ID:           b.ID,
			Name:         b.Name,
			Relationship: string(b.Relationship),
			IsMinor:      b.IsMinor,
		})
	}

	_ = s.audit.LogSuccess(audit.OpMCPBeneficiaryList, audit.SourceMCP)
	return nil, out, nil
}
