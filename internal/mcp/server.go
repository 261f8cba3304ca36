// Package mcp implements the MCP (Model Context Protocol) server for
// koasset. AI agents get read-only, policy-gated views of the estate:
// no credentials, no password hints, and account numbers only in
// masked form.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koasset/koasset/pkg/audit"
	"github.com/koasset/koasset/pkg/estate"
	"github.com/koasset/koasset/pkg/store"
	"github.com/koasset/koasset/pkg/vault"
)

// PINEnvVar is the environment variable carrying the vault PIN for
// the MCP server. It is cleared immediately after reading.
const PINEnvVar = "KOASSET_PIN"

// Server is the MCP server over an unlocked vault session.
type Server struct {
	server   *mcp.Server
	session  *vault.Session
	estate   *estate.Service
	policy   *Policy
	audit    *audit.Logger
	currency string
}

// ServerOptions configures the MCP server.
type ServerOptions struct {
	// VaultDir is the vault directory. Defaults to ~/.koasset.
	VaultDir string

	// PIN unlocks the vault. If empty, KOASSET_PIN is consulted and
	// then cleared.
	PIN string

	// Currency is the ISO 4217 code reported in summaries.
	Currency string
}

// NewServer creates an MCP server and unlocks the vault.
func NewServer(opts *ServerOptions) (*Server, error) {
	if opts == nil {
		opts = &ServerOptions{}
	}

	vaultDir := opts.VaultDir
	if vaultDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		vaultDir = filepath.Join(home, ".koasset")
	}

	// A missing or broken policy is not fatal; the nil policy denies
	// every tool, so the server runs but answers nothing.
	policy, err := LoadPolicy(vaultDir)
	if err != nil {
		log.Printf("warning: failed to load MCP policy: %v", err)
		policy = nil
	}

	pin := opts.PIN
	if pin == "" {
		pin = os.Getenv(PINEnvVar)
		os.Unsetenv(PINEnvVar)
	}
	if pin == "" {
		return nil, fmt.Errorf("no PIN provided: set %s environment variable", PINEnvVar)
	}

	st, err := store.New(vaultDir)
	if err != nil {
		return nil, err
	}
	logger := audit.NewLogger(filepath.Join(vaultDir, "audit"))
	session := vault.NewSession(st, logger)
	if err := session.Login(pin); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to unlock vault: %w", err)
	}

	currency := opts.Currency
	if currency == "" {
		currency = "USD"
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "koasset",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		server:   mcpServer,
		session:  session,
		estate:   estate.NewService(session),
		policy:   policy,
		audit:    logger,
		currency: currency,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers the read-only estate tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "asset_list",
		Description: "List assets with values and masked account numbers. Does NOT return credentials, password hints, or full account numbers.",
	}, s.handleAssetList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "estate_summary",
		Description: "Summarize the estate: total value and per-category totals in cents, plus record counts.",
	}, s.handleEstateSummary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "beneficiary_list",
		Description: "List beneficiaries with relationships. Does NOT return contact details.",
	}, s.handleBeneficiaryList)
}

// Run serves MCP over stdio until the context ends, then locks the
// vault.
func (s *Server) Run(ctx context.Context) error {
	defer s.session.Logout()
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close locks the vault.
func (s *Server) Close() error {
	s.session.Logout()
	return nil
}
