package main

import (
	"github.com/spf13/cobra"

	"github.com/koasset/koasset/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server for AI agents",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve read-only estate tools over stdio",
	Long: `Start an MCP server exposing asset_list, estate_summary, and
beneficiary_list over stdio. Tools are gated by mcp-policy.yaml in the
vault directory (default deny). The PIN is read from KOASSET_PIN and
cleared immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(&mcp.ServerOptions{
			VaultDir: cfg.VaultDir,
			Currency: cfg.Currency,
		})
		if err != nil {
			return err
		}
		defer server.Close()
		return server.Run(cmd.Context())
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
