package main

import (
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/standardbeagle/pagetour/internal/debug"
	"github.com/standardbeagle/pagetour/internal/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server on stdio",
	Long: `Serves pagetour's annotation store and locator engine as MCP tools:

- annotations: list, delete and export stored guides and tags
- locate: generate locators for elements of an HTML page
- check_locator: replay a stored selector against a page`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, base, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg, base)
		if err != nil {
			return err
		}
		defer st.Close()

		server := mcp.NewServer(
			&mcp.Implementation{Name: "pagetour", Version: version},
			&mcp.ServerOptions{
				Instructions: `pagetour anchors guides (tooltips) and feature tags to page elements with CSS locators.

Use locate to produce a locator for an element, check_locator to verify a
stored selector still resolves, and annotations to inspect the store.`,
			},
		)
		tools.New(st, newEngine(cfg)).Register(server)

		// stdout carries JSON-RPC
		log.SetOutput(os.Stderr)
		debug.SetOutput(os.Stderr)
		debug.Info("mcp", "serving store %s", cfg.Store.Backend)

		ctx := cmd.Context()
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
