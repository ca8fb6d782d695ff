package main

import (
	"log"
	"os"

	"github.com/aretw0/lockstep/internal/cli"
	"github.com/aretw0/lockstep/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts lockstep as an MCP Server over Standard Input/Output.
Agents can call the solve_network and render_network tools and read the
lockstep://cache resource.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		svc, closeFn, err := cli.CreateService(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)
		logger.Info("Starting lockstep MCP Server (Stdio)...")
		return mcp.NewServer(svc).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
