package main

import (
	"context"

	"github.com/aretw0/qx32/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the cluster to AI agents as MCP tools (ask_cluster, validate_question)
and the qx32://scripts resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output.
- sse: Uses Server-Sent Events over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		return cli.RunMCP(sc, cfg, transport, port, debugFlag(cmd))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport type (stdio, sse)")
	mcpCmd.Flags().Int("port", 8080, "Port for SSE server")
	mcpCmd.Flags().String("scripts", "", "YAML file overriding status scripts and faults")
}
