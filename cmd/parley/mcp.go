package main

import (
	"fmt"

	mcpAdapter "github.com/ferrobraz/parley/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long:  `Exposes the conversation engine as MCP tools (open_conversation, select_option, check_progression) for agent hosts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cmd)
		if err != nil {
			return fmt.Errorf("failed to initialize engine: %w", err)
		}
		return mcpAdapter.NewServer(engine).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
