package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for Claude Desktop)
  policypal mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  policypal mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "policypal": {
        "command": "/path/to/policypal",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Retriever: retrieverService,
		Chat:      chatService,
		Documents: documentService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if port > 0 {
		addr := fmt.Sprintf("localhost:%d", port)
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
