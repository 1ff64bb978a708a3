package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glossa-cli/internal/adapters/driving/mcp"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can drive
annotation sessions.

By default the server communicates over stdio using JSON-RPC. Use
--http to serve the streamable HTTP transport instead, which enables
testing with the MCP Inspector and remote access.

Examples:
  # Stdio mode (default)
  glossa mcp

  # HTTP mode
  glossa mcp --http :8080`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if workspaceService == nil || schemaService == nil {
		return errors.New("services not configured")
	}

	ports := &mcp.Ports{
		Workspace: workspaceService,
		Schemas:   schemaService,
	}

	server, err := mcp.NewServer(ports, version)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.Printf("MCP server listening on %s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
