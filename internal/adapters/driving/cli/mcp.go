package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quietpages/bookchat/internal/adapters/driving/mcp"
	"github.com/quietpages/bookchat/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can ask the book.

By default, the server communicates over stdio using JSON-RPC. Use --port to
serve streamable HTTP instead.

Tools: ask_book, search_book
Resources: bookchat://index, bookchat://files/{path}

Examples:
  # Stdio mode (default)
  bookchat mcp serve

  # HTTP mode
  bookchat mcp serve --port 8081`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	chat, err := services.Chat(ctx)
	if err != nil {
		return fmt.Errorf("chat unavailable: %w", err)
	}

	ports := &mcp.Ports{Chat: chat}
	if retrieval, err := services.Retrieval(ctx); err == nil {
		ports.Retrieval = retrieval
	} else {
		logger.Notice("search_book disabled: %v", err)
	}
	if indexer, err := services.Index(ctx); err == nil {
		ports.Index = indexer
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
