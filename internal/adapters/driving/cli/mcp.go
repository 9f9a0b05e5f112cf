package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can index
URLs and ask questions about them.

Tools:     ingest_urls, ask, retrieve
Resources: sercha-rag://collection

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead. Call ingest_urls before ask in each server session.

Examples:
  sercha-rag mcp serve
  sercha-rag mcp serve --port 8080`,
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
	if err := requireLLM(); err != nil {
		return err
	}
	// Like the TUI, a server session answers only after an ingest_urls call.
	server, err := mcp.NewServer(&mcp.Ports{
		Ingest:    ingestService,
		Answer:    answerService,
		Retrieval: retrievalService,
	})
	if err != nil {
		return err
	}
	return serveMCP(cmd, server, port)
}

// serveMCP runs the server over HTTP when port is set, stdio otherwise.
var serveMCP = func(cmd *cobra.Command, server *mcp.Server, port int) error {
	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
