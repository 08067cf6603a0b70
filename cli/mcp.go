// ABOUTME: MCP server command
// ABOUTME: Serves the graph tools, resources, and prompts over stdio
package cli

import (
	"github.com/harperreed/kinship/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(opts *RootOptions, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			a.logger.Info("starting MCP server", "backend", a.cfg.Store.Backend)
			server := handlers.NewServer(a.services(), version)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}
