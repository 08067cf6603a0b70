// ABOUTME: HTTP server command
// ABOUTME: Serves read-only graph endpoints and /metrics until interrupted
package cli

import (
	"github.com/harperreed/kinship/web"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only JSON endpoints and Prometheus metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			server := web.NewServer(a.db, a.strength, a.cascade, a.registry, a.logger)
			return server.Start(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	return cmd
}
