package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ce-mcp/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server. By default it speaks MCP over stdin/stdout, which is what
desktop clients launch. With --http it serves streamable HTTP on /mcp instead.`,
		Example: `  ce-mcp serve
  ce-mcp serve --http :8080
  ce-mcp serve -c ./config.yaml --debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			svc, _, cleanup, err := c.newService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := server.New(svc, logger)
			if httpAddr != "" {
				return srv.ListenAndServe(ctx, httpAddr)
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio (e.g. :8080)")

	return cmd
}
