package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"RigorScore/internal/app"
	"RigorScore/internal/transport/mcptools"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the maintenance scheduler",
		Long: `Serve the REST API under /api/v1, /health and the Prometheus endpoint.
When scheduler.enabled is set, completed analyses are rescored and expired
text is purged on every scheduler.interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, _ *printer) error {
				return a.Run(ctx)
			})
		},
	}
}

func mcpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the engine as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(_ context.Context, a *app.Application, _ *printer) error {
				mcptools.Version = Version
				return mcptools.ServeStdio(mcptools.NewServer(a.Services()))
			})
		},
	}
}

func sweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one maintenance pass now",
		Long:  `Rescore completed analyses and purge text past the workspace retention window.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				report, err := a.Sweep(ctx)
				if err != nil {
					return err
				}
				return p.sweep(report)
			})
		},
	}
}
