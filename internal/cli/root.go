// Package cli implements the rigorscore command line.
package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"RigorScore/internal/app"
	"RigorScore/internal/config"
	"RigorScore/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

type rootOptions struct {
	configPath string
	jsonOutput bool
	logLevel   string
}

// NewRootCmd returns the rigorscore command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:     "rigorscore",
		Short:   "Score how rigorous a set of business documents is",
		Version: Version,
		Long: `RigorScore scores the rigor of a weighted set of documents behind a decision.

The composite (0-100) combines veracity (source authority, type, status and age),
cross-source conflict and the density of logical indicator terms. Readiness checks
each criterion of a versioned prompt pack against the sources.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (defaults to $RIGOR_CONFIG)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(mcpCmd(opts))
	root.AddCommand(packsCmd(opts))
	root.AddCommand(workspaceCmd(opts))
	root.AddCommand(analysisCmd(opts))
	root.AddCommand(sourceCmd(opts))
	root.AddCommand(scoreCmd(opts))
	root.AddCommand(readinessCmd(opts))
	root.AddCommand(historyCmd(opts))
	root.AddCommand(sweepCmd(opts))

	return root
}

// open loads configuration and builds the application. Logs go to stderr so stdout stays parseable.
func (o *rootOptions) open(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return app.New(commandContext(cmd), cfg, logger)
}

func (o *rootOptions) printer(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), json: o.jsonOutput}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withApp opens the application, runs fn and closes it.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application, p *printer) error) error {
	a, err := o.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(commandContext(cmd), a, o.printer(cmd))
}
