package cli

import (
	"context"

	"github.com/spf13/cobra"

	"RigorScore/internal/app"
	"RigorScore/internal/transport"
	"RigorScore/internal/usecase"
)

func scoreCmd(opts *rootOptions) *cobra.Command {
	var req transport.ScoreRequest
	cmd := &cobra.Command{
		Use:   "score [analysis-id]",
		Short: "Record a new composite score snapshot",
		Long: `Score an analysis and append a history entry.

Composite = 0.4 x veracity + 0.3 x conflict + 0.3 x logic, each on 0-100.

Examples:
  rigorscore score 7f3c... --note "after CFO review"
  rigorscore score 7f3c... --trigger correction`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				res, err := a.Services().Scoring.ScoreWithNote(ctx, args[0], req.TriggerValue(), req.Note)
				if err != nil {
					return err
				}
				return p.score(res)
			})
		},
	}
	cmd.Flags().StringVar(&req.Trigger, "trigger", "", "source-added, manual-trigger, reanalysis or correction")
	cmd.Flags().StringVar(&req.Note, "note", "", "Note stored on the history entry")
	return cmd
}

func readinessCmd(opts *rootOptions) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "readiness [analysis-id]",
		Short: "Evaluate the prompt pack criteria against the sources",
		Long: `Evaluate every required criterion with one oracle call each and store the checks.
With --status, report the latest stored checks without calling the oracle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				scoring := a.Services().Scoring
				var (
					res usecase.ReadinessResult
					err error
				)
				if statusOnly {
					res, err = scoring.ReadinessStatus(ctx, args[0])
				} else {
					res, err = scoring.EvaluateReadiness(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return p.readiness(res)
			})
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Report stored checks only")
	return cmd
}

func historyCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [analysis-id]",
		Short: "List score snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				entries, err := a.Services().Scoring.ReadinessHistory(ctx, args[0])
				if err != nil {
					return err
				}
				if limit > 0 && limit < len(entries) {
					entries = entries[:limit]
				}
				return p.history(transport.NewLogEntryViews(entries))
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries (0 means all)")
	return cmd
}
