package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"RigorScore/internal/app"
	"RigorScore/internal/transport"
)

func packsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "packs",
		Short: "List prompt packs and their criteria",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(_ context.Context, a *app.Application, p *printer) error {
				return p.packs(transport.NewPackViews(a.Services().Packs.List()))
			})
		},
	}
}

func workspaceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces",
	}
	cmd.AddCommand(workspaceCreateCmd(opts))
	cmd.AddCommand(workspaceListCmd(opts))
	return cmd
}

func workspaceCreateCmd(opts *rootOptions) *cobra.Command {
	var req transport.CreateWorkspaceRequest
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			if err := req.Validate(); err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				ws, err := a.Services().Catalog.CreateWorkspace(ctx, req.Input())
				if err != nil {
					return err
				}
				return p.workspaces([]transport.WorkspaceView{transport.NewWorkspaceView(ws)})
			})
		},
	}
	cmd.Flags().BoolVar(&req.ZeroPersistence, "zero-persistence", false, "Allow purging extracted text")
	cmd.Flags().IntVar(&req.RetentionDays, "retention-days", 0, "Days to keep extracted text before the sweep purges it")
	return cmd
}

func workspaceListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				items, err := a.Services().Catalog.ListWorkspaces(ctx)
				if err != nil {
					return err
				}
				views := make([]transport.WorkspaceView, 0, len(items))
				for _, ws := range items {
					views = append(views, transport.NewWorkspaceView(ws))
				}
				return p.workspaces(views)
			})
		},
	}
}

func analysisCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analysis",
		Short: "Manage analyses",
	}
	cmd.AddCommand(analysisCreateCmd(opts))
	cmd.AddCommand(analysisShowCmd(opts))
	return cmd
}

func analysisCreateCmd(opts *rootOptions) *cobra.Command {
	var req transport.CreateAnalysisRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an analysis pinned to a prompt pack",
		Long: `Create an analysis. --pack takes "<use-case>" or "<use-case>@<version>";
a bare use case is pinned to its latest version.

Examples:
  rigorscore analysis create --workspace WS --name "Q3 launch" --pack post-mortem`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				analysis, err := a.Services().Catalog.CreateAnalysis(ctx, req.Input())
				if err != nil {
					return err
				}
				return p.analysis(transport.NewAnalysisView(analysis), nil)
			})
		},
	}
	cmd.Flags().StringVar(&req.WorkspaceID, "workspace", "", "Owning workspace id")
	cmd.Flags().StringVar(&req.Name, "name", "", "Analysis name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Optional description")
	cmd.Flags().StringVar(&req.PromptPackID, "pack", "", "Prompt pack id")
	return cmd
}

func analysisShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [analysis-id]",
		Short: "Show an analysis and its bound sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				catalog := a.Services().Catalog
				analysis, err := catalog.GetAnalysis(ctx, args[0])
				if err != nil {
					return err
				}
				sources, err := catalog.AnalysisSources(ctx, args[0])
				if err != nil {
					return err
				}
				return p.analysis(transport.NewAnalysisView(analysis), transport.NewBoundSourceViews(sources))
			})
		},
	}
}

func sourceCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Register sources and bind them into analyses",
	}
	cmd.AddCommand(sourceAddCmd(opts))
	cmd.AddCommand(sourceShowCmd(opts))
	cmd.AddCommand(sourceAttachCmd(opts))
	cmd.AddCommand(sourceDetachCmd(opts))
	cmd.AddCommand(sourceFlagsCmd(opts))
	cmd.AddCommand(sourcePurgeCmd(opts))
	return cmd
}

func sourceAddCmd(opts *rootOptions) *cobra.Command {
	var (
		req  transport.RegisterSourceRequest
		date string
		file string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an already-extracted document",
		Long: `Register a document. Text comes from --text or --file ("-" reads stdin);
HTML is reduced to its visible text before words are counted.

Examples:
  rigorscore source add --workspace WS --type final-pdf --status final --authoritative \
    --title "Board deck" --date 2026-03-05 --file deck.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file != "" {
				text, err := readText(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				req.Text = text
			}
			if date != "" {
				parsed, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				req.DocumentDate = &parsed
			}
			if err := req.Validate(); err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				src, err := a.Services().Catalog.RegisterSource(ctx, req.Input())
				if err != nil {
					return err
				}
				return p.source(transport.NewSourceView(src))
			})
		},
	}
	cmd.Flags().StringVar(&req.WorkspaceID, "workspace", "", "Owning workspace id")
	cmd.Flags().StringVar(&req.Title, "title", "", "Document title")
	cmd.Flags().StringVar(&req.Type, "type", "", "final-pdf, presentation, spreadsheet, transcript or draft-document")
	cmd.Flags().BoolVar(&req.Authoritative, "authoritative", false, "Mark as an authoritative source")
	cmd.Flags().StringVar(&req.Status, "status", "", "draft, final or archived")
	cmd.Flags().StringVar(&date, "date", "", "Document date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&req.Text, "text", "", "Extracted text")
	cmd.Flags().StringVar(&file, "file", "", "Read extracted text from a file, or - for stdin")
	return cmd
}

func readText(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(raw), nil
}

func sourceShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [source-id]",
		Short: "Show source metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				src, err := a.Services().Catalog.GetSource(ctx, args[0])
				if err != nil {
					return err
				}
				return p.source(transport.NewSourceView(src))
			})
		},
	}
}

func sourceAttachCmd(opts *rootOptions) *cobra.Command {
	var req transport.AttachSourceRequest
	cmd := &cobra.Command{
		Use:   "attach [analysis-id] [source-id]",
		Short: "Attach a source to an analysis and rescore it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.SourceID = args[1]
			if err := req.Validate(); err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				res, err := a.Services().Catalog.AttachSource(ctx, args[0], req.SourceID, req.Weight, req.Reason)
				if err != nil {
					return err
				}
				return p.score(res)
			})
		},
	}
	cmd.Flags().Float64Var(&req.Weight, "weight", 0, "Positive weight (default 1.0)")
	cmd.Flags().StringVar(&req.Reason, "reason", "", "Why the source is included")
	return cmd
}

func sourceDetachCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detach [analysis-id] [source-id]",
		Short: "Detach a source from an analysis and rescore it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				res, err := a.Services().Catalog.DetachSource(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return p.score(res)
			})
		},
	}
}

func sourceFlagsCmd(opts *rootOptions) *cobra.Command {
	var (
		authoritative bool
		status        string
	)
	cmd := &cobra.Command{
		Use:   "flags [source-id]",
		Short: "Change authority or status and rescore every analysis using the source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req transport.UpdateFlagsRequest
			if cmd.Flags().Changed("authoritative") {
				req.Authoritative = &authoritative
			}
			if cmd.Flags().Changed("status") {
				req.Status = &status
			}
			if err := req.Validate(); err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				src, results, err := a.Services().Catalog.UpdateSourceFlags(ctx, args[0], req.Flags())
				if err != nil {
					return err
				}
				if err := p.source(transport.NewSourceView(src)); err != nil {
					return err
				}
				var errs []error
				for _, res := range results {
					errs = append(errs, p.score(res))
				}
				return errors.Join(errs...)
			})
		},
	}
	cmd.Flags().BoolVar(&authoritative, "authoritative", false, "New authoritative flag")
	cmd.Flags().StringVar(&status, "status", "", "New status: draft, final or archived")
	return cmd
}

func sourcePurgeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge [source-id]",
		Short: "Purge extracted text in a zero-persistence workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app.Application, p *printer) error {
				src, err := a.Services().Catalog.PurgeSourceText(ctx, args[0])
				if err != nil {
					return err
				}
				return p.source(transport.NewSourceView(src))
			})
		},
	}
}
