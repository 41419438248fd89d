package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"RigorScore/internal/transport"
)

// ListPacksTool lists the prompt packs analyses can bind to.
type ListPacksTool struct {
	packs transport.Packs
}

// NewListPacksTool creates the rigor_list_packs tool.
func NewListPacksTool(packs transport.Packs) *ListPacksTool {
	return &ListPacksTool{packs: packs}
}

// Definition returns the tool schema.
func (t *ListPacksTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_list_packs",
		mcp.WithDescription("List the versioned prompt packs (post-mortem, strategy-review, decision-review, risk-assessment) "+
			"and the readiness criteria each one requires."),
	)
}

// Handle answers the call.
func (t *ListPacksTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"packs": transport.NewPackViews(t.packs.List())})
}

// CreateWorkspaceTool creates a workspace.
type CreateWorkspaceTool struct {
	catalog transport.Catalog
}

// NewCreateWorkspaceTool creates the rigor_create_workspace tool.
func NewCreateWorkspaceTool(catalog transport.Catalog) *CreateWorkspaceTool {
	return &CreateWorkspaceTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *CreateWorkspaceTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_create_workspace",
		mcp.WithDescription("Create a workspace that owns sources and analyses. "+
			"With zero_persistence, extracted text is purged once retention_days have passed."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Workspace name")),
		mcp.WithBoolean("zero_persistence", mcp.Description("Allow purging extracted text")),
		mcp.WithNumber("retention_days", mcp.Description("Days to keep extracted text (0 keeps it until purged by hand)")),
	)
}

// Handle answers the call.
func (t *CreateWorkspaceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := transport.CreateWorkspaceRequest{
		Name:            req.GetString("name", ""),
		ZeroPersistence: req.GetBool("zero_persistence", false),
		RetentionDays:   intArg(req, "retention_days", 0),
	}
	if err := in.Validate(); err != nil {
		return errorResult(err)
	}
	ws, err := t.catalog.CreateWorkspace(ctx, in.Input())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(transport.NewWorkspaceView(ws))
}

// CreateAnalysisTool creates an analysis pinned to a prompt pack.
type CreateAnalysisTool struct {
	catalog transport.Catalog
}

// NewCreateAnalysisTool creates the rigor_create_analysis tool.
func NewCreateAnalysisTool(catalog transport.Catalog) *CreateAnalysisTool {
	return &CreateAnalysisTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *CreateAnalysisTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_create_analysis",
		mcp.WithDescription("Create an analysis in a workspace. A bare use case such as 'post-mortem' is pinned "+
			"to its latest pack version at creation."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Owning workspace")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Analysis name")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("prompt_pack_id", mcp.Required(), mcp.Description("'<use-case>' or '<use-case>@<version>'")),
	)
}

// Handle answers the call.
func (t *CreateAnalysisTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := transport.CreateAnalysisRequest{
		WorkspaceID:  req.GetString("workspace_id", ""),
		Name:         req.GetString("name", ""),
		Description:  req.GetString("description", ""),
		PromptPackID: req.GetString("prompt_pack_id", ""),
	}
	if err := in.Validate(); err != nil {
		return errorResult(err)
	}
	analysis, err := t.catalog.CreateAnalysis(ctx, in.Input())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(transport.NewAnalysisView(analysis))
}

// GetAnalysisTool shows an analysis with its bound sources.
type GetAnalysisTool struct {
	catalog transport.Catalog
}

// NewGetAnalysisTool creates the rigor_get_analysis tool.
func NewGetAnalysisTool(catalog transport.Catalog) *GetAnalysisTool {
	return &GetAnalysisTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *GetAnalysisTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_get_analysis",
		mcp.WithDescription("Show an analysis, its lifecycle status and the weighted sources bound into it."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Analysis to show")),
	)
}

// Handle answers the call.
func (t *GetAnalysisTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	analysis, err := t.catalog.GetAnalysis(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	sources, err := t.catalog.AnalysisSources(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{
		"analysis": transport.NewAnalysisView(analysis),
		"sources":  transport.NewBoundSourceViews(sources),
	})
}
