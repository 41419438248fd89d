package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"RigorScore/internal/transport"
)

// RegisterSourceTool stores an already-extracted document.
type RegisterSourceTool struct {
	catalog transport.Catalog
}

// NewRegisterSourceTool creates the rigor_register_source tool.
func NewRegisterSourceTool(catalog transport.Catalog) *RegisterSourceTool {
	return &RegisterSourceTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *RegisterSourceTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_register_source",
		mcp.WithDescription("Register a document whose text is already extracted. Type drives its veracity weight "+
			"(final-pdf, presentation, spreadsheet, transcript, draft-document); HTML text is reduced to visible text."),
		mcp.WithString("workspace_id", mcp.Required(), mcp.Description("Owning workspace")),
		mcp.WithString("title", mcp.Description("Document title")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Document type")),
		mcp.WithBoolean("authoritative", mcp.Description("Marks the document as an authoritative source")),
		mcp.WithString("status", mcp.Description("draft, final or archived (default draft)")),
		mcp.WithString("document_date", mcp.Description("Date of the document, YYYY-MM-DD")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Extracted text")),
	)
}

// Handle answers the call.
func (t *RegisterSourceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := dateArg(req, "document_date")
	if err != nil {
		return errorResult(err)
	}
	in := transport.RegisterSourceRequest{
		WorkspaceID:   req.GetString("workspace_id", ""),
		Title:         req.GetString("title", ""),
		Type:          req.GetString("type", ""),
		Authoritative: req.GetBool("authoritative", false),
		Status:        req.GetString("status", ""),
		DocumentDate:  date,
		Text:          req.GetString("text", ""),
	}
	if err := in.Validate(); err != nil {
		return errorResult(err)
	}
	src, err := t.catalog.RegisterSource(ctx, in.Input())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(transport.NewSourceView(src))
}

// AttachSourceTool binds a source into an analysis and rescores it.
type AttachSourceTool struct {
	catalog transport.Catalog
}

// NewAttachSourceTool creates the rigor_attach_source tool.
func NewAttachSourceTool(catalog transport.Catalog) *AttachSourceTool {
	return &AttachSourceTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *AttachSourceTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_attach_source",
		mcp.WithDescription("Attach a source to an analysis with an optional weight (default 1.0) "+
			"and record a new score snapshot with trigger source-added."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Target analysis")),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source from the same workspace")),
		mcp.WithNumber("weight", mcp.Description("Positive weight, default 1.0")),
		mcp.WithString("reason", mcp.Description("Why the source is included")),
	)
}

// Handle answers the call.
func (t *AttachSourceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysisID, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	in := transport.AttachSourceRequest{
		SourceID: req.GetString("source_id", ""),
		Weight:   req.GetFloat("weight", 0),
		Reason:   req.GetString("reason", ""),
	}
	if err := in.Validate(); err != nil {
		return errorResult(err)
	}
	res, err := t.catalog.AttachSource(ctx, analysisID, in.SourceID, in.Weight, in.Reason)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// DetachSourceTool removes a source from an analysis and rescores it.
type DetachSourceTool struct {
	catalog transport.Catalog
}

// NewDetachSourceTool creates the rigor_detach_source tool.
func NewDetachSourceTool(catalog transport.Catalog) *DetachSourceTool {
	return &DetachSourceTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *DetachSourceTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_detach_source",
		mcp.WithDescription("Detach a source from an analysis and record a reanalysis snapshot."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Target analysis")),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source to detach")),
	)
}

// Handle answers the call.
func (t *DetachSourceTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysisID, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	sourceID, err := req.RequireString("source_id")
	if err != nil {
		return errorResult(err)
	}
	res, err := t.catalog.DetachSource(ctx, analysisID, sourceID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// UpdateSourceFlagsTool edits authority or status and rescores every referencing analysis.
type UpdateSourceFlagsTool struct {
	catalog transport.Catalog
}

// NewUpdateSourceFlagsTool creates the rigor_update_source_flags tool.
func NewUpdateSourceFlagsTool(catalog transport.Catalog) *UpdateSourceFlagsTool {
	return &UpdateSourceFlagsTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *UpdateSourceFlagsTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_update_source_flags",
		mcp.WithDescription("Change a source's authoritative flag or status. Every analysis using the source is rescored."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source to update")),
		mcp.WithBoolean("authoritative", mcp.Description("New authoritative flag")),
		mcp.WithString("status", mcp.Description("New status: draft, final or archived")),
	)
}

// Handle answers the call.
func (t *UpdateSourceFlagsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID, err := req.RequireString("source_id")
	if err != nil {
		return errorResult(err)
	}
	in := transport.UpdateFlagsRequest{
		Authoritative: optionalBool(req, "authoritative"),
		Status:        optionalString(req, "status"),
	}
	if err := in.Validate(); err != nil {
		return errorResult(err)
	}
	src, results, err := t.catalog.UpdateSourceFlags(ctx, sourceID, in.Flags())
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(map[string]any{"source": transport.NewSourceView(src), "rescored": results})
}

// PurgeSourceTextTool drops extracted text under a zero-persistence workspace.
type PurgeSourceTextTool struct {
	catalog transport.Catalog
}

// NewPurgeSourceTextTool creates the rigor_purge_source_text tool.
func NewPurgeSourceTextTool(catalog transport.Catalog) *PurgeSourceTextTool {
	return &PurgeSourceTextTool{catalog: catalog}
}

// Definition returns the tool schema.
func (t *PurgeSourceTextTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_purge_source_text",
		mcp.WithDescription("Purge a source's extracted text. Only allowed in zero-persistence workspaces; "+
			"metadata, content hash and word count are kept and history is not rescored."),
		mcp.WithString("source_id", mcp.Required(), mcp.Description("Source to purge")),
	)
}

// Handle answers the call.
func (t *PurgeSourceTextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sourceID, err := req.RequireString("source_id")
	if err != nil {
		return errorResult(err)
	}
	src, err := t.catalog.PurgeSourceText(ctx, sourceID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(transport.NewSourceView(src))
}
