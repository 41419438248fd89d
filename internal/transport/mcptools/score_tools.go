package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"RigorScore/internal/transport"
)

// ScoreTool records a new composite score snapshot.
type ScoreTool struct {
	scoring transport.Scoring
}

// NewScoreTool creates the rigor_score tool.
func NewScoreTool(scoring transport.Scoring) *ScoreTool {
	return &ScoreTool{scoring: scoring}
}

// Definition returns the tool schema.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_score",
		mcp.WithDescription("Score an analysis: veracity, cross-source conflict and logic combine into a 0-100 composite "+
			"(0.4/0.3/0.3). Appends a history entry with the delta against the previous one."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Analysis to score")),
		mcp.WithString("trigger", mcp.Description("source-added, manual-trigger (default), reanalysis or correction")),
		mcp.WithString("note", mcp.Description("Note stored on the history entry")),
	)
}

// Handle answers the call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysisID, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	in := transport.ScoreRequest{Trigger: req.GetString("trigger", ""), Note: req.GetString("note", "")}
	if err := in.Validate(); err != nil {
		return errorResult(err)
	}
	res, err := t.scoring.ScoreWithNote(ctx, analysisID, in.TriggerValue(), in.Note)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// EvaluateReadinessTool runs every required criterion through the oracle.
type EvaluateReadinessTool struct {
	scoring transport.Scoring
}

// NewEvaluateReadinessTool creates the rigor_evaluate_readiness tool.
func NewEvaluateReadinessTool(scoring transport.Scoring) *EvaluateReadinessTool {
	return &EvaluateReadinessTool{scoring: scoring}
}

// Definition returns the tool schema.
func (t *EvaluateReadinessTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_evaluate_readiness",
		mcp.WithDescription("Evaluate each required criterion of the analysis' prompt pack against its sources. "+
			"Each check is stored; a failing oracle call only fails its own criterion."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Analysis to evaluate")),
	)
}

// Handle answers the call.
func (t *EvaluateReadinessTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysisID, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	res, err := t.scoring.EvaluateReadiness(ctx, analysisID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// ReadinessStatusTool reports readiness from stored checks without calling the oracle.
type ReadinessStatusTool struct {
	scoring transport.Scoring
}

// NewReadinessStatusTool creates the rigor_readiness_status tool.
func NewReadinessStatusTool(scoring transport.Scoring) *ReadinessStatusTool {
	return &ReadinessStatusTool{scoring: scoring}
}

// Definition returns the tool schema.
func (t *ReadinessStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_readiness_status",
		mcp.WithDescription("Report readiness from the latest stored check per criterion. Never calls the oracle."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Analysis to report")),
	)
}

// Handle answers the call.
func (t *ReadinessStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysisID, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	res, err := t.scoring.ReadinessStatus(ctx, analysisID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

// HistoryTool lists score snapshots, newest first.
type HistoryTool struct {
	scoring transport.Scoring
}

// NewHistoryTool creates the rigor_history tool.
func NewHistoryTool(scoring transport.Scoring) *HistoryTool {
	return &HistoryTool{scoring: scoring}
}

// Definition returns the tool schema.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("rigor_history",
		mcp.WithDescription("List the score history of an analysis, newest first, with the delta of each entry."),
		mcp.WithString("analysis_id", mcp.Required(), mcp.Description("Analysis to list")),
		mcp.WithNumber("limit", mcp.Description("Maximum entries to return (0 means all)")),
	)
}

// Handle answers the call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	analysisID, err := req.RequireString("analysis_id")
	if err != nil {
		return errorResult(err)
	}
	entries, err := t.scoring.ReadinessHistory(ctx, analysisID)
	if err != nil {
		return errorResult(err)
	}
	if limit := intArg(req, "limit", 0); limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return jsonResult(map[string]any{"entries": transport.NewLogEntryViews(entries)})
}
