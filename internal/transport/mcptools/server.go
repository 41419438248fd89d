package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"RigorScore/internal/transport"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewServer registers every tool on a new MCP server.
func NewServer(svc transport.Services) *server.MCPServer {
	s := server.NewMCPServer(
		"rigorscore",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	catalog := svc.Catalog
	scoring := svc.Scoring

	listPacks := NewListPacksTool(svc.Packs)
	s.AddTool(listPacks.Definition(), listPacks.Handle)

	createWorkspace := NewCreateWorkspaceTool(catalog)
	s.AddTool(createWorkspace.Definition(), createWorkspace.Handle)

	createAnalysis := NewCreateAnalysisTool(catalog)
	s.AddTool(createAnalysis.Definition(), createAnalysis.Handle)

	getAnalysis := NewGetAnalysisTool(catalog)
	s.AddTool(getAnalysis.Definition(), getAnalysis.Handle)

	registerSource := NewRegisterSourceTool(catalog)
	s.AddTool(registerSource.Definition(), registerSource.Handle)

	attachSource := NewAttachSourceTool(catalog)
	s.AddTool(attachSource.Definition(), attachSource.Handle)

	detachSource := NewDetachSourceTool(catalog)
	s.AddTool(detachSource.Definition(), detachSource.Handle)

	updateFlags := NewUpdateSourceFlagsTool(catalog)
	s.AddTool(updateFlags.Definition(), updateFlags.Handle)

	purge := NewPurgeSourceTextTool(catalog)
	s.AddTool(purge.Definition(), purge.Handle)

	score := NewScoreTool(scoring)
	s.AddTool(score.Definition(), score.Handle)

	evaluate := NewEvaluateReadinessTool(scoring)
	s.AddTool(evaluate.Definition(), evaluate.Handle)

	status := NewReadinessStatusTool(scoring)
	s.AddTool(status.Definition(), status.Handle)

	history := NewHistoryTool(scoring)
	s.AddTool(history.Definition(), history.Handle)

	return s
}

// ServeStdio runs the server over stdin and stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

const instructions = `RigorScore scores how trustworthy a set of business documents is for a decision.

Typical flow:
1. rigor_list_packs to pick a use case.
2. rigor_create_workspace, then rigor_create_analysis with a prompt pack.
3. rigor_register_source for each extracted document, then rigor_attach_source.
   Attaching rescores the analysis; rigor_score records a manual snapshot.
4. rigor_evaluate_readiness checks every required criterion of the pack;
   rigor_readiness_status reports the latest result without new oracle calls.
5. rigor_history shows how the composite moved over time.`
