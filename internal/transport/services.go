// Package transport holds what the HTTP API, the MCP server and the CLI share:
// the service surface they drive, request validation and JSON views of domain types.
package transport

import (
	"context"

	"RigorScore/internal/domain"
	"RigorScore/internal/usecase"
)

// Scoring is the engine surface exposed to callers.
type Scoring interface {
	ScoreWithNote(ctx context.Context, analysisID string, trigger domain.Trigger, note string) (usecase.ScoreResult, error)
	EvaluateReadiness(ctx context.Context, analysisID string) (usecase.ReadinessResult, error)
	ReadinessStatus(ctx context.Context, analysisID string) (usecase.ReadinessResult, error)
	ReadinessHistory(ctx context.Context, analysisID string) ([]domain.LogEntry, error)
}

// Catalog manages workspaces, analyses and sources.
type Catalog interface {
	CreateWorkspace(ctx context.Context, in usecase.NewWorkspace) (domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
	CreateAnalysis(ctx context.Context, in usecase.NewAnalysis) (domain.Analysis, error)
	GetAnalysis(ctx context.Context, id string) (domain.Analysis, error)
	AnalysisSources(ctx context.Context, id string) ([]domain.WeightedSource, error)
	RegisterSource(ctx context.Context, in usecase.NewSource) (domain.Source, error)
	GetSource(ctx context.Context, id string) (domain.Source, error)
	AttachSource(ctx context.Context, analysisID, sourceID string, weight float64, reason string) (usecase.ScoreResult, error)
	DetachSource(ctx context.Context, analysisID, sourceID string) (usecase.ScoreResult, error)
	UpdateSourceFlags(ctx context.Context, sourceID string, flags domain.SourceFlags) (domain.Source, []usecase.ScoreResult, error)
	PurgeSourceText(ctx context.Context, sourceID string) (domain.Source, error)
}

// Packs lists the registered prompt packs.
type Packs interface {
	List() []domain.PromptPack
}

// Services bundles what every transport drives.
type Services struct {
	Scoring Scoring
	Catalog Catalog
	Packs   Packs
}
