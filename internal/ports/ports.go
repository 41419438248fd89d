package ports

import (
	"context"
	"time"

	"RigorScore/internal/domain"
)

// WorkspaceRepository stores workspaces and their retention policy.
type WorkspaceRepository interface {
	SaveWorkspace(ctx context.Context, ws domain.Workspace) error
	GetWorkspace(ctx context.Context, id string) (domain.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.Workspace, error)
}

// SourceRepository stores document metadata and extracted text.
type SourceRepository interface {
	SaveSource(ctx context.Context, src domain.Source) error
	GetSource(ctx context.Context, id string) (domain.Source, error)
	UpdateSourceFlags(ctx context.Context, id string, flags domain.SourceFlags, at time.Time) (domain.Source, error)
	PurgeSourceText(ctx context.Context, id string, at time.Time) error
	// ListSourcesCreatedBefore returns workspace sources created before cutoff that still hold text.
	ListSourcesCreatedBefore(ctx context.Context, workspaceID string, cutoff time.Time) ([]domain.Source, error)
}

// AnalysisRepository stores analyses and their weighted source bindings.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, analysis domain.Analysis) error
	GetAnalysis(ctx context.Context, id string) (domain.Analysis, error)
	ListAnalysesByStatus(ctx context.Context, status domain.AnalysisStatus) ([]domain.Analysis, error)
	UpdateAnalysisStatus(ctx context.Context, id string, status domain.AnalysisStatus, at time.Time) error
	AttachSource(ctx context.Context, link domain.AnalysisSource) error
	DetachSource(ctx context.Context, analysisID, sourceID string) error
	ListAnalysisSources(ctx context.Context, analysisID string) ([]domain.WeightedSource, error)
	ListAnalysesForSource(ctx context.Context, sourceID string) ([]string, error)
}

// ReadinessRepository keeps append-only criterion checks.
type ReadinessRepository interface {
	SaveCheck(ctx context.Context, check domain.ReadinessCheck) error
	ListChecks(ctx context.Context, analysisID string) ([]domain.ReadinessCheck, error)
}

// HistoryRepository keeps append-only score snapshots.
type HistoryRepository interface {
	// LatestEntry returns nil without error when the analysis has no history yet.
	LatestEntry(ctx context.Context, analysisID string) (*domain.LogEntry, error)
	AppendEntry(ctx context.Context, entry domain.LogEntry) error
	// ListEntries returns entries newest first.
	ListEntries(ctx context.Context, analysisID string) ([]domain.LogEntry, error)
}

// Repository is the full persistence surface the engine depends on.
type Repository interface {
	WorkspaceRepository
	SourceRepository
	AnalysisRepository
	ReadinessRepository
	HistoryRepository
}

// PromptPackResolver looks up locked prompt packs by "<use-case>@<version>".
type PromptPackResolver interface {
	Resolve(id string) (domain.PromptPack, error)
}

// Oracle answers natural-language judgments with a structured verdict.
type Oracle interface {
	Evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error)
}

// VerdictCache memoizes conflict verdicts keyed by content hashes.
type VerdictCache interface {
	Get(ctx context.Context, key string) (domain.Verdict, bool, error)
	Put(ctx context.Context, key string, verdict domain.Verdict) error
}

// HistorySink mirrors score snapshots into an external time-series store.
type HistorySink interface {
	Record(ctx context.Context, entry domain.LogEntry) error
}

// ReportPublisher exposes serialized results to read-only consumers.
type ReportPublisher interface {
	Publish(ctx context.Context, report domain.Report) error
}

// Notifier announces readiness flips.
type Notifier interface {
	NotifyReadiness(ctx context.Context, change domain.ReadinessChange) error
}

// Metrics records engine outcomes.
type Metrics interface {
	ObserveScore(trigger domain.Trigger, composite float64, duration time.Duration)
	ObserveReadiness(ready bool, score float64)
	ObserveOracleCall(task domain.OracleTask, outcome string, duration time.Duration)
	ObserveWarning(code domain.WarningCode)
}

// Scheduler controls when maintenance executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
