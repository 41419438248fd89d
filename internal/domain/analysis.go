package domain

import "time"

// AnalysisStatus tracks the lifecycle of an Analysis, independent of its scores.
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisInProgress AnalysisStatus = "in-progress"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Analysis binds a workspace, a prompt pack and a weighted set of sources.
type Analysis struct {
	ID           string
	WorkspaceID  string
	Name         string
	Description  string
	PromptPackID string
	Status       AnalysisStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Workspace carries the per-workspace policy flags the engine's collaborators need.
type Workspace struct {
	ID              string
	Name            string
	ZeroPersistence bool
	RetentionDays   int
}

// AnalysisSource links a Source into an Analysis with a per-analysis weight.
type AnalysisSource struct {
	AnalysisID      string
	SourceID        string
	Weight          float64
	InclusionReason string
	AddedAt         time.Time
}

// Report is a serialized engine output handed to read-only collaborators.
type Report struct {
	AnalysisID string
	Kind       string
	CreatedAt  time.Time
	Body       []byte
}
