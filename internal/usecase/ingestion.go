package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// Scorer is the part of the engine ingestion triggers after binding changes.
type Scorer interface {
	Score(ctx context.Context, analysisID string, trigger domain.Trigger) (ScoreResult, error)
}

// IngestionDeps wires collaborators of the ingestion service.
type IngestionDeps struct {
	Repository ports.Repository
	Packs      ports.PromptPackResolver
	Scorer     Scorer
	Normalize  func(string) string
	Logger     *slog.Logger
	Clock      func() time.Time
	NewID      func() string
}

// Ingestion manages workspaces, analyses and sources around the engine.
type Ingestion struct {
	repo      ports.Repository
	packs     ports.PromptPackResolver
	scorer    Scorer
	normalize func(string) string
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
}

// NewIngestion constructs the service.
func NewIngestion(deps IngestionDeps) *Ingestion {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Ingestion{
		repo:      deps.Repository,
		packs:     deps.Packs,
		scorer:    deps.Scorer,
		normalize: deps.Normalize,
		logger:    logger.With("component", "ingestion"),
		clock:     clock,
		newID:     newID,
	}
}

// NewWorkspace describes a workspace to create.
type NewWorkspace struct {
	Name            string
	ZeroPersistence bool
	RetentionDays   int
}

// CreateWorkspace stores a new workspace with its retention policy.
func (s *Ingestion) CreateWorkspace(ctx context.Context, in NewWorkspace) (domain.Workspace, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Workspace{}, errors.New("workspace name is required")
	}
	if in.RetentionDays < 0 {
		return domain.Workspace{}, fmt.Errorf("retention days must not be negative, got %d", in.RetentionDays)
	}
	ws := domain.Workspace{
		ID:              s.newID(),
		Name:            strings.TrimSpace(in.Name),
		ZeroPersistence: in.ZeroPersistence,
		RetentionDays:   in.RetentionDays,
	}
	if err := s.repo.SaveWorkspace(ctx, ws); err != nil {
		return domain.Workspace{}, fmt.Errorf("save workspace: %w", err)
	}
	return ws, nil
}

// NewAnalysis describes an analysis to create.
type NewAnalysis struct {
	WorkspaceID  string
	Name         string
	Description  string
	PromptPackID string
}

// CreateAnalysis stores a pending analysis pinned to a concrete pack version.
func (s *Ingestion) CreateAnalysis(ctx context.Context, in NewAnalysis) (domain.Analysis, error) {
	if _, err := s.repo.GetWorkspace(ctx, in.WorkspaceID); err != nil {
		return domain.Analysis{}, fmt.Errorf("load workspace %s: %w", in.WorkspaceID, err)
	}
	pack, err := s.packs.Resolve(in.PromptPackID)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("create analysis: %w", err)
	}

	now := s.clock()
	analysis := domain.Analysis{
		ID:           s.newID(),
		WorkspaceID:  in.WorkspaceID,
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		PromptPackID: pack.ID(),
		Status:       domain.AnalysisPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.SaveAnalysis(ctx, analysis); err != nil {
		return domain.Analysis{}, fmt.Errorf("save analysis: %w", err)
	}
	s.logger.Info("analysis created", "analysis_id", analysis.ID, "pack", analysis.PromptPackID)
	return analysis, nil
}

// NewSource describes an already-extracted document.
type NewSource struct {
	WorkspaceID   string
	Title         string
	Type          domain.SourceType
	Authoritative bool
	Status        domain.SourceStatus
	DocumentDate  *time.Time
	ContentHash   string
	WordCount     int
	Text          string
}

// RegisterSource stores a source, deriving content hash and word count when absent.
func (s *Ingestion) RegisterSource(ctx context.Context, in NewSource) (domain.Source, error) {
	if _, err := s.repo.GetWorkspace(ctx, in.WorkspaceID); err != nil {
		return domain.Source{}, fmt.Errorf("load workspace %s: %w", in.WorkspaceID, err)
	}
	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if !status.Valid() {
		return domain.Source{}, fmt.Errorf("unknown source status %q", in.Status)
	}
	if in.WordCount < 0 {
		return domain.Source{}, fmt.Errorf("word count must not be negative, got %d", in.WordCount)
	}

	now := s.clock()
	src := domain.Source{
		ID:            s.newID(),
		WorkspaceID:   in.WorkspaceID,
		Title:         strings.TrimSpace(in.Title),
		Type:          domain.SourceType(strings.ToLower(strings.TrimSpace(string(in.Type)))),
		Authoritative: in.Authoritative,
		Status:        status,
		DocumentDate:  in.DocumentDate,
		ContentHash:   in.ContentHash,
		WordCount:     in.WordCount,
		Text:          in.Text,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if src.ContentHash == "" {
		src.ContentHash = domain.HashText(src.Text)
	}
	if src.WordCount == 0 {
		text := src.Text
		if s.normalize != nil {
			text = s.normalize(text)
		}
		src.WordCount = domain.CountWords(text)
	}

	if err := s.repo.SaveSource(ctx, src); err != nil {
		return domain.Source{}, fmt.Errorf("save source: %w", err)
	}
	return src, nil
}

// AttachSource binds a source into an analysis and rescores it with trigger source-added.
// A zero weight means the default weight.
func (s *Ingestion) AttachSource(ctx context.Context, analysisID, sourceID string, weight float64, reason string) (ScoreResult, error) {
	if weight == 0 {
		weight = domain.DefaultSourceWeight
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ScoreResult{}, fmt.Errorf("attach source %s: %w", sourceID, domain.ErrInvalidWeight)
	}

	analysis, err := s.repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("load analysis %s: %w", analysisID, err)
	}
	src, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("load source %s: %w", sourceID, err)
	}
	if src.WorkspaceID != analysis.WorkspaceID {
		return ScoreResult{}, fmt.Errorf("source %s belongs to another workspace: %w", sourceID, domain.ErrSourceNotFound)
	}

	err = s.repo.AttachSource(ctx, domain.AnalysisSource{
		AnalysisID:      analysisID,
		SourceID:        sourceID,
		Weight:          weight,
		InclusionReason: reason,
		AddedAt:         s.clock(),
	})
	if err != nil {
		return ScoreResult{}, fmt.Errorf("attach source %s: %w", sourceID, err)
	}
	return s.rescore(ctx, analysisID, domain.TriggerSourceAdded)
}

// DetachSource unbinds a source and rescores with trigger reanalysis.
func (s *Ingestion) DetachSource(ctx context.Context, analysisID, sourceID string) (ScoreResult, error) {
	if _, err := s.repo.GetAnalysis(ctx, analysisID); err != nil {
		return ScoreResult{}, fmt.Errorf("load analysis %s: %w", analysisID, err)
	}
	if err := s.repo.DetachSource(ctx, analysisID, sourceID); err != nil {
		return ScoreResult{}, fmt.Errorf("detach source %s: %w", sourceID, err)
	}
	return s.rescore(ctx, analysisID, domain.TriggerReanalysis)
}

// UpdateSourceFlags edits authority or status and rescores every analysis that references the source.
func (s *Ingestion) UpdateSourceFlags(ctx context.Context, sourceID string, flags domain.SourceFlags) (domain.Source, []ScoreResult, error) {
	if flags.Status != nil && !flags.Status.Valid() {
		return domain.Source{}, nil, fmt.Errorf("unknown source status %q", *flags.Status)
	}
	src, err := s.repo.UpdateSourceFlags(ctx, sourceID, flags, s.clock())
	if err != nil {
		return domain.Source{}, nil, fmt.Errorf("update source %s: %w", sourceID, err)
	}

	analyses, err := s.repo.ListAnalysesForSource(ctx, sourceID)
	if err != nil {
		return src, nil, fmt.Errorf("list analyses for source %s: %w", sourceID, err)
	}

	results := make([]ScoreResult, 0, len(analyses))
	for _, id := range analyses {
		res, err := s.rescore(ctx, id, domain.TriggerReanalysis)
		if err != nil {
			return src, results, err
		}
		results = append(results, res)
	}
	return src, results, nil
}

// PurgeSourceText removes extracted text under the owning workspace's zero-persistence policy.
// Metadata, hash and word count are kept; existing history is not rescored.
func (s *Ingestion) PurgeSourceText(ctx context.Context, sourceID string) (domain.Source, error) {
	src, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return domain.Source{}, fmt.Errorf("load source %s: %w", sourceID, err)
	}
	ws, err := s.repo.GetWorkspace(ctx, src.WorkspaceID)
	if err != nil {
		return domain.Source{}, fmt.Errorf("load workspace %s: %w", src.WorkspaceID, err)
	}
	return s.purge(ctx, src, ws)
}

func (s *Ingestion) purge(ctx context.Context, src domain.Source, ws domain.Workspace) (domain.Source, error) {
	if !ws.ZeroPersistence {
		return domain.Source{}, fmt.Errorf("purge source %s: %w", src.ID, domain.ErrRetentionDisabled)
	}
	if src.TextPurgedAt != nil {
		return src, nil
	}
	now := s.clock()
	if err := s.repo.PurgeSourceText(ctx, src.ID, now); err != nil {
		return domain.Source{}, fmt.Errorf("purge source %s: %w", src.ID, err)
	}
	src.Text = ""
	src.TextPurgedAt = &now
	src.UpdatedAt = now
	s.logger.Info("source text purged", "source_id", src.ID, "workspace_id", ws.ID)
	return src, nil
}

func (s *Ingestion) rescore(ctx context.Context, analysisID string, trigger domain.Trigger) (ScoreResult, error) {
	if s.scorer == nil {
		return ScoreResult{AnalysisID: analysisID}, nil
	}
	res, err := s.scorer.Score(ctx, analysisID, trigger)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("rescore analysis %s: %w", analysisID, err)
	}
	return res, nil
}

// GetAnalysis loads one analysis.
func (s *Ingestion) GetAnalysis(ctx context.Context, id string) (domain.Analysis, error) {
	analysis, err := s.repo.GetAnalysis(ctx, id)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("load analysis %s: %w", id, err)
	}
	return analysis, nil
}

// AnalysisSources lists the weighted sources bound into an analysis.
func (s *Ingestion) AnalysisSources(ctx context.Context, id string) ([]domain.WeightedSource, error) {
	if _, err := s.GetAnalysis(ctx, id); err != nil {
		return nil, err
	}
	sources, err := s.repo.ListAnalysisSources(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list sources of %s: %w", id, err)
	}
	return sources, nil
}

// GetSource loads one source.
func (s *Ingestion) GetSource(ctx context.Context, id string) (domain.Source, error) {
	src, err := s.repo.GetSource(ctx, id)
	if err != nil {
		return domain.Source{}, fmt.Errorf("load source %s: %w", id, err)
	}
	return src, nil
}

// ListWorkspaces returns every workspace.
func (s *Ingestion) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	items, err := s.repo.ListWorkspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return items, nil
}
