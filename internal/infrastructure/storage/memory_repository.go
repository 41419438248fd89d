package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// MemoryRepository is an in-process store used for tests and ephemeral runs.
type MemoryRepository struct {
	mu         sync.RWMutex
	workspaces map[string]domain.Workspace
	sources    map[string]domain.Source
	analyses   map[string]domain.Analysis
	links      map[string][]domain.AnalysisSource
	checks     map[string][]domain.ReadinessCheck
	entries    map[string][]domain.LogEntry
}

var _ ports.Repository = (*MemoryRepository)(nil)

// NewMemoryRepository builds an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		workspaces: map[string]domain.Workspace{},
		sources:    map[string]domain.Source{},
		analyses:   map[string]domain.Analysis{},
		links:      map[string][]domain.AnalysisSource{},
		checks:     map[string][]domain.ReadinessCheck{},
		entries:    map[string][]domain.LogEntry{},
	}
}

// SaveWorkspace upserts a workspace.
func (m *MemoryRepository) SaveWorkspace(_ context.Context, ws domain.Workspace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces[ws.ID] = ws
	return nil
}

// GetWorkspace loads a workspace by id.
func (m *MemoryRepository) GetWorkspace(_ context.Context, id string) (domain.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return domain.Workspace{}, domain.ErrWorkspaceNotFound
	}
	return ws, nil
}

// ListWorkspaces returns every workspace ordered by id.
func (m *MemoryRepository) ListWorkspaces(_ context.Context) ([]domain.Workspace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		out = append(out, ws)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveSource inserts a source.
func (m *MemoryRepository) SaveSource(_ context.Context, src domain.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sources[src.ID]; exists {
		return fmt.Errorf("source %s already exists", src.ID)
	}
	m.sources[src.ID] = src
	return nil
}

// GetSource loads a source by id.
func (m *MemoryRepository) GetSource(_ context.Context, id string) (domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[id]
	if !ok {
		return domain.Source{}, domain.ErrSourceNotFound
	}
	return src, nil
}

// UpdateSourceFlags edits the authority flag and status.
func (m *MemoryRepository) UpdateSourceFlags(_ context.Context, id string, flags domain.SourceFlags, at time.Time) (domain.Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return domain.Source{}, domain.ErrSourceNotFound
	}
	if flags.Authoritative != nil {
		src.Authoritative = *flags.Authoritative
	}
	if flags.Status != nil {
		src.Status = *flags.Status
	}
	src.UpdatedAt = at
	m.sources[id] = src
	return src, nil
}

// PurgeSourceText clears the text and stamps the purge time.
func (m *MemoryRepository) PurgeSourceText(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok {
		return domain.ErrSourceNotFound
	}
	src.Text = ""
	src.TextPurgedAt = &at
	src.UpdatedAt = at
	m.sources[id] = src
	return nil
}

// ListSourcesCreatedBefore returns unpurged workspace sources created before cutoff.
func (m *MemoryRepository) ListSourcesCreatedBefore(_ context.Context, workspaceID string, cutoff time.Time) ([]domain.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Source
	for _, src := range m.sources {
		if src.WorkspaceID == workspaceID && src.TextPurgedAt == nil && src.CreatedAt.Before(cutoff) {
			out = append(out, src)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveAnalysis inserts an analysis.
func (m *MemoryRepository) SaveAnalysis(_ context.Context, a domain.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.analyses[a.ID]; exists {
		return fmt.Errorf("analysis %s already exists", a.ID)
	}
	m.analyses[a.ID] = a
	return nil
}

// GetAnalysis loads an analysis by id.
func (m *MemoryRepository) GetAnalysis(_ context.Context, id string) (domain.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.analyses[id]
	if !ok {
		return domain.Analysis{}, domain.ErrAnalysisNotFound
	}
	return a, nil
}

// ListAnalysesByStatus returns analyses in a lifecycle state ordered by id.
func (m *MemoryRepository) ListAnalysesByStatus(_ context.Context, status domain.AnalysisStatus) ([]domain.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Analysis
	for _, a := range m.analyses {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateAnalysisStatus moves an analysis to status.
func (m *MemoryRepository) UpdateAnalysisStatus(_ context.Context, id string, status domain.AnalysisStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.analyses[id]
	if !ok {
		return domain.ErrAnalysisNotFound
	}
	a.Status = status
	a.UpdatedAt = at
	if status == domain.AnalysisCompleted {
		a.CompletedAt = &at
	}
	m.analyses[id] = a
	return nil
}

// AttachSource binds a source, replacing weight and reason when already bound.
func (m *MemoryRepository) AttachSource(_ context.Context, link domain.AnalysisSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.analyses[link.AnalysisID]; !ok {
		return domain.ErrAnalysisNotFound
	}
	if _, ok := m.sources[link.SourceID]; !ok {
		return domain.ErrSourceNotFound
	}
	links := m.links[link.AnalysisID]
	for i, existing := range links {
		if existing.SourceID == link.SourceID {
			links[i].Weight = link.Weight
			links[i].InclusionReason = link.InclusionReason
			return nil
		}
	}
	m.links[link.AnalysisID] = append(links, link)
	return nil
}

// DetachSource removes a binding.
func (m *MemoryRepository) DetachSource(_ context.Context, analysisID, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := m.links[analysisID]
	for i, existing := range links {
		if existing.SourceID == sourceID {
			m.links[analysisID] = append(links[:i:i], links[i+1:]...)
			return nil
		}
	}
	return domain.ErrSourceNotFound
}

// ListAnalysisSources returns the weighted sources of an analysis in binding order.
func (m *MemoryRepository) ListAnalysisSources(_ context.Context, analysisID string) ([]domain.WeightedSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	links := m.links[analysisID]
	out := make([]domain.WeightedSource, 0, len(links))
	for _, l := range links {
		src, ok := m.sources[l.SourceID]
		if !ok {
			continue
		}
		out = append(out, domain.WeightedSource{
			Source:          src,
			Weight:          l.Weight,
			InclusionReason: l.InclusionReason,
			AddedAt:         l.AddedAt,
		})
	}
	return out, nil
}

// ListAnalysesForSource returns the ids of analyses binding a source.
func (m *MemoryRepository) ListAnalysesForSource(_ context.Context, sourceID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for analysisID, links := range m.links {
		for _, l := range links {
			if l.SourceID == sourceID {
				ids = append(ids, analysisID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// SaveCheck appends a readiness check.
func (m *MemoryRepository) SaveCheck(_ context.Context, c domain.ReadinessCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[c.AnalysisID] = append(m.checks[c.AnalysisID], c)
	return nil
}

// ListChecks returns every check of an analysis, oldest first.
func (m *MemoryRepository) ListChecks(_ context.Context, analysisID string) ([]domain.ReadinessCheck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]domain.ReadinessCheck(nil), m.checks[analysisID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Batch != out[j].Batch {
			return out[i].Batch < out[j].Batch
		}
		return out[i].CheckedAt.Before(out[j].CheckedAt)
	})
	return out, nil
}

// AppendEntry inserts a snapshot; a taken seq yields ErrSeqConflict.
func (m *MemoryRepository) AppendEntry(_ context.Context, e domain.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.entries[e.AnalysisID] {
		if existing.Seq == e.Seq {
			return fmt.Errorf("append entry %d for %s: %w", e.Seq, e.AnalysisID, ErrSeqConflict)
		}
	}
	m.entries[e.AnalysisID] = append(m.entries[e.AnalysisID], e)
	return nil
}

// LatestEntry returns the highest-seq snapshot or nil.
func (m *MemoryRepository) LatestEntry(_ context.Context, analysisID string) (*domain.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *domain.LogEntry
	for _, e := range m.entries[analysisID] {
		if latest == nil || e.Seq > latest.Seq {
			latest = &e
		}
	}
	return latest, nil
}

// ListEntries returns snapshots newest first.
func (m *MemoryRepository) ListEntries(_ context.Context, analysisID string) ([]domain.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]domain.LogEntry(nil), m.entries[analysisID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}
