package transport

import (
	"time"

	"RigorScore/internal/domain"
)

// WorkspaceView is the wire form of a workspace.
type WorkspaceView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ZeroPersistence bool   `json:"zero_persistence"`
	RetentionDays   int    `json:"retention_days"`
}

// AnalysisView is the wire form of an analysis.
type AnalysisView struct {
	ID           string     `json:"id"`
	WorkspaceID  string     `json:"workspace_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	PromptPackID string     `json:"prompt_pack_id"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// SourceView is the wire form of a source. Extracted text is never echoed back.
type SourceView struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspace_id"`
	Title         string     `json:"title"`
	Type          string     `json:"type"`
	Authoritative bool       `json:"authoritative"`
	Status        string     `json:"status"`
	DocumentDate  *time.Time `json:"document_date,omitempty"`
	ContentHash   string     `json:"content_hash"`
	WordCount     int        `json:"word_count"`
	HasText       bool       `json:"has_text"`
	TextPurgedAt  *time.Time `json:"text_purged_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// BoundSourceView is a source as bound into an analysis.
type BoundSourceView struct {
	SourceView
	Weight          float64   `json:"weight"`
	InclusionReason string    `json:"inclusion_reason,omitempty"`
	AddedAt         time.Time `json:"added_at"`
}

// LogEntryView is the wire form of a score snapshot.
type LogEntryView struct {
	ID                 string    `json:"id"`
	Seq                int       `json:"seq"`
	Timestamp          time.Time `json:"timestamp"`
	Composite          float64   `json:"composite"`
	Veracity           float64   `json:"veracity"`
	Conflict           float64   `json:"conflict"`
	Logic              float64   `json:"logic"`
	SourceCount        int       `json:"source_count"`
	AuthoritativeCount int       `json:"authoritative_count"`
	ConflictCount      int       `json:"conflict_count"`
	Delta              *float64  `json:"delta"`
	Trigger            string    `json:"trigger"`
	Note               string    `json:"note,omitempty"`
}

// PackView is the wire form of a prompt pack.
type PackView struct {
	ID          string             `json:"id"`
	UseCase     string             `json:"use_case"`
	Version     string             `json:"version"`
	Description string             `json:"description"`
	Criteria    []domain.Criterion `json:"criteria"`
}

// NewWorkspaceView converts a workspace.
func NewWorkspaceView(ws domain.Workspace) WorkspaceView {
	return WorkspaceView{ID: ws.ID, Name: ws.Name, ZeroPersistence: ws.ZeroPersistence, RetentionDays: ws.RetentionDays}
}

// NewAnalysisView converts an analysis.
func NewAnalysisView(a domain.Analysis) AnalysisView {
	return AnalysisView{
		ID:           a.ID,
		WorkspaceID:  a.WorkspaceID,
		Name:         a.Name,
		Description:  a.Description,
		PromptPackID: a.PromptPackID,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		CompletedAt:  a.CompletedAt,
	}
}

// NewSourceView converts a source.
func NewSourceView(s domain.Source) SourceView {
	return SourceView{
		ID:            s.ID,
		WorkspaceID:   s.WorkspaceID,
		Title:         s.Title,
		Type:          string(s.Type),
		Authoritative: s.Authoritative,
		Status:        string(s.Status),
		DocumentDate:  s.DocumentDate,
		ContentHash:   s.ContentHash,
		WordCount:     s.WordCount,
		HasText:       s.HasText(),
		TextPurgedAt:  s.TextPurgedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// NewBoundSourceViews converts the weighted sources of an analysis.
func NewBoundSourceViews(sources []domain.WeightedSource) []BoundSourceView {
	out := make([]BoundSourceView, 0, len(sources))
	for _, s := range sources {
		out = append(out, BoundSourceView{
			SourceView:      NewSourceView(s.Source),
			Weight:          s.Weight,
			InclusionReason: s.InclusionReason,
			AddedAt:         s.AddedAt,
		})
	}
	return out
}

// NewLogEntryViews converts history entries, keeping their order.
func NewLogEntryViews(entries []domain.LogEntry) []LogEntryView {
	out := make([]LogEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, LogEntryView{
			ID:                 e.ID,
			Seq:                e.Seq,
			Timestamp:          e.Timestamp,
			Composite:          e.Composite,
			Veracity:           e.Veracity,
			Conflict:           e.Conflict,
			Logic:              e.Logic,
			SourceCount:        e.SourceCount,
			AuthoritativeCount: e.AuthoritativeCount,
			ConflictCount:      e.ConflictCount,
			Delta:              e.Delta,
			Trigger:            string(e.Trigger),
			Note:               e.Note,
		})
	}
	return out
}

// NewPackViews converts prompt packs.
func NewPackViews(packs []domain.PromptPack) []PackView {
	out := make([]PackView, 0, len(packs))
	for _, p := range packs {
		out = append(out, PackView{
			ID:          p.ID(),
			UseCase:     string(p.UseCase),
			Version:     p.Version,
			Description: p.Description,
			Criteria:    p.Criteria(),
		})
	}
	return out
}
