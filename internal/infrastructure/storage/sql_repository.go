package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// SQLRepository persists engine state into Postgres or SQLite through squirrel-built queries.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
}

var _ ports.Repository = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB implementation; the schema must already exist.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
		sb:      sq.StatementBuilder.PlaceholderFormat(dialect.placeholders()),
	}
}

// Close releases the underlying pool.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *SQLRepository) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.db.QueryContext(ctx, query, args...)
}

func (r *SQLRepository) queryRow(ctx context.Context, b sq.Sqlizer) (*sql.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return r.db.QueryRowContext(ctx, query, args...), nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ─── workspaces ─────────────────────────────────────────────────────────────

// SaveWorkspace upserts a workspace.
func (r *SQLRepository) SaveWorkspace(ctx context.Context, ws domain.Workspace) error {
	_, err := r.exec(ctx, r.sb.Insert("workspaces").
		Columns("id", "name", "zero_persistence", "retention_days").
		Values(ws.ID, ws.Name, ws.ZeroPersistence, ws.RetentionDays).
		Suffix(`ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name,
			zero_persistence = EXCLUDED.zero_persistence,
			retention_days = EXCLUDED.retention_days`))
	if err != nil {
		return fmt.Errorf("upsert workspace: %w", err)
	}
	return nil
}

var workspaceColumns = []string{"id", "name", "zero_persistence", "retention_days"}

func scanWorkspace(s rowScanner) (domain.Workspace, error) {
	var ws domain.Workspace
	err := s.Scan(&ws.ID, &ws.Name, &ws.ZeroPersistence, &ws.RetentionDays)
	return ws, err
}

// GetWorkspace loads a workspace by id.
func (r *SQLRepository) GetWorkspace(ctx context.Context, id string) (domain.Workspace, error) {
	row, err := r.queryRow(ctx, r.sb.Select(workspaceColumns...).From("workspaces").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Workspace{}, err
	}
	ws, err := scanWorkspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Workspace{}, domain.ErrWorkspaceNotFound
	}
	if err != nil {
		return domain.Workspace{}, fmt.Errorf("scan workspace: %w", err)
	}
	return ws, nil
}

// ListWorkspaces returns every workspace ordered by id.
func (r *SQLRepository) ListWorkspaces(ctx context.Context) ([]domain.Workspace, error) {
	rows, err := r.query(ctx, r.sb.Select(workspaceColumns...).From("workspaces").OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("query workspaces: %w", err)
	}
	defer rows.Close()

	var out []domain.Workspace
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ─── sources ────────────────────────────────────────────────────────────────

var sourceColumns = []string{
	"s.id", "s.workspace_id", "s.title", "s.source_type", "s.authoritative", "s.status",
	"s.document_date", "s.content_hash", "s.word_count", "s.body", "s.text_purged_at",
	"s.created_at", "s.updated_at",
}

func scanSource(s rowScanner, extra ...any) (domain.Source, error) {
	var (
		src                      domain.Source
		docDate, purgedAt        sql.NullString
		createdAt, updatedAt     string
		sourceType, sourceStatus string
	)
	dest := []any{
		&src.ID, &src.WorkspaceID, &src.Title, &sourceType, &src.Authoritative, &sourceStatus,
		&docDate, &src.ContentHash, &src.WordCount, &src.Text, &purgedAt,
		&createdAt, &updatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return domain.Source{}, err
	}
	src.Type = domain.SourceType(sourceType)
	src.Status = domain.SourceStatus(sourceStatus)

	var err error
	if src.DocumentDate, err = parseTimePtr(docDate); err != nil {
		return domain.Source{}, err
	}
	if src.TextPurgedAt, err = parseTimePtr(purgedAt); err != nil {
		return domain.Source{}, err
	}
	if src.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Source{}, err
	}
	if src.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Source{}, err
	}
	return src, nil
}

// SaveSource inserts a new source.
func (r *SQLRepository) SaveSource(ctx context.Context, src domain.Source) error {
	_, err := r.exec(ctx, r.sb.Insert("sources").
		Columns("id", "workspace_id", "title", "source_type", "authoritative", "status",
			"document_date", "content_hash", "word_count", "body", "text_purged_at",
			"created_at", "updated_at").
		Values(src.ID, src.WorkspaceID, src.Title, string(src.Type), src.Authoritative, string(src.Status),
			formatTimePtr(src.DocumentDate), src.ContentHash, src.WordCount, src.Text, formatTimePtr(src.TextPurgedAt),
			formatTime(src.CreatedAt), formatTime(src.UpdatedAt)))
	if err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// GetSource loads a source by id.
func (r *SQLRepository) GetSource(ctx context.Context, id string) (domain.Source, error) {
	row, err := r.queryRow(ctx, r.sb.Select(sourceColumns...).From("sources AS s").Where(sq.Eq{"s.id": id}))
	if err != nil {
		return domain.Source{}, err
	}
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Source{}, domain.ErrSourceNotFound
	}
	if err != nil {
		return domain.Source{}, fmt.Errorf("scan source: %w", err)
	}
	return src, nil
}

// UpdateSourceFlags edits the authority flag and status, the only mutable source fields.
func (r *SQLRepository) UpdateSourceFlags(ctx context.Context, id string, flags domain.SourceFlags, at time.Time) (domain.Source, error) {
	upd := r.sb.Update("sources").Set("updated_at", formatTime(at)).Where(sq.Eq{"id": id})
	if flags.Authoritative != nil {
		upd = upd.Set("authoritative", *flags.Authoritative)
	}
	if flags.Status != nil {
		upd = upd.Set("status", string(*flags.Status))
	}
	res, err := r.exec(ctx, upd)
	if err != nil {
		return domain.Source{}, fmt.Errorf("update source flags: %w", err)
	}
	if err := requireAffected(res, domain.ErrSourceNotFound); err != nil {
		return domain.Source{}, err
	}
	return r.GetSource(ctx, id)
}

// PurgeSourceText clears the text and stamps the purge time.
func (r *SQLRepository) PurgeSourceText(ctx context.Context, id string, at time.Time) error {
	res, err := r.exec(ctx, r.sb.Update("sources").
		Set("body", "").
		Set("text_purged_at", formatTime(at)).
		Set("updated_at", formatTime(at)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("purge source text: %w", err)
	}
	return requireAffected(res, domain.ErrSourceNotFound)
}

// ListSourcesCreatedBefore returns unpurged workspace sources created before cutoff.
func (r *SQLRepository) ListSourcesCreatedBefore(ctx context.Context, workspaceID string, cutoff time.Time) ([]domain.Source, error) {
	rows, err := r.query(ctx, r.sb.Select(sourceColumns...).From("sources AS s").
		Where(sq.Eq{"s.workspace_id": workspaceID, "s.text_purged_at": nil}).
		Where(sq.Lt{"s.created_at": formatTime(cutoff)}).
		OrderBy("s.created_at", "s.id"))
	if err != nil {
		return nil, fmt.Errorf("query expired sources: %w", err)
	}
	defer rows.Close()

	var out []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ─── analyses ───────────────────────────────────────────────────────────────

var analysisColumns = []string{
	"id", "workspace_id", "name", "description", "prompt_pack_id", "status",
	"created_at", "updated_at", "completed_at",
}

func scanAnalysis(s rowScanner) (domain.Analysis, error) {
	var (
		a                    domain.Analysis
		status               string
		createdAt, updatedAt string
		completedAt          sql.NullString
	)
	if err := s.Scan(&a.ID, &a.WorkspaceID, &a.Name, &a.Description, &a.PromptPackID, &status,
		&createdAt, &updatedAt, &completedAt); err != nil {
		return domain.Analysis{}, err
	}
	a.Status = domain.AnalysisStatus(status)

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Analysis{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Analysis{}, err
	}
	if a.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return domain.Analysis{}, err
	}
	return a, nil
}

// SaveAnalysis inserts a new analysis.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, a domain.Analysis) error {
	_, err := r.exec(ctx, r.sb.Insert("analyses").
		Columns(analysisColumns...).
		Values(a.ID, a.WorkspaceID, a.Name, a.Description, a.PromptPackID, string(a.Status),
			formatTime(a.CreatedAt), formatTime(a.UpdatedAt), formatTimePtr(a.CompletedAt)))
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis loads an analysis by id.
func (r *SQLRepository) GetAnalysis(ctx context.Context, id string) (domain.Analysis, error) {
	row, err := r.queryRow(ctx, r.sb.Select(analysisColumns...).From("analyses").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Analysis{}, err
	}
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Analysis{}, domain.ErrAnalysisNotFound
	}
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("scan analysis: %w", err)
	}
	return a, nil
}

// ListAnalysesByStatus returns analyses in a lifecycle state ordered by id.
func (r *SQLRepository) ListAnalysesByStatus(ctx context.Context, status domain.AnalysisStatus) ([]domain.Analysis, error) {
	rows, err := r.query(ctx, r.sb.Select(analysisColumns...).From("analyses").
		Where(sq.Eq{"status": string(status)}).OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateAnalysisStatus moves an analysis to status, stamping completion when relevant.
func (r *SQLRepository) UpdateAnalysisStatus(ctx context.Context, id string, status domain.AnalysisStatus, at time.Time) error {
	upd := r.sb.Update("analyses").
		Set("status", string(status)).
		Set("updated_at", formatTime(at)).
		Where(sq.Eq{"id": id})
	if status == domain.AnalysisCompleted {
		upd = upd.Set("completed_at", formatTime(at))
	}
	res, err := r.exec(ctx, upd)
	if err != nil {
		return fmt.Errorf("update analysis status: %w", err)
	}
	return requireAffected(res, domain.ErrAnalysisNotFound)
}

// AttachSource binds a source, replacing weight and reason when already bound.
func (r *SQLRepository) AttachSource(ctx context.Context, link domain.AnalysisSource) error {
	_, err := r.exec(ctx, r.sb.Insert("analysis_sources").
		Columns("analysis_id", "source_id", "weight", "inclusion_reason", "added_at").
		Values(link.AnalysisID, link.SourceID, link.Weight, link.InclusionReason, formatTime(link.AddedAt)).
		Suffix(`ON CONFLICT (analysis_id, source_id) DO UPDATE SET weight = EXCLUDED.weight,
			inclusion_reason = EXCLUDED.inclusion_reason`))
	if err != nil {
		return fmt.Errorf("attach source: %w", err)
	}
	return nil
}

// DetachSource removes a binding.
func (r *SQLRepository) DetachSource(ctx context.Context, analysisID, sourceID string) error {
	res, err := r.exec(ctx, r.sb.Delete("analysis_sources").
		Where(sq.Eq{"analysis_id": analysisID, "source_id": sourceID}))
	if err != nil {
		return fmt.Errorf("detach source: %w", err)
	}
	return requireAffected(res, domain.ErrSourceNotFound)
}

// ListAnalysisSources returns the weighted sources of an analysis in binding order.
func (r *SQLRepository) ListAnalysisSources(ctx context.Context, analysisID string) ([]domain.WeightedSource, error) {
	cols := append(append([]string{}, sourceColumns...), "l.weight", "l.inclusion_reason", "l.added_at")
	rows, err := r.query(ctx, r.sb.Select(cols...).
		From("analysis_sources AS l").
		Join("sources AS s ON s.id = l.source_id").
		Where(sq.Eq{"l.analysis_id": analysisID}).
		OrderBy("l.added_at", "s.id"))
	if err != nil {
		return nil, fmt.Errorf("query analysis sources: %w", err)
	}
	defer rows.Close()

	var out []domain.WeightedSource
	for rows.Next() {
		var (
			ws      domain.WeightedSource
			addedAt string
		)
		src, err := scanSource(rows, &ws.Weight, &ws.InclusionReason, &addedAt)
		if err != nil {
			return nil, fmt.Errorf("scan analysis source: %w", err)
		}
		ws.Source = src
		if ws.AddedAt, err = parseTime(addedAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// ListAnalysesForSource returns the ids of analyses binding a source.
func (r *SQLRepository) ListAnalysesForSource(ctx context.Context, sourceID string) ([]string, error) {
	rows, err := r.query(ctx, r.sb.Select("analysis_id").From("analysis_sources").
		Where(sq.Eq{"source_id": sourceID}).OrderBy("analysis_id"))
	if err != nil {
		return nil, fmt.Errorf("query analyses for source: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}

// ─── readiness checks ───────────────────────────────────────────────────────

// SaveCheck appends a readiness check.
func (r *SQLRepository) SaveCheck(ctx context.Context, c domain.ReadinessCheck) error {
	ids, err := json.Marshal(nonNil(c.EvidenceSourceIDs))
	if err != nil {
		return fmt.Errorf("encode evidence ids: %w", err)
	}
	snippets, err := json.Marshal(nonNil(c.EvidenceSnippets))
	if err != nil {
		return fmt.Errorf("encode evidence snippets: %w", err)
	}
	_, err = r.exec(ctx, r.sb.Insert("readiness_checks").
		Columns("id", "analysis_id", "batch", "pack_id", "pack_version", "criterion_name", "criterion_category",
			"state", "passed", "confidence", "rationale", "evidence_source_ids", "evidence_snippets", "checked_at").
		Values(c.ID, c.AnalysisID, c.Batch, c.PackID, c.PackVersion, c.CriterionName, string(c.CriterionCategory),
			string(c.State), c.Passed, c.Confidence, c.Rationale, string(ids), string(snippets), formatTime(c.CheckedAt)))
	if err != nil {
		return fmt.Errorf("insert readiness check: %w", err)
	}
	return nil
}

// ListChecks returns every check of an analysis, oldest first.
func (r *SQLRepository) ListChecks(ctx context.Context, analysisID string) ([]domain.ReadinessCheck, error) {
	rows, err := r.query(ctx, r.sb.Select("id", "analysis_id", "batch", "pack_id", "pack_version", "criterion_name",
		"criterion_category", "state", "passed", "confidence", "rationale", "evidence_source_ids",
		"evidence_snippets", "checked_at").
		From("readiness_checks").
		Where(sq.Eq{"analysis_id": analysisID}).
		OrderBy("batch", "checked_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("query readiness checks: %w", err)
	}
	defer rows.Close()

	var out []domain.ReadinessCheck
	for rows.Next() {
		var (
			c               domain.ReadinessCheck
			category, state string
			ids, snippets   string
			checkedAt       string
		)
		if err := rows.Scan(&c.ID, &c.AnalysisID, &c.Batch, &c.PackID, &c.PackVersion, &c.CriterionName,
			&category, &state, &c.Passed, &c.Confidence, &c.Rationale, &ids, &snippets, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan readiness check: %w", err)
		}
		c.CriterionCategory = domain.CriterionCategory(category)
		c.State = domain.CheckState(state)
		if err := json.Unmarshal([]byte(ids), &c.EvidenceSourceIDs); err != nil {
			return nil, fmt.Errorf("decode evidence ids: %w", err)
		}
		if err := json.Unmarshal([]byte(snippets), &c.EvidenceSnippets); err != nil {
			return nil, fmt.Errorf("decode evidence snippets: %w", err)
		}
		if c.CheckedAt, err = parseTime(checkedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// ─── history ────────────────────────────────────────────────────────────────

var logColumns = []string{
	"id", "analysis_id", "seq", "logged_at", "composite_score", "veracity_score", "conflict_score",
	"logic_score", "source_count", "authoritative_count", "conflict_count", "delta", "trigger_reason", "note",
}

func scanLogEntry(s rowScanner) (domain.LogEntry, error) {
	var (
		e        domain.LogEntry
		loggedAt string
		delta    sql.NullFloat64
		trigger  string
	)
	if err := s.Scan(&e.ID, &e.AnalysisID, &e.Seq, &loggedAt, &e.Composite, &e.Veracity, &e.Conflict,
		&e.Logic, &e.SourceCount, &e.AuthoritativeCount, &e.ConflictCount, &delta, &trigger, &e.Note); err != nil {
		return domain.LogEntry{}, err
	}
	e.Trigger = domain.Trigger(trigger)
	if delta.Valid {
		d := delta.Float64
		e.Delta = &d
	}
	var err error
	if e.Timestamp, err = parseTime(loggedAt); err != nil {
		return domain.LogEntry{}, err
	}
	return e, nil
}

// AppendEntry inserts a snapshot; a taken (analysis_id, seq) yields ErrSeqConflict.
func (r *SQLRepository) AppendEntry(ctx context.Context, e domain.LogEntry) error {
	var delta any
	if e.Delta != nil {
		delta = *e.Delta
	}
	_, err := r.exec(ctx, r.sb.Insert("readiness_log").
		Columns(logColumns...).
		Values(e.ID, e.AnalysisID, e.Seq, formatTime(e.Timestamp), e.Composite, e.Veracity, e.Conflict,
			e.Logic, e.SourceCount, e.AuthoritativeCount, e.ConflictCount, delta, string(e.Trigger), e.Note))
	if isUniqueViolation(err) {
		return fmt.Errorf("append entry %d for %s: %w", e.Seq, e.AnalysisID, ErrSeqConflict)
	}
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// LatestEntry returns the highest-seq snapshot or nil.
func (r *SQLRepository) LatestEntry(ctx context.Context, analysisID string) (*domain.LogEntry, error) {
	row, err := r.queryRow(ctx, r.sb.Select(logColumns...).From("readiness_log").
		Where(sq.Eq{"analysis_id": analysisID}).OrderBy("seq DESC").Limit(1))
	if err != nil {
		return nil, err
	}
	e, err := scanLogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan log entry: %w", err)
	}
	return &e, nil
}

// ListEntries returns snapshots newest first.
func (r *SQLRepository) ListEntries(ctx context.Context, analysisID string) ([]domain.LogEntry, error) {
	rows, err := r.query(ctx, r.sb.Select(logColumns...).From("readiness_log").
		Where(sq.Eq{"analysis_id": analysisID}).OrderBy("seq DESC"))
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var out []domain.LogEntry
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
