package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// ErrSeqConflict reports a history append that lost the (analysis_id, seq) race.
var ErrSeqConflict = errors.New("history sequence already taken")

// timeLayout is fixed-width UTC so TEXT columns sort chronologically in every dialect.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", raw, err)
	}
	return t, nil
}

func parseTimePtr(raw sql.NullString) (*time.Time, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	t, err := parseTime(raw.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// isUniqueViolation recognizes unique-constraint errors from lib/pq and sqlite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS workspaces (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		zero_persistence BOOLEAN NOT NULL DEFAULT FALSE,
		retention_days   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		id             TEXT PRIMARY KEY,
		workspace_id   TEXT NOT NULL REFERENCES workspaces(id),
		title          TEXT NOT NULL DEFAULT '',
		source_type    TEXT NOT NULL,
		authoritative  BOOLEAN NOT NULL DEFAULT FALSE,
		status         TEXT NOT NULL,
		document_date  TEXT,
		content_hash   TEXT NOT NULL,
		word_count     INTEGER NOT NULL DEFAULT 0,
		body           TEXT NOT NULL DEFAULT '',
		text_purged_at TEXT,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_workspace ON sources(workspace_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS analyses (
		id             TEXT PRIMARY KEY,
		workspace_id   TEXT NOT NULL REFERENCES workspaces(id),
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		prompt_pack_id TEXT NOT NULL,
		status         TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL,
		completed_at   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status)`,
	`CREATE TABLE IF NOT EXISTS analysis_sources (
		analysis_id      TEXT NOT NULL REFERENCES analyses(id),
		source_id        TEXT NOT NULL REFERENCES sources(id),
		weight           DOUBLE PRECISION NOT NULL CHECK (weight > 0),
		inclusion_reason TEXT NOT NULL DEFAULT '',
		added_at         TEXT NOT NULL,
		PRIMARY KEY (analysis_id, source_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_sources_source ON analysis_sources(source_id)`,
	`CREATE TABLE IF NOT EXISTS readiness_checks (
		id                  TEXT PRIMARY KEY,
		analysis_id         TEXT NOT NULL REFERENCES analyses(id),
		batch               INTEGER NOT NULL DEFAULT 0,
		pack_id             TEXT NOT NULL,
		pack_version        TEXT NOT NULL,
		criterion_name      TEXT NOT NULL,
		criterion_category  TEXT NOT NULL,
		state               TEXT NOT NULL,
		passed              BOOLEAN NOT NULL,
		confidence          DOUBLE PRECISION NOT NULL,
		rationale           TEXT NOT NULL DEFAULT '',
		evidence_source_ids TEXT NOT NULL DEFAULT '[]',
		evidence_snippets   TEXT NOT NULL DEFAULT '[]',
		checked_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readiness_checks_analysis ON readiness_checks(analysis_id, batch, checked_at)`,
	`CREATE TABLE IF NOT EXISTS readiness_log (
		id                  TEXT PRIMARY KEY,
		analysis_id         TEXT NOT NULL REFERENCES analyses(id),
		seq                 INTEGER NOT NULL,
		logged_at           TEXT NOT NULL,
		composite_score     DOUBLE PRECISION NOT NULL,
		veracity_score      DOUBLE PRECISION NOT NULL,
		conflict_score      DOUBLE PRECISION NOT NULL,
		logic_score         DOUBLE PRECISION NOT NULL,
		source_count        INTEGER NOT NULL,
		authoritative_count INTEGER NOT NULL,
		conflict_count      INTEGER NOT NULL,
		delta               DOUBLE PRECISION,
		trigger_reason      TEXT NOT NULL,
		note                TEXT NOT NULL DEFAULT '',
		UNIQUE (analysis_id, seq)
	)`,
}

// Migrate creates missing tables and indexes; it is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
