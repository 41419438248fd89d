package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// MaintenanceConfig selects which sweep tasks run.
type MaintenanceConfig struct {
	ReanalyzeCompleted bool
	PurgeExpiredText   bool
}

// SweepReport summarizes one maintenance pass.
type SweepReport struct {
	Rescored        int `json:"rescored"`
	RescoreFailures int `json:"rescore_failures"`
	Purged          int `json:"purged"`
	PurgeFailures   int `json:"purge_failures"`
}

// Maintenance re-scores completed analyses and applies workspace retention.
type Maintenance struct {
	repo      ports.Repository
	scorer    Scorer
	ingestion *Ingestion
	cfg       MaintenanceConfig
	logger    *slog.Logger
}

// NewMaintenance wires the sweep; a nil ingestion disables purging.
func NewMaintenance(cfg MaintenanceConfig, repo ports.Repository, scorer Scorer, ingestion *Ingestion, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{
		repo:      repo,
		scorer:    scorer,
		ingestion: ingestion,
		cfg:       cfg,
		logger:    logger.With("component", "maintenance"),
	}
}

// Sweep runs every enabled task. Per-item failures are counted and logged, not returned.
func (m *Maintenance) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport

	if m.cfg.ReanalyzeCompleted && m.scorer != nil {
		analyses, err := m.repo.ListAnalysesByStatus(ctx, domain.AnalysisCompleted)
		if err != nil {
			return report, fmt.Errorf("list completed analyses: %w", err)
		}
		for _, a := range analyses {
			if _, err := m.scorer.Score(ctx, a.ID, domain.TriggerReanalysis); err != nil {
				report.RescoreFailures++
				m.logger.Warn("scheduled rescoring failed", "analysis_id", a.ID, "error", err)
				continue
			}
			report.Rescored++
		}
	}

	if m.cfg.PurgeExpiredText && m.ingestion != nil {
		workspaces, err := m.repo.ListWorkspaces(ctx)
		if err != nil {
			return report, fmt.Errorf("list workspaces: %w", err)
		}
		for _, ws := range workspaces {
			if !ws.ZeroPersistence || ws.RetentionDays <= 0 {
				continue
			}
			cutoff := now.Add(-time.Duration(ws.RetentionDays) * 24 * time.Hour)
			sources, err := m.repo.ListSourcesCreatedBefore(ctx, ws.ID, cutoff)
			if err != nil {
				return report, fmt.Errorf("list expired sources of %s: %w", ws.ID, err)
			}
			for _, src := range sources {
				if _, err := m.ingestion.purge(ctx, src, ws); err != nil {
					report.PurgeFailures++
					m.logger.Warn("retention purge failed", "source_id", src.ID, "error", err)
					continue
				}
				report.Purged++
			}
		}
	}

	m.logger.Info("maintenance sweep finished",
		"rescored", report.Rescored,
		"rescore_failures", report.RescoreFailures,
		"purged", report.Purged,
		"purge_failures", report.PurgeFailures)
	return report, nil
}
