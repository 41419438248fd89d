package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"RigorScore/internal/domain"
	"RigorScore/pkg/logger"
)

// ScoreResult is returned by Score; scores carry the persisted two-decimal precision.
type ScoreResult struct {
	AnalysisID         string            `json:"analysis_id"`
	Composite          float64           `json:"composite"`
	Veracity           float64           `json:"veracity"`
	Conflict           float64           `json:"conflict"`
	Logic              float64           `json:"logic"`
	LogEntryID         string            `json:"log_entry_id"`
	Seq                int               `json:"seq"`
	Delta              *float64          `json:"delta"`
	SourceCount        int               `json:"source_count"`
	AuthoritativeCount int               `json:"authoritative_count"`
	Conflicts          []domain.Conflict `json:"conflicts"`
	Warnings           []domain.Warning  `json:"warnings"`
	Timestamp          time.Time         `json:"timestamp"`
}

// Score computes the composite for an Analysis and appends a history entry.
func (e *Engine) Score(ctx context.Context, analysisID string, trigger domain.Trigger) (ScoreResult, error) {
	return e.ScoreWithNote(ctx, analysisID, trigger, "")
}

// ScoreWithNote is Score with an explanatory note stored on the log entry.
func (e *Engine) ScoreWithNote(ctx context.Context, analysisID string, trigger domain.Trigger, note string) (res ScoreResult, err error) {
	if !trigger.Valid() {
		return ScoreResult{}, fmt.Errorf("score analysis %s: %q: %w", analysisID, trigger, domain.ErrInvalidTrigger)
	}

	ctx, span := e.tracer.Start(ctx, "engine.Score")
	span.SetAttributes(attribute.String("analysis.id", analysisID), attribute.String("trigger", string(trigger)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock := e.locks.Lock(analysisID)
	defer unlock()

	start := time.Now()
	analysis, err := e.repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("load analysis %s: %w", analysisID, err)
	}
	pack, err := e.packs.Resolve(analysis.PromptPackID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("score analysis %s: %w", analysisID, err)
	}
	if err := e.transition(ctx, analysis, domain.AnalysisInProgress); err != nil {
		return ScoreResult{}, err
	}
	analysis.Status = domain.AnalysisInProgress

	res, err = e.score(ctx, analysis, pack.UseCase, trigger, note)
	if err != nil {
		if tErr := e.transition(ctx, analysis, domain.AnalysisFailed); tErr != nil {
			e.logger.Error("mark analysis failed", "analysis_id", analysisID, "error", tErr)
		}
		return ScoreResult{}, err
	}
	if err := e.transition(ctx, analysis, domain.AnalysisCompleted); err != nil {
		return ScoreResult{}, err
	}

	if e.metrics != nil {
		e.metrics.ObserveScore(trigger, res.Composite, time.Since(start))
	}
	e.warn(res.Warnings)
	span.SetAttributes(attribute.Float64("score.composite", res.Composite))
	logger.FromContext(ctx, e.logger).Info("analysis scored",
		"analysis_id", analysisID,
		"trigger", trigger,
		"composite", res.Composite,
		"seq", res.Seq,
		"warnings", len(res.Warnings))

	e.publish(ctx, analysisID, "score", res)
	return res, nil
}

func (e *Engine) score(ctx context.Context, analysis domain.Analysis, useCase domain.UseCase, trigger domain.Trigger, note string) (ScoreResult, error) {
	sources, err := e.repo.ListAnalysisSources(ctx, analysis.ID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("load sources for %s: %w", analysis.ID, err)
	}

	agg, err := e.aggregator.Run(ctx, useCase, sources)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("aggregate %s: %w", analysis.ID, err)
	}

	prev, err := e.repo.LatestEntry(ctx, analysis.ID)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("load latest entry for %s: %w", analysis.ID, err)
	}

	composite := domain.RoundScore(agg.Composite)
	entry := domain.LogEntry{
		ID:                 e.newID(),
		AnalysisID:         analysis.ID,
		Seq:                1,
		Timestamp:          e.clock(),
		Composite:          composite,
		Veracity:           domain.RoundScore(agg.Veracity),
		Conflict:           domain.RoundScore(agg.Conflict),
		Logic:              domain.RoundScore(agg.Logic),
		SourceCount:        agg.SourceCount,
		AuthoritativeCount: agg.AuthoritativeCount,
		ConflictCount:      len(agg.Conflicts),
		Delta:              domain.DeltaFrom(prev, composite),
		Trigger:            trigger,
		Note:               note,
	}
	if prev != nil {
		entry.Seq = prev.Seq + 1
	}
	if err := e.repo.AppendEntry(ctx, entry); err != nil {
		return ScoreResult{}, fmt.Errorf("append history for %s: %w", analysis.ID, err)
	}

	if e.historySink != nil {
		if err := e.historySink.Record(ctx, entry); err != nil {
			e.logger.Warn("mirror history entry", "analysis_id", analysis.ID, "error", err)
		}
	}

	return ScoreResult{
		AnalysisID:         analysis.ID,
		Composite:          entry.Composite,
		Veracity:           entry.Veracity,
		Conflict:           entry.Conflict,
		Logic:              entry.Logic,
		LogEntryID:         entry.ID,
		Seq:                entry.Seq,
		Delta:              entry.Delta,
		SourceCount:        entry.SourceCount,
		AuthoritativeCount: entry.AuthoritativeCount,
		Conflicts:          agg.Conflicts,
		Warnings:           agg.Warnings,
		Timestamp:          entry.Timestamp,
	}, nil
}

func (e *Engine) transition(ctx context.Context, analysis domain.Analysis, to domain.AnalysisStatus) error {
	if err := domain.CanTransitionAnalysis(analysis.Status, to).Err(); err != nil {
		return fmt.Errorf("analysis %s: %w", analysis.ID, err)
	}
	if err := e.repo.UpdateAnalysisStatus(ctx, analysis.ID, to, e.clock()); err != nil {
		return fmt.Errorf("update analysis %s status: %w", analysis.ID, err)
	}
	return nil
}

// ReadinessHistory returns every score snapshot of an Analysis, newest first.
func (e *Engine) ReadinessHistory(ctx context.Context, analysisID string) ([]domain.LogEntry, error) {
	if _, err := e.repo.GetAnalysis(ctx, analysisID); err != nil {
		return nil, fmt.Errorf("load analysis %s: %w", analysisID, err)
	}
	entries, err := e.repo.ListEntries(ctx, analysisID)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", analysisID, err)
	}
	return entries, nil
}

// publish hands a serialized result to the report publisher; failures are logged only.
func (e *Engine) publish(ctx context.Context, analysisID, kind string, payload any) {
	if e.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		e.logger.Warn("encode report", "analysis_id", analysisID, "kind", kind, "error", err)
		return
	}
	report := domain.Report{AnalysisID: analysisID, Kind: kind, CreatedAt: e.clock(), Body: body}
	if err := e.publisher.Publish(ctx, report); err != nil {
		e.logger.Warn("publish report", "analysis_id", analysisID, "kind", kind, "error", err)
	}
}
