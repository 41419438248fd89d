package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"RigorScore/internal/domain"
	"RigorScore/internal/oracle"
	"RigorScore/pkg/logger"
)

const timedOutRationale = "evaluation timed out"

// ReadinessResult is the outcome of a readiness evaluation or status query.
type ReadinessResult struct {
	AnalysisID     string                  `json:"analysis_id"`
	PackID         string                  `json:"pack_id"`
	Checks         []domain.ReadinessCheck `json:"checks"`
	ChecksPassed   int                     `json:"checks_passed"`
	ChecksTotal    int                     `json:"checks_total"`
	ReadinessScore float64                 `json:"readiness_score"`
	IsReady        bool                    `json:"is_ready"`
	Missing        []string                `json:"missing_criteria"`
	Warnings       []domain.Warning        `json:"warnings"`
}

// EvaluateReadiness checks every required criterion of the bound pack with one oracle call each.
// Each check is persisted as soon as it completes; oracle failures only fail their own criterion.
func (e *Engine) EvaluateReadiness(ctx context.Context, analysisID string) (res ReadinessResult, err error) {
	ctx, span := e.tracer.Start(ctx, "engine.EvaluateReadiness")
	span.SetAttributes(attribute.String("analysis.id", analysisID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	unlock := e.locks.Lock(analysisID)
	defer unlock()

	analysis, err := e.repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("load analysis %s: %w", analysisID, err)
	}
	pack, err := e.packs.Resolve(analysis.PromptPackID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("evaluate readiness %s: %w", analysisID, err)
	}
	sources, err := e.repo.ListAnalysisSources(ctx, analysisID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("load sources for %s: %w", analysisID, err)
	}

	criteria := pack.Criteria()
	history, err := e.repo.ListChecks(ctx, analysisID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("list checks for %s: %w", analysisID, err)
	}
	previous := summarizeChecks(analysisID, pack, history)
	batch := domain.NextBatch(history)

	res = ReadinessResult{AnalysisID: analysisID, PackID: pack.ID()}
	if len(criteria) == 0 {
		res.ReadinessScore = 100
		res.IsReady = true
		res.Warnings = []domain.Warning{{
			Code:    domain.WarnNoCriteria,
			Message: "no required criteria defined in prompt pack " + pack.ID(),
		}}
		e.warn(res.Warnings)
		return res, nil
	}

	summary := oracle.SourceSummary(sources)
	docs := oracle.Documents(sources, e.cfg.MaxDocumentChars, e.normalize)

	checks := make([]domain.ReadinessCheck, len(criteria))
	var g errgroup.Group
	g.SetLimit(e.cfg.ReadinessConcurrency)
	for i, criterion := range criteria {
		g.Go(func() error {
			check, err := e.checkCriterion(ctx, analysisID, batch, pack, criterion, summary, docs)
			if err != nil {
				return err
			}
			checks[i] = check
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ReadinessResult{}, fmt.Errorf("evaluate readiness %s: %w", analysisID, err)
	}

	readiness := domain.ComputeReadiness(criteria, checks)
	res.Checks = checks
	res.ChecksPassed = readiness.Passed
	res.ChecksTotal = readiness.Total
	res.ReadinessScore = readiness.Score
	res.IsReady = readiness.Ready
	res.Missing = readiness.Missing
	res.Warnings = readinessWarnings(checks, sources, e.cfg.LowConfidence, e.cfg.FewSources)

	if e.metrics != nil {
		e.metrics.ObserveReadiness(res.IsReady, res.ReadinessScore)
	}
	e.warn(res.Warnings)
	span.SetAttributes(attribute.Float64("readiness.score", res.ReadinessScore), attribute.Bool("readiness.ready", res.IsReady))
	logger.FromContext(ctx, e.logger).Info("readiness evaluated",
		"analysis_id", analysisID,
		"pack", pack.ID(),
		"passed", res.ChecksPassed,
		"total", res.ChecksTotal,
		"ready", res.IsReady)

	if previous.IsReady != res.IsReady {
		e.notifyFlip(ctx, analysis, res)
	}
	e.publish(ctx, analysisID, "readiness", res)
	return res, nil
}

// checkCriterion walks one criterion through unchecked -> evaluating -> passed|failed and persists it.
func (e *Engine) checkCriterion(ctx context.Context, analysisID string, batch int, pack domain.PromptPack, criterion domain.Criterion, summary string, docs []domain.OracleDocument) (domain.ReadinessCheck, error) {
	state, err := domain.CheckUnchecked.Transition(domain.CheckEvaluating)
	if err != nil {
		return domain.ReadinessCheck{}, err
	}

	check := domain.ReadinessCheck{
		ID:                e.newID(),
		AnalysisID:        analysisID,
		Batch:             batch,
		PackID:            pack.ID(),
		PackVersion:       pack.Version,
		CriterionName:     criterion.Name,
		CriterionCategory: criterion.Category,
		State:             state,
	}

	verdict, callErr := e.callOracle(ctx, domain.OracleRequest{
		Task:      domain.TaskCriterion,
		Prompt:    oracle.CriterionPrompt(pack.UseCase, criterion, summary),
		UseCase:   pack.UseCase,
		Criterion: &criterion,
		Documents: docs,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.ReadinessCheck{}, ctxErr
	}

	switch {
	case errors.Is(callErr, domain.ErrOracleTimeout):
		check.Rationale = timedOutRationale
	case callErr != nil:
		check.Rationale = "oracle unavailable: " + callErr.Error()
	default:
		check.Passed = verdict.Holds
		check.Confidence = verdict.Confidence
		check.Rationale = verdict.Rationale
		check.EvidenceSourceIDs = verdict.EvidenceSourceIDs
		check.EvidenceSnippets = verdict.EvidenceSnippets
	}

	next := domain.CheckFailed
	if check.Passed {
		next = domain.CheckPassed
	}
	if check.State, err = check.State.Transition(next); err != nil {
		return domain.ReadinessCheck{}, err
	}
	check.CheckedAt = e.clock()

	if err := e.repo.SaveCheck(ctx, check); err != nil {
		return domain.ReadinessCheck{}, fmt.Errorf("save check %q: %w", criterion.Name, err)
	}
	if callErr != nil {
		e.logger.Warn("criterion evaluation failed",
			"analysis_id", analysisID, "criterion", criterion.Name, "error", callErr)
	}
	return check, nil
}

func (e *Engine) callOracle(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	if e.oracle == nil {
		return domain.Verdict{}, domain.ErrOracleUnavailable
	}
	return e.oracle.Evaluate(ctx, req)
}

// ReadinessStatus recomputes readiness from the latest persisted checks without calling the oracle.
func (e *Engine) ReadinessStatus(ctx context.Context, analysisID string) (ReadinessResult, error) {
	analysis, err := e.repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("load analysis %s: %w", analysisID, err)
	}
	pack, err := e.packs.Resolve(analysis.PromptPackID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("readiness status %s: %w", analysisID, err)
	}
	return e.status(ctx, analysisID, pack)
}

func (e *Engine) status(ctx context.Context, analysisID string, pack domain.PromptPack) (ReadinessResult, error) {
	all, err := e.repo.ListChecks(ctx, analysisID)
	if err != nil {
		return ReadinessResult{}, fmt.Errorf("list checks for %s: %w", analysisID, err)
	}
	return summarizeChecks(analysisID, pack, all), nil
}

// summarizeChecks computes readiness from the stored checks that belong to pack.
func summarizeChecks(analysisID string, pack domain.PromptPack, all []domain.ReadinessCheck) ReadinessResult {
	relevant := make([]domain.ReadinessCheck, 0, len(all))
	for _, c := range all {
		if c.PackID == pack.ID() && c.PackVersion == pack.Version {
			relevant = append(relevant, c)
		}
	}

	criteria := pack.Criteria()
	latest := domain.LatestChecks(relevant)
	readiness := domain.ComputeReadiness(criteria, relevant)

	res := ReadinessResult{
		AnalysisID:     analysisID,
		PackID:         pack.ID(),
		ChecksPassed:   readiness.Passed,
		ChecksTotal:    readiness.Total,
		ReadinessScore: readiness.Score,
		IsReady:        readiness.Ready,
		Missing:        readiness.Missing,
	}
	for _, c := range criteria {
		if check, ok := latest[c.Name]; ok {
			res.Checks = append(res.Checks, check)
		}
	}
	return res
}

func (e *Engine) notifyFlip(ctx context.Context, analysis domain.Analysis, res ReadinessResult) {
	if e.notifier == nil {
		return
	}
	change := domain.ReadinessChange{
		AnalysisID:   analysis.ID,
		AnalysisName: analysis.Name,
		PackID:       res.PackID,
		Ready:        res.IsReady,
		Score:        res.ReadinessScore,
		Passed:       res.ChecksPassed,
		Total:        res.ChecksTotal,
		Missing:      res.Missing,
		At:           e.clock(),
	}
	if err := e.notifier.NotifyReadiness(ctx, change); err != nil {
		logger.FromContext(ctx, e.logger).Warn("notify readiness change", "analysis_id", analysis.ID, "error", err)
	}
}

func readinessWarnings(checks []domain.ReadinessCheck, sources []domain.WeightedSource, lowConfidence float64, fewSources int) []domain.Warning {
	var warnings []domain.Warning

	if domain.AuthoritativeCount(sources) == 0 {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarnNoAuthoritative,
			Message: "no authoritative sources found; consider marking final documents as authoritative",
		})
	}

	failed, low := 0, 0
	for _, c := range checks {
		if !c.Passed {
			failed++
		}
		if c.Confidence < lowConfidence {
			low++
		}
	}
	if float64(failed) > float64(len(checks))*0.5 {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarnManyFailed,
			Message: fmt.Sprintf("%d criteria checks failed; analysis may lack sufficient documentation", failed),
		})
	}
	if low > 0 {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarnLowConfidence,
			Message: fmt.Sprintf("%d checks have low confidence scores", low),
		})
	}
	if len(sources) < fewSources {
		warnings = append(warnings, domain.Warning{
			Code:    domain.WarnFewSources,
			Message: "few sources provided; consider adding more documentation",
		})
	}
	return warnings
}
