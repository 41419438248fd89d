package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
)

func readyAnalysis(t *testing.T, h *harness) domain.Analysis {
	t.Helper()
	ctx := context.Background()
	ws := h.workspace(t, false, 0)
	a := h.analysis(t, ws.ID)
	_, err := h.ingestion.AttachSource(ctx, a.ID, h.boardDeck(t, ws.ID).ID, 0, "")
	require.NoError(t, err)
	_, err = h.ingestion.AttachSource(ctx, a.ID, h.standup(t, ws.ID).ID, 0, "")
	require.NoError(t, err)
	return a
}

func TestEvaluateReadinessDegradesPerCriterion(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	a := readyAnalysis(t, h)

	h.oracle.setFailing("budget and cost impact")
	h.oracle.erroring["metrics and outcomes"] = true
	h.oracle.hanging["risk and root cause"] = true

	res, err := h.engine.EvaluateReadiness(ctx, a.ID)
	require.NoError(t, err)

	assert.Equal(t, "post-mortem@v1", res.PackID)
	assert.Equal(t, 6, res.ChecksTotal)
	assert.Equal(t, 3, res.ChecksPassed)
	assert.Equal(t, 50.0, res.ReadinessScore)
	assert.False(t, res.IsReady)
	assert.Equal(t, []string{"budget and cost impact", "risk and root cause", "metrics and outcomes"}, res.Missing)

	byName := map[string]domain.ReadinessCheck{}
	for _, c := range res.Checks {
		byName[c.CriterionName] = c
		assert.Equal(t, "v1", c.PackVersion)
		assert.Contains(t, []domain.CheckState{domain.CheckPassed, domain.CheckFailed}, c.State)
	}
	assert.Equal(t, timedOutRationale, byName["risk and root cause"].Rationale)
	assert.True(t, strings.HasPrefix(byName["metrics and outcomes"].Rationale, "oracle unavailable: "))
	assert.Equal(t, domain.CheckFailed, byName["budget and cost impact"].State)
	assert.Equal(t, domain.CheckPassed, byName["timeline of events"].State)

	codes := map[domain.WarningCode]bool{}
	for _, w := range res.Warnings {
		codes[w.Code] = true
	}
	assert.True(t, codes[domain.WarnLowConfidence])
	assert.True(t, codes[domain.WarnFewSources])
	assert.False(t, codes[domain.WarnManyFailed], "exactly half failed")
	assert.False(t, codes[domain.WarnNoAuthoritative])

	stored, err := h.repo.ListChecks(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 6)
	assert.Empty(t, h.notifier.all(), "still not ready, no flip")
}

func TestReadinessFlipNotifiesAndStatusIsOffline(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	a := readyAnalysis(t, h)

	before, err := h.engine.ReadinessStatus(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, before.IsReady)
	assert.Len(t, before.Missing, 6)

	res, err := h.engine.EvaluateReadiness(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, res.IsReady)
	assert.Equal(t, 100.0, res.ReadinessScore)
	require.Len(t, h.notifier.all(), 1)
	flip := h.notifier.all()[0]
	assert.True(t, flip.Ready)
	assert.Equal(t, "Q3 launch", flip.AnalysisName)
	assert.Equal(t, 6, flip.Passed)

	criterionCalls, _ := h.oracle.calls()
	status, err := h.engine.ReadinessStatus(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, status.IsReady)
	assert.Len(t, status.Checks, 6)
	afterStatus, _ := h.oracle.calls()
	assert.Equal(t, criterionCalls, afterStatus, "status must not call the oracle")

	_, err = h.engine.EvaluateReadiness(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, h.notifier.all(), 1, "unchanged readiness does not notify")

	h.clock.Advance(1)
	h.oracle.setFailing("decision record")
	res, err = h.engine.EvaluateReadiness(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, res.IsReady)
	require.Len(t, h.notifier.all(), 2)
	assert.False(t, h.notifier.all()[1].Ready)
	assert.Contains(t, h.notifier.all()[1].Missing, "decision record")

	checks, err := h.repo.ListChecks(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, checks, 18, "checks are append-only")

	status, err = h.engine.ReadinessStatus(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"decision record"}, status.Missing)
	assert.Contains(t, h.publisher.kinds(), "readiness")
}

func TestReadinessStatusFollowsNewestBatchWithFrozenClock(t *testing.T) {
	t.Parallel()
	h := newSQLiteHarness(t)
	ctx := context.Background()
	a := readyAnalysis(t, h)

	first, err := h.engine.EvaluateReadiness(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, first.IsReady)

	for round := 0; round < 5; round++ {
		h.oracle.setFailing("timeline of events")
		failed, err := h.engine.EvaluateReadiness(ctx, a.ID)
		require.NoError(t, err)
		require.False(t, failed.IsReady)

		status, err := h.engine.ReadinessStatus(ctx, a.ID)
		require.NoError(t, err)
		assert.False(t, status.IsReady, "round %d", round)
		assert.Equal(t, []string{"timeline of events"}, status.Missing, "round %d", round)

		h.oracle.setFailing()
		passed, err := h.engine.EvaluateReadiness(ctx, a.ID)
		require.NoError(t, err)
		require.True(t, passed.IsReady)

		status, err = h.engine.ReadinessStatus(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, status.IsReady, "round %d", round)
	}

	assert.Len(t, h.notifier.all(), 11, "every evaluation flips readiness")
	checks, err := h.repo.ListChecks(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, checks[len(checks)-1].Batch)
}

func TestReadinessWarnings(t *testing.T) {
	t.Parallel()

	checks := []domain.ReadinessCheck{
		{CriterionName: "a", Passed: false, Confidence: 0.9},
		{CriterionName: "b", Passed: false, Confidence: 0.3},
		{CriterionName: "c", Passed: true, Confidence: 0.95},
	}
	sources := []domain.WeightedSource{{Source: domain.Source{ID: "s1"}}}

	warnings := readinessWarnings(checks, sources, 0.6, 3)
	got := make([]domain.WarningCode, len(warnings))
	for i, w := range warnings {
		got[i] = w.Code
	}
	assert.Equal(t, []domain.WarningCode{
		domain.WarnNoAuthoritative,
		domain.WarnManyFailed,
		domain.WarnLowConfidence,
		domain.WarnFewSources,
	}, got)
}
