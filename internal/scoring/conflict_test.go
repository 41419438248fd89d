package scoring

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
	"RigorScore/internal/oracle"
)

func textSources(ids ...string) []domain.WeightedSource {
	out := make([]domain.WeightedSource, 0, len(ids))
	for _, id := range ids {
		out = append(out, weighted(domain.Source{ID: id, Title: strings.ToUpper(id), Text: "text of " + id}))
	}
	return out
}

func countingOracle(calls *atomic.Int32, fn func(req domain.OracleRequest) (domain.Verdict, error)) oracle.Func {
	return func(_ context.Context, req domain.OracleRequest) (domain.Verdict, error) {
		calls.Add(1)
		return fn(req)
	}
}

func noConflict(domain.OracleRequest) (domain.Verdict, error) {
	return domain.Verdict{Holds: false, Confidence: 0.9}, nil
}

func pairHas(req domain.OracleRequest, id string) bool {
	for _, d := range req.Documents {
		if d.SourceID == id {
			return true
		}
	}
	return false
}

func TestConflictDetector_FewerThanTwoSources(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: countingOracle(&calls, noConflict)})

	report, err := d.Detect(context.Background(), domain.UseCasePostMortem, textSources("a"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.Score)
	assert.Zero(t, calls.Load())
}

func TestConflictDetector_OneRequestPerPairAndDimension(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: countingOracle(&calls, noConflict)})

	report, err := d.Detect(context.Background(), domain.UseCasePostMortem, textSources("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, int32(12), calls.Load())
	assert.Equal(t, 3, report.PairsEvaluated)
	assert.Equal(t, 100.0, report.Score)
	assert.Empty(t, report.Conflicts)
}

func TestConflictDetector_PairLimitPrefersAuthoritative(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		seen []domain.OracleRequest
	)
	var calls atomic.Int32
	orc := countingOracle(&calls, func(req domain.OracleRequest) (domain.Verdict, error) {
		mu.Lock()
		seen = append(seen, req)
		mu.Unlock()
		return domain.Verdict{}, nil
	})

	sources := textSources("a", "z", "m")
	sources[1].Authoritative = true

	d := NewConflictDetector(ConflictConfig{MaxPairs: 1}, ConflictDeps{Oracle: orc})
	report, err := d.Detect(context.Background(), domain.UseCasePostMortem, sources)
	require.NoError(t, err)

	assert.Equal(t, int32(4), calls.Load())
	for _, req := range seen {
		assert.True(t, pairHas(req, "z"))
		assert.True(t, pairHas(req, "a"))
	}
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, domain.WarnPairLimit, report.Warnings[0].Code)
}

func TestConflictDetector_DeduplicatesKeepingMaxSeverity(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	orc := countingOracle(&calls, func(req domain.OracleRequest) (domain.Verdict, error) {
		if req.Dimension != domain.DimensionBudget {
			return domain.Verdict{}, nil
		}
		sev := "minor"
		if pairHas(req, "c") {
			sev = "severe"
		}
		return domain.Verdict{Holds: true, Severity: sev, Subject: "Q3  Budget!"}, nil
	})

	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: orc})
	report, err := d.Detect(context.Background(), domain.UseCaseStrategyReview, textSources("a", "b", "c"))
	require.NoError(t, err)

	require.Len(t, report.Conflicts, 1)
	c := report.Conflicts[0]
	assert.Equal(t, domain.DimensionBudget, c.Dimension)
	assert.Equal(t, domain.SeveritySevere, c.Severity)
	assert.Equal(t, "q3 budget", c.Subject)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, c.SourceIDs)
	assert.Equal(t, 70.0, report.Score)
}

func TestConflictDetector_CapsPenaltyPerDimension(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	orc := countingOracle(&calls, func(req domain.OracleRequest) (domain.Verdict, error) {
		if req.Dimension != domain.DimensionTimeline {
			return domain.Verdict{}, nil
		}
		subject := req.Documents[0].SourceID + " vs " + req.Documents[1].SourceID
		return domain.Verdict{Holds: true, Severity: "severe", Subject: subject}, nil
	})

	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: orc})
	report, err := d.Detect(context.Background(), domain.UseCasePostMortem, textSources("a", "b", "c"))
	require.NoError(t, err)

	assert.Len(t, report.Conflicts, 3)
	assert.Equal(t, 60.0, report.Penalty)
	assert.Equal(t, 40.0, report.Score)
}

func TestConflictDetector_UnknownSeverityIsModerate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	orc := countingOracle(&calls, func(req domain.OracleRequest) (domain.Verdict, error) {
		if req.Dimension != domain.DimensionDecision {
			return domain.Verdict{}, nil
		}
		return domain.Verdict{Holds: true, Severity: "catastrophic-ish", Subject: "vendor choice"}, nil
	})

	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: orc})
	report, err := d.Detect(context.Background(), domain.UseCaseDecisionReview, textSources("a", "b"))
	require.NoError(t, err)

	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, domain.SeverityModerate, report.Conflicts[0].Severity)
	assert.Equal(t, 85.0, report.Score)
}

func TestConflictDetector_OracleFailureAddsWarningOnly(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	orc := countingOracle(&calls, func(domain.OracleRequest) (domain.Verdict, error) {
		return domain.Verdict{}, errors.New("connection refused")
	})

	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: orc})
	report, err := d.Detect(context.Background(), domain.UseCasePostMortem, textSources("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, 100.0, report.Score)
	require.Len(t, report.Warnings, 4)
	for _, w := range report.Warnings {
		assert.Equal(t, domain.WarnOracleFailure, w.Code)
	}
}

func TestConflictDetector_CacheReproducesScore(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	orc := countingOracle(&calls, func(req domain.OracleRequest) (domain.Verdict, error) {
		if req.Dimension == domain.DimensionStakeholder {
			return domain.Verdict{Holds: true, Severity: "minor", Subject: "sponsor"}, nil
		}
		return domain.Verdict{}, nil
	})

	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: orc, Cache: newMapCache()})
	sources := textSources("a", "b", "c")

	first, err := d.Detect(context.Background(), domain.UseCasePostMortem, sources)
	require.NoError(t, err)
	second, err := d.Detect(context.Background(), domain.UseCasePostMortem, sources)
	require.NoError(t, err)

	assert.Equal(t, int32(12), calls.Load())
	assert.Equal(t, 12, second.CacheHits)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, 95.0, second.Score)
}

func TestConflictDetector_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: countingOracle(&calls, noConflict)})
	_, err := d.Detect(ctx, domain.UseCasePostMortem, textSources("a", "b"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerdictCacheKey_OrderIndependent(t *testing.T) {
	t.Parallel()

	pm := domain.UseCasePostMortem
	assert.Equal(t,
		VerdictCacheKey(pm, domain.DimensionBudget, "h1", "h2"),
		VerdictCacheKey(pm, domain.DimensionBudget, "h2", "h1"))
	assert.NotEqual(t,
		VerdictCacheKey(pm, domain.DimensionBudget, "h1", "h2"),
		VerdictCacheKey(pm, domain.DimensionTimeline, "h1", "h2"))
	assert.NotEqual(t,
		VerdictCacheKey(pm, domain.DimensionBudget, "h1", "h2"),
		VerdictCacheKey(domain.UseCaseRiskAssessment, domain.DimensionBudget, "h1", "h2"))
}

func TestConflictDetector_CacheIsScopedByUseCase(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: countingOracle(&calls, noConflict), Cache: newMapCache()})
	sources := textSources("a", "b")

	_, err := d.Detect(context.Background(), domain.UseCasePostMortem, sources)
	require.NoError(t, err)
	first := calls.Load()

	other, err := d.Detect(context.Background(), domain.UseCaseRiskAssessment, sources)
	require.NoError(t, err)
	assert.Zero(t, other.CacheHits)
	assert.Equal(t, 2*first, calls.Load())
}

func TestNormalizeSubject(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "launch date", NormalizeSubject("  Launch   DATE. "))
	assert.Equal(t, "", NormalizeSubject("!!"))
}
