package scoring

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
)

func scenarioSources() []domain.WeightedSource {
	return []domain.WeightedSource{
		weighted(domain.Source{
			ID: "board-deck", Authoritative: true, Type: domain.TypeFinalPDF, Status: domain.StatusFinal,
			DocumentDate: daysAgo(10), Text: "risk tradeoff evidence " + filler(147),
		}),
		weighted(domain.Source{
			ID: "standup", Type: domain.TypeTranscript, Status: domain.StatusFinal,
			DocumentDate: daysAgo(200), Text: filler(150),
		}),
	}
}

func newTestAggregator(calls *atomic.Int32) *Aggregator {
	detector := NewConflictDetector(ConflictConfig{}, ConflictDeps{Oracle: countingOracle(calls, noConflict)})
	return NewAggregator(detector, NewLogicScanner(DefaultLogicConfig(), nil), func() time.Time { return testNow })
}

func TestAggregator_Scenario(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	res, err := newTestAggregator(&calls).Run(context.Background(), domain.UseCasePostMortem, scenarioSources())
	require.NoError(t, err)

	assert.Equal(t, 66.67, domain.RoundScore(res.Veracity))
	assert.Equal(t, 100.0, res.Conflict)
	assert.InDelta(t, 10.0, res.Logic, 1e-9)
	assert.Equal(t, 59.67, domain.RoundScore(res.Composite))
	assert.Equal(t, 2, res.SourceCount)
	assert.Equal(t, 1, res.AuthoritativeCount)
	assert.Equal(t, int32(4), calls.Load())
	assert.Empty(t, res.Warnings)
}

func TestAggregator_EmptySourceSet(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	res, err := newTestAggregator(&calls).Run(context.Background(), domain.UseCasePostMortem, nil)
	require.NoError(t, err)

	assert.Zero(t, res.Veracity)
	assert.Equal(t, 100.0, res.Conflict)
	assert.Zero(t, res.Logic)
	assert.InDelta(t, 30.0, res.Composite, 1e-9)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarnEmptySourceSet, res.Warnings[0].Code)
	assert.Zero(t, calls.Load())
}

func TestAggregator_Deterministic(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	agg := newTestAggregator(&calls)
	first, err := agg.Run(context.Background(), domain.UseCasePostMortem, scenarioSources())
	require.NoError(t, err)
	second, err := agg.Run(context.Background(), domain.UseCasePostMortem, scenarioSources())
	require.NoError(t, err)
	assert.Equal(t, first.Composite, second.Composite)
}

func TestComposite_ClampsInputs(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 55.0, Composite(150, -5, 50), 1e-9)
	assert.InDelta(t, 100.0, Composite(100, 100, 100), 1e-9)
	assert.Zero(t, Composite(0, 0, 0))
}

func TestComposite_StaysInRange(t *testing.T) {
	t.Parallel()

	for v := -50.0; v <= 150; v += 25 {
		for c := -50.0; c <= 150; c += 25 {
			for l := -50.0; l <= 150; l += 25 {
				got := Composite(v, c, l)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 100.0+1e-9)
			}
		}
	}
}
