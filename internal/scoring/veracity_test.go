package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
)

func TestVeracity_TwoSourceScenario(t *testing.T) {
	t.Parallel()

	sources := []domain.WeightedSource{
		weighted(domain.Source{ID: "a", Authoritative: true, Type: domain.TypeFinalPDF, Status: domain.StatusFinal, DocumentDate: daysAgo(10)}),
		weighted(domain.Source{ID: "b", Type: domain.TypeTranscript, Status: domain.StatusFinal, DocumentDate: daysAgo(200)}),
	}

	v, warnings := Veracity(sources, testNow)
	assert.InDelta(t, 66.6667, v, 1e-3)
	assert.Equal(t, 66.67, domain.RoundScore(v))
	assert.Empty(t, warnings)
}

func TestVeracity_MaximalSourceScoresHundred(t *testing.T) {
	t.Parallel()

	src := weighted(domain.Source{ID: "a", Authoritative: true, Type: domain.TypeFinalPDF, Status: domain.StatusFinal, DocumentDate: daysAgo(1)})
	v, _ := Veracity([]domain.WeightedSource{src}, testNow)
	assert.InDelta(t, 100, v, 1e-9)
}

func TestVeracity_EmptySetWarns(t *testing.T) {
	t.Parallel()

	v, warnings := Veracity(nil, testNow)
	assert.Zero(t, v)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnEmptySourceSet, warnings[0].Code)
}

func TestVeracity_MissingDateWarnsWithoutBoost(t *testing.T) {
	t.Parallel()

	src := weighted(domain.Source{ID: "a", Type: domain.TypeFinalPDF, Status: domain.StatusFinal})
	v, warnings := Veracity([]domain.WeightedSource{src}, testNow)
	assert.InDelta(t, 1.0/VeracityNormalization*100, v, 1e-9)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnMissingDate, warnings[0].Code)
	assert.Equal(t, "a", warnings[0].SourceID)
}

func TestVeracity_ZeroDateCountsAsMissing(t *testing.T) {
	t.Parallel()

	var zero time.Time
	src := weighted(domain.Source{ID: "z", Type: domain.TypeFinalPDF, Status: domain.StatusFinal, DocumentDate: &zero})
	v, warnings := Veracity([]domain.WeightedSource{src}, testNow)
	assert.InDelta(t, 1.0/VeracityNormalization*100, v, 1e-9)
	require.Len(t, warnings, 1)
	assert.Equal(t, domain.WarnMissingDate, warnings[0].Code)
	assert.Equal(t, "z", warnings[0].SourceID)
}

func TestVeracity_HeavyWeightIsClamped(t *testing.T) {
	t.Parallel()

	src := weighted(domain.Source{ID: "a", Authoritative: true, Type: domain.TypeFinalPDF, Status: domain.StatusFinal, DocumentDate: daysAgo(1)})
	src.Weight = 10
	v, _ := Veracity([]domain.WeightedSource{src}, testNow)
	assert.Equal(t, 100.0, v)
}

func TestTypeAndStatusWeights(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, TypeWeight(domain.TypeFinalPDF))
	assert.Equal(t, 0.9, TypeWeight(domain.TypePresentation))
	assert.Equal(t, 0.8, TypeWeight(domain.TypeSpreadsheet))
	assert.Equal(t, 0.6, TypeWeight(domain.TypeTranscript))
	assert.Equal(t, 0.5, TypeWeight(domain.TypeDraftDocument))
	assert.Equal(t, 0.5, TypeWeight("hologram"))

	assert.Equal(t, 1.0, StatusWeight(domain.StatusFinal))
	assert.Equal(t, 0.7, StatusWeight(domain.StatusDraft))
	assert.Equal(t, 0.4, StatusWeight(domain.StatusArchived))
	assert.Equal(t, 0.7, StatusWeight("pending-review"))
}

func TestRecencyBoost_Bands(t *testing.T) {
	t.Parallel()

	future := testNow.Add(72 * time.Hour)
	cases := []struct {
		name string
		date *time.Time
		want float64
	}{
		{name: "missing", date: nil, want: 1.0},
		{name: "today", date: daysAgo(0), want: 1.2},
		{name: "29 days", date: daysAgo(29), want: 1.2},
		{name: "30 days", date: daysAgo(30), want: 1.1},
		{name: "89 days", date: daysAgo(89), want: 1.1},
		{name: "90 days", date: daysAgo(90), want: 1.05},
		{name: "179 days", date: daysAgo(179), want: 1.05},
		{name: "180 days", date: daysAgo(180), want: 1.0},
		{name: "future", date: &future, want: 1.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, RecencyBoost(tc.date, testNow))
		})
	}
}
