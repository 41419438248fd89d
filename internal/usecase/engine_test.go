package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
)

func TestScoreHistoryAcrossAttachments(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	ws := h.workspace(t, false, 0)
	a := h.analysis(t, ws.ID)
	assert.Equal(t, "post-mortem@v1", a.PromptPackID)
	assert.Equal(t, domain.AnalysisPending, a.Status)

	first, err := h.ingestion.AttachSource(ctx, a.ID, h.boardDeck(t, ws.ID).ID, 0, "primary record")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Seq)
	assert.Nil(t, first.Delta)
	assert.Equal(t, 100.0, first.Veracity)
	assert.Equal(t, 100.0, first.Conflict)
	assert.Equal(t, 20.0, first.Logic)
	assert.Equal(t, 76.0, first.Composite)

	second, err := h.ingestion.AttachSource(ctx, a.ID, h.standup(t, ws.ID).ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seq)
	assert.Equal(t, 66.67, second.Veracity)
	assert.Equal(t, 100.0, second.Conflict)
	assert.Equal(t, 10.0, second.Logic)
	assert.Equal(t, 59.67, second.Composite)
	require.NotNil(t, second.Delta)
	assert.Equal(t, -16.33, *second.Delta)
	assert.Equal(t, 2, second.SourceCount)
	assert.Equal(t, 1, second.AuthoritativeCount)

	_, conflictCalls := h.oracle.calls()
	assert.Equal(t, 4, conflictCalls, "one pair across four dimensions")

	history, err := h.engine.ReadinessHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Seq)
	assert.Equal(t, domain.TriggerSourceAdded, history[0].Trigger)
	assert.Equal(t, 1, history[1].Seq)

	stored, err := h.repo.GetAnalysis(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AnalysisCompleted, stored.Status)

	assert.Len(t, h.sink.entries, 2)
	assert.Equal(t, []string{"score", "score"}, h.publisher.kinds())
}

func TestScoreEmptyAnalysis(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	a := h.analysis(t, h.workspace(t, false, 0).ID)
	res, err := h.engine.ScoreWithNote(context.Background(), a.ID, domain.TriggerManual, "baseline")
	require.NoError(t, err)

	assert.Equal(t, 30.0, res.Composite)
	assert.Zero(t, res.Veracity)
	assert.Equal(t, 100.0, res.Conflict)
	assert.Zero(t, res.Logic)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, domain.WarnEmptySourceSet, res.Warnings[0].Code)

	entries, err := h.repo.ListEntries(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "baseline", entries[0].Note)
}

func TestScoreRejectsUnknownTriggerAndAnalysis(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.engine.Score(ctx, "missing", domain.TriggerManual)
	assert.True(t, errors.Is(err, domain.ErrAnalysisNotFound))

	a := h.analysis(t, h.workspace(t, false, 0).ID)
	_, err = h.engine.Score(ctx, a.ID, domain.Trigger("nightly"))
	assert.True(t, errors.Is(err, domain.ErrInvalidTrigger))

	_, err = h.engine.ReadinessHistory(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrAnalysisNotFound))
}

func TestConcurrentScoresGetDistinctSequenceNumbers(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	ws := h.workspace(t, false, 0)
	a := h.analysis(t, ws.ID)
	_, err := h.ingestion.AttachSource(ctx, a.ID, h.boardDeck(t, ws.ID).ID, 0, "")
	require.NoError(t, err)

	const runs = 8
	var wg sync.WaitGroup
	errs := make(chan error, runs)
	for range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.Score(ctx, a.ID, domain.TriggerManual)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := h.repo.ListEntries(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, entries, runs+1)
	for i, e := range entries {
		assert.Equal(t, runs+1-i, e.Seq)
		if e.Seq > 1 {
			require.NotNil(t, e.Delta)
			assert.Zero(t, *e.Delta)
		}
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	t.Parallel()

	locks := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("an-1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locks.locks, "entries are released once unused")
}
