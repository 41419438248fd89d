package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
	"RigorScore/internal/infrastructure/storage"
	"RigorScore/internal/oracle"
	"RigorScore/internal/ports"
	"RigorScore/internal/promptpack"
)

var t0 = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubOracle never reports conflicts; criteria pass unless listed as failing, erroring or hanging.
type stubOracle struct {
	mu        sync.Mutex
	failing   map[string]bool
	erroring  map[string]bool
	hanging   map[string]bool
	criterion int
	conflict  int
}

func newStubOracle() *stubOracle {
	return &stubOracle{failing: map[string]bool{}, erroring: map[string]bool{}, hanging: map[string]bool{}}
}

func (s *stubOracle) setFailing(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = map[string]bool{}
	for _, n := range names {
		s.failing[n] = true
	}
}

func (s *stubOracle) calls() (criterion, conflict int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criterion, s.conflict
}

func (s *stubOracle) evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	s.mu.Lock()
	if req.Task == domain.TaskConflict {
		s.conflict++
		s.mu.Unlock()
		return domain.Verdict{Holds: false, Confidence: 0.9, Rationale: "consistent"}, nil
	}
	s.criterion++
	name := req.Criterion.Name
	failing, erroring, hanging := s.failing[name], s.erroring[name], s.hanging[name]
	s.mu.Unlock()

	switch {
	case hanging:
		<-ctx.Done()
		return domain.Verdict{}, ctx.Err()
	case erroring:
		return domain.Verdict{}, errors.New("model overloaded")
	case failing:
		return domain.Verdict{Holds: false, Confidence: 0.9, Rationale: "not covered"}, nil
	}
	return domain.Verdict{
		Holds:             true,
		Confidence:        0.9,
		Rationale:         "covered",
		EvidenceSourceIDs: []string{req.Documents[0].SourceID},
	}, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.ReadinessChange
}

func (n *recordingNotifier) NotifyReadiness(_ context.Context, change domain.ReadinessChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, change)
	return nil
}

func (n *recordingNotifier) all() []domain.ReadinessChange {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.ReadinessChange(nil), n.changes...)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

func (s *recordingSink) Record(_ context.Context, e domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	reports []domain.Report
}

func (p *recordingPublisher) Publish(_ context.Context, r domain.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.reports))
	for i, r := range p.reports {
		out[i] = r.Kind
	}
	return out
}

type harness struct {
	repo      ports.Repository
	clock     *testClock
	oracle    *stubOracle
	notifier  *recordingNotifier
	sink      *recordingSink
	publisher *recordingPublisher
	engine    *Engine
	ingestion *Ingestion
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithRepo(t, storage.NewMemoryRepository())
}

// newSQLiteHarness runs the engine on an in-process SQLite database.
func newSQLiteHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := storage.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return newHarnessWithRepo(t, repo)
}

func newHarnessWithRepo(t *testing.T, repo ports.Repository) *harness {
	t.Helper()

	h := &harness{
		repo:      repo,
		clock:     &testClock{now: t0},
		oracle:    newStubOracle(),
		notifier:  &recordingNotifier{},
		sink:      &recordingSink{},
		publisher: &recordingPublisher{},
	}
	packs := promptpack.NewBuiltinCatalog()
	h.engine = NewEngine(DefaultEngineConfig(), EngineDeps{
		Repository:  h.repo,
		Packs:       packs,
		Oracle:      oracle.NewGuard(oracle.Func(h.oracle.evaluate), 50*time.Millisecond, nil),
		HistorySink: h.sink,
		Publisher:   h.publisher,
		Notifier:    h.notifier,
		Clock:       h.clock.Now,
	})
	h.ingestion = NewIngestion(IngestionDeps{
		Repository: h.repo,
		Packs:      packs,
		Scorer:     h.engine,
		Clock:      h.clock.Now,
	})
	return h
}

func (h *harness) workspace(t *testing.T, zeroPersistence bool, retentionDays int) domain.Workspace {
	t.Helper()
	ws, err := h.ingestion.CreateWorkspace(context.Background(), NewWorkspace{
		Name: "Ops", ZeroPersistence: zeroPersistence, RetentionDays: retentionDays,
	})
	require.NoError(t, err)
	return ws
}

func (h *harness) analysis(t *testing.T, wsID string) domain.Analysis {
	t.Helper()
	a, err := h.ingestion.CreateAnalysis(context.Background(), NewAnalysis{
		WorkspaceID: wsID, Name: "Q3 launch", PromptPackID: string(domain.UseCasePostMortem),
	})
	require.NoError(t, err)
	return a
}

func (h *harness) daysAgo(n int) *time.Time {
	d := h.clock.Now().Add(-time.Duration(n) * 24 * time.Hour)
	return &d
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// boardDeck is authoritative, final and recent: factor 1.8, 3 indicator terms in 150 words.
func (h *harness) boardDeck(t *testing.T, wsID string) domain.Source {
	t.Helper()
	src, err := h.ingestion.RegisterSource(context.Background(), NewSource{
		WorkspaceID: wsID, Title: "Board deck", Type: domain.TypeFinalPDF, Authoritative: true,
		Status: domain.StatusFinal, DocumentDate: h.daysAgo(10),
		Text: "risk tradeoff evidence " + words(147),
	})
	require.NoError(t, err)
	return src
}

// standup is an old final transcript: factor 0.6, no indicator terms in 150 words.
func (h *harness) standup(t *testing.T, wsID string) domain.Source {
	t.Helper()
	src, err := h.ingestion.RegisterSource(context.Background(), NewSource{
		WorkspaceID: wsID, Title: "Standup", Type: domain.TypeTranscript,
		Status: domain.StatusFinal, DocumentDate: h.daysAgo(200),
		Text: words(150),
	})
	require.NoError(t, err)
	return src
}
