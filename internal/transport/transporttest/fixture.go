// Package transporttest builds in-memory services for transport tests.
package transporttest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"RigorScore/internal/domain"
	"RigorScore/internal/infrastructure/heuristic"
	"RigorScore/internal/infrastructure/parser"
	"RigorScore/internal/infrastructure/storage"
	"RigorScore/internal/oracle"
	"RigorScore/internal/promptpack"
	"RigorScore/internal/transport"
	"RigorScore/internal/usecase"
)

// Now is the fixed clock of every fixture.
var Now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

// Fixture wires the engine and ingestion over a memory repository and the keyword oracle.
type Fixture struct {
	Repo      *storage.MemoryRepository
	Engine    *usecase.Engine
	Ingestion *usecase.Ingestion
	Packs     *promptpack.Catalog
}

// New builds a fresh fixture.
func New() *Fixture {
	clock := func() time.Time { return Now }
	f := &Fixture{
		Repo:  storage.NewMemoryRepository(),
		Packs: promptpack.NewBuiltinCatalog(),
	}
	f.Engine = usecase.NewEngine(usecase.DefaultEngineConfig(), usecase.EngineDeps{
		Repository: f.Repo,
		Packs:      f.Packs,
		Oracle:     oracle.NewGuard(heuristic.New(), time.Second, nil),
		Normalize:  parser.VisibleText,
		Clock:      clock,
	})
	f.Ingestion = usecase.NewIngestion(usecase.IngestionDeps{
		Repository: f.Repo,
		Packs:      f.Packs,
		Scorer:     f.Engine,
		Normalize:  parser.VisibleText,
		Clock:      clock,
	})
	return f
}

// Services returns the transport view of the fixture.
func (f *Fixture) Services() transport.Services {
	return transport.Services{Scoring: f.Engine, Catalog: f.Ingestion, Packs: f.Packs}
}

// Workspace creates a workspace.
func (f *Fixture) Workspace(t testing.TB, zeroPersistence bool) domain.Workspace {
	t.Helper()
	ws, err := f.Ingestion.CreateWorkspace(context.Background(), usecase.NewWorkspace{
		Name: "Ops", ZeroPersistence: zeroPersistence, RetentionDays: 30,
	})
	require.NoError(t, err)
	return ws
}

// Analysis creates a post-mortem analysis.
func (f *Fixture) Analysis(t testing.TB, wsID string) domain.Analysis {
	t.Helper()
	a, err := f.Ingestion.CreateAnalysis(context.Background(), usecase.NewAnalysis{
		WorkspaceID: wsID, Name: "Q3 launch", PromptPackID: string(domain.UseCasePostMortem),
	})
	require.NoError(t, err)
	return a
}

// BoardDeck registers an authoritative final PDF dated ten days ago:
// veracity 100 and logic 20 when scored alone.
func (f *Fixture) BoardDeck(t testing.TB, wsID string) domain.Source {
	t.Helper()
	date := Now.AddDate(0, 0, -10)
	src, err := f.Ingestion.RegisterSource(context.Background(), usecase.NewSource{
		WorkspaceID: wsID, Title: "Board deck", Type: domain.TypeFinalPDF, Authoritative: true,
		Status: domain.StatusFinal, DocumentDate: &date,
		Text: "risk tradeoff evidence " + Words(147),
	})
	require.NoError(t, err)
	return src
}

// Words returns n filler words.
func Words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}
