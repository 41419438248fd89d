package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RigorScore/internal/config"
	"RigorScore/internal/domain"
	"RigorScore/internal/usecase"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Database.Driver = "memory"
	cfg.HTTP.RequestsPerSecond = 0
	return cfg
}

func TestNewWiresServicesAndMetrics(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	svc := a.Services()
	ws, err := svc.Catalog.CreateWorkspace(ctx, usecase.NewWorkspace{Name: "Ops"})
	require.NoError(t, err)
	analysis, err := svc.Catalog.CreateAnalysis(ctx, usecase.NewAnalysis{WorkspaceID: ws.ID, Name: "Launch", PromptPackID: "risk-assessment"})
	require.NoError(t, err)
	assert.Equal(t, "risk-assessment@v1", analysis.PromptPackID)

	res, err := svc.Scoring.ScoreWithNote(ctx, analysis.ID, domain.TriggerManual, "")
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Composite)

	router := a.Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rigorscore_score_runs_total{trigger="manual-trigger"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/"+analysis.ID+"/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"seq":1`)
}

func TestNewWithSQLiteAndBadger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := memoryConfig()
	cfg.Database = config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "rigor.db")}
	cfg.Cache = config.CacheConfig{Driver: "badger", Path: filepath.Join(dir, "verdicts")}
	cfg.Metrics.Enabled = false

	a, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	ws, err := a.Services().Catalog.CreateWorkspace(ctx, usecase.NewWorkspace{Name: "Ops"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	reopened, err := New(ctx, cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	items, err := reopened.Services().Catalog.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ws.ID, items[0].ID)

	w := httptest.NewRecorder()
	reopened.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	ctx := context.Background()
	cases := map[string]func(*config.Config){
		"database": func(c *config.Config) { c.Database.Driver = "oracle-db" },
		"cache":    func(c *config.Config) { c.Cache.Driver = "redis" },
		"oracle":   func(c *config.Config) { c.Oracle.Provider = "crystal-ball" },
		"http":     func(c *config.Config) { c.Oracle.Provider = config.OracleHTTP },
		"openai":   func(c *config.Config) { c.Oracle.Provider = config.OracleOpenAI; c.Oracle.OpenAI.APIKey = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := memoryConfig()
			mutate(&cfg)
			_, err := New(ctx, cfg, quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestSweepRescoresCompletedAnalyses(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	svc := a.Services()
	ws, err := svc.Catalog.CreateWorkspace(ctx, usecase.NewWorkspace{Name: "Ops"})
	require.NoError(t, err)
	analysis, err := svc.Catalog.CreateAnalysis(ctx, usecase.NewAnalysis{WorkspaceID: ws.ID, Name: "Launch", PromptPackID: "post-mortem"})
	require.NoError(t, err)
	_, err = svc.Scoring.ScoreWithNote(ctx, analysis.ID, domain.TriggerManual, "")
	require.NoError(t, err)

	report, err := a.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rescored)

	entries, err := svc.Scoring.ReadinessHistory(ctx, analysis.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.TriggerReanalysis, entries[0].Trigger)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Interval = time.Hour

	a, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil && !strings.Contains(err.Error(), "context canceled") {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
