package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"RigorScore/internal/config"
	"RigorScore/internal/infrastructure/cache"
	"RigorScore/internal/infrastructure/heuristic"
	"RigorScore/internal/infrastructure/influx"
	"RigorScore/internal/infrastructure/llm"
	"RigorScore/internal/infrastructure/metrics"
	"RigorScore/internal/infrastructure/ml"
	"RigorScore/internal/infrastructure/objectstore"
	"RigorScore/internal/infrastructure/parser"
	"RigorScore/internal/infrastructure/scheduler"
	"RigorScore/internal/infrastructure/storage"
	"RigorScore/internal/infrastructure/telegram"
	"RigorScore/internal/logging"
	"RigorScore/internal/oracle"
	"RigorScore/internal/ports"
	"RigorScore/internal/promptpack"
	"RigorScore/internal/scoring"
	"RigorScore/internal/transport"
	"RigorScore/internal/transport/httpapi"
	"RigorScore/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	packs       *promptpack.Catalog
	engine      *usecase.Engine
	ingestion   *usecase.Ingestion
	maintenance *usecase.Maintenance
	scheduler   *usecase.Scheduler
	recorder    *metrics.Recorder
	closers     []func() error
}

// New builds every adapter the configuration asks for and the services on top of them.
// Call Close to release databases and clients.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger, packs: promptpack.NewBuiltinCatalog()}

	repo, err := a.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	var metricsPort ports.Metrics
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.recorder = metrics.NewRecorder(registry)
		metricsPort = a.recorder
	}

	backend, err := newOracleBackend(cfg.Oracle, baseLogger)
	if err != nil {
		a.Close()
		return nil, err
	}
	guarded := oracle.NewGuard(backend, cfg.Oracle.Timeout, metricsPort)

	verdictCache, err := a.openCache()
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := usecase.EngineDeps{
		Repository: repo,
		Packs:      a.packs,
		Oracle:     guarded,
		Cache:      verdictCache,
		Metrics:    metricsPort,
		Normalize:  parser.VisibleText,
		Logger:     baseLogger,
	}

	if cfg.History.URL != "" {
		sink, err := influx.NewHistorySink(cfg.History)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error { sink.Close(); return nil })
		deps.HistorySink = sink
	}

	if cfg.Reports.Endpoint != "" {
		publisher, err := objectstore.NewReportPublisher(cfg.Reports)
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := publisher.EnsureBucket(ctx); err != nil {
			baseLogger.Warn("report bucket unavailable", "bucket", cfg.Reports.Bucket, "error", err)
		}
		deps.Publisher = publisher
	}

	if notifier := telegram.NewNotifier(cfg.Notifications.Telegram); notifier.Configured() {
		deps.Notifier = notifier
	}

	a.engine = usecase.NewEngine(engineConfig(cfg), deps)
	a.ingestion = usecase.NewIngestion(usecase.IngestionDeps{
		Repository: repo,
		Packs:      a.packs,
		Scorer:     a.engine,
		Normalize:  parser.VisibleText,
		Logger:     baseLogger,
	})
	a.maintenance = usecase.NewMaintenance(usecase.MaintenanceConfig{
		ReanalyzeCompleted: cfg.Scheduler.ReanalyzeCompleted,
		PurgeExpiredText:   cfg.Scheduler.PurgeExpiredText,
	}, repo, a.engine, a.ingestion, baseLogger)
	if cfg.Scheduler.Enabled {
		a.scheduler = usecase.NewScheduler(scheduler.NewTickerScheduler(cfg.Scheduler.Interval), a.maintenance, baseLogger)
	}

	baseLogger.Info("application ready",
		"database", cfg.Database.Driver,
		"oracle", cfg.Oracle.Provider,
		"cache", cfg.Cache.Driver,
		"scheduler", cfg.Scheduler.Enabled)
	return a, nil
}

func (a *Application) openRepository(ctx context.Context) (ports.Repository, error) {
	switch a.cfg.Database.Driver {
	case "memory":
		return storage.NewMemoryRepository(), nil
	case "postgres":
		repo, err := storage.OpenPostgres(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	case "sqlite", "":
		repo, err := storage.OpenSQLite(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
}

func (a *Application) openCache() (ports.VerdictCache, error) {
	switch a.cfg.Cache.Driver {
	case "badger":
		c, err := cache.OpenBadger(cache.BadgerConfig{
			Path:   a.cfg.Cache.Path,
			TTL:    a.cfg.Cache.TTL,
			Logger: a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		return c, nil
	case "memory", "":
		return cache.NewMemory(), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown cache driver %q", a.cfg.Cache.Driver)
}

func newOracleBackend(cfg config.OracleConfig, logger *slog.Logger) (ports.Oracle, error) {
	switch cfg.Provider {
	case config.OracleOpenAI:
		client, err := llm.NewOpenAIOracle(cfg.OpenAI, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.OracleHTTP:
		if cfg.HTTP.Endpoint == "" {
			return nil, errors.New("oracle provider http needs oracle.http.endpoint")
		}
		return ml.NewClient(cfg.HTTP), nil
	case config.OracleHeuristic, "":
		return heuristic.New(), nil
	}
	return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
}

func engineConfig(cfg config.Config) usecase.EngineConfig {
	return usecase.EngineConfig{
		Conflict: scoring.ConflictConfig{
			MaxPairs:            cfg.Conflict.MaxPairs,
			MaxDimensionPenalty: cfg.Conflict.MaxDimensionPenalty,
			Concurrency:         cfg.Conflict.Concurrency,
			MaxDocumentChars:    cfg.Oracle.MaxDocumentChars,
		},
		Logic: scoring.LogicConfig{
			DecisionBonus:  cfg.Logic.DecisionBonus,
			DecisionWindow: cfg.Logic.DecisionWindow,
		},
		ReadinessConcurrency: cfg.Readiness.Concurrency,
		MaxDocumentChars:     cfg.Oracle.MaxDocumentChars,
		LowConfidence:        cfg.Readiness.LowConfidence,
		FewSources:           cfg.Readiness.FewSources,
	}
}

// Services exposes the use cases to the transports.
func (a *Application) Services() transport.Services {
	return transport.Services{Scoring: a.engine, Catalog: a.ingestion, Packs: a.packs}
}

// Maintenance returns the sweep used by the scheduler.
func (a *Application) Maintenance() *usecase.Maintenance {
	return a.maintenance
}

// Logger returns the base logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Router builds the HTTP API with the metrics endpoint when enabled.
func (a *Application) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	opts := httpapi.RouterOptions{
		Logger:            a.logger,
		RequestsPerSecond: a.cfg.HTTP.RequestsPerSecond,
		Burst:             a.cfg.HTTP.Burst,
	}
	if a.recorder != nil {
		opts.MetricsPath = a.cfg.Metrics.Path
		opts.Metrics = a.recorder.Handler()
	}
	return httpapi.NewRouter(httpapi.NewHandler(a.Services(), a.logger), opts)
}

// Run serves the HTTP API and, when enabled, the maintenance scheduler until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.scheduler != nil {
		if err := a.scheduler.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return a.scheduler.Stop(stopCtx)
		})
	}

	server := httpapi.NewServer(a.cfg.HTTP.Addr, a.Router(), a.cfg.HTTP.ShutdownTimeout, a.logger)
	g.Go(func() error {
		return server.Run(gctx)
	})
	return g.Wait()
}

// Sweep runs one maintenance pass now.
func (a *Application) Sweep(ctx context.Context) (usecase.SweepReport, error) {
	return a.maintenance.Sweep(ctx, time.Now().In(a.cfg.Scheduler.Location()))
}

// Close releases every opened adapter, newest first.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
