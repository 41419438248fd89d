package usecase

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"RigorScore/internal/domain"
	"RigorScore/internal/oracle"
	"RigorScore/internal/ports"
	"RigorScore/internal/scoring"
)

// EngineConfig tunes scoring and readiness evaluation.
type EngineConfig struct {
	Conflict             scoring.ConflictConfig
	Logic                scoring.LogicConfig
	ReadinessConcurrency int
	MaxDocumentChars     int
	LowConfidence        float64
	FewSources           int
}

// DefaultEngineConfig mirrors the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Conflict:             scoring.DefaultConflictConfig(),
		Logic:                scoring.DefaultLogicConfig(),
		ReadinessConcurrency: 4,
		MaxDocumentChars:     oracle.DefaultMaxDocumentChars,
		LowConfidence:        0.6,
		FewSources:           3,
	}
}

// EngineDeps wires all driven adapters into the engine.
type EngineDeps struct {
	Repository  ports.Repository
	Packs       ports.PromptPackResolver
	Oracle      ports.Oracle
	Cache       ports.VerdictCache
	HistorySink ports.HistorySink
	Publisher   ports.ReportPublisher
	Notifier    ports.Notifier
	Metrics     ports.Metrics
	Normalize   func(string) string
	Tracer      trace.Tracer
	Logger      *slog.Logger
	Clock       func() time.Time
	NewID       func() string
}

// Engine implements scoring, readiness evaluation and history queries.
type Engine struct {
	cfg         EngineConfig
	repo        ports.Repository
	packs       ports.PromptPackResolver
	oracle      ports.Oracle
	historySink ports.HistorySink
	publisher   ports.ReportPublisher
	notifier    ports.Notifier
	metrics     ports.Metrics
	normalize   func(string) string
	aggregator  *scoring.Aggregator
	tracer      trace.Tracer
	logger      *slog.Logger
	clock       func() time.Time
	newID       func() string
	locks       *keyedMutex
}

// NewEngine constructs the orchestration component.
func NewEngine(cfg EngineConfig, deps EngineDeps) *Engine {
	def := DefaultEngineConfig()
	if cfg.ReadinessConcurrency <= 0 {
		cfg.ReadinessConcurrency = def.ReadinessConcurrency
	}
	if cfg.MaxDocumentChars <= 0 {
		cfg.MaxDocumentChars = def.MaxDocumentChars
	}
	if cfg.LowConfidence <= 0 {
		cfg.LowConfidence = def.LowConfidence
	}
	if cfg.FewSources <= 0 {
		cfg.FewSources = def.FewSources
	}
	if cfg.Conflict.MaxDocumentChars <= 0 {
		cfg.Conflict.MaxDocumentChars = cfg.MaxDocumentChars
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("RigorScore/internal/usecase")
	}

	detector := scoring.NewConflictDetector(cfg.Conflict, scoring.ConflictDeps{
		Oracle:    deps.Oracle,
		Cache:     deps.Cache,
		Normalize: deps.Normalize,
		Logger:    logger,
	})
	aggregator := scoring.NewAggregator(detector, scoring.NewLogicScanner(cfg.Logic, deps.Normalize), clock)

	return &Engine{
		cfg:         cfg,
		repo:        deps.Repository,
		packs:       deps.Packs,
		oracle:      deps.Oracle,
		historySink: deps.HistorySink,
		publisher:   deps.Publisher,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		normalize:   deps.Normalize,
		aggregator:  aggregator,
		tracer:      tracer,
		logger:      logger.With("component", "engine"),
		clock:       clock,
		newID:       newID,
		locks:       newKeyedMutex(),
	}
}

func (e *Engine) warn(warnings []domain.Warning) {
	if e.metrics == nil {
		return
	}
	for _, w := range warnings {
		e.metrics.ObserveWarning(w.Code)
	}
}
