package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"RigorScore/internal/ports"
)

// Scheduler runs the maintenance sweep on every tick of a driver.
// A tick that arrives while a sweep is still running is skipped.
type Scheduler struct {
	driver      ports.Scheduler
	maintenance *Maintenance
	logger      *slog.Logger

	running atomic.Bool
	skipped atomic.Int64

	mu      sync.Mutex
	last    SweepReport
	lastRun time.Time
}

// NewScheduler binds a scheduling driver to the maintenance sweep.
func NewScheduler(driver ports.Scheduler, maintenance *Maintenance, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, maintenance: maintenance, logger: logger.With("component", "scheduler")}
}

// Start registers the sweep with the driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.maintenance == nil {
		return nil
	}
	return s.driver.Start(ctx, func(tick time.Time) { s.tick(ctx, tick) })
}

func (s *Scheduler) tick(ctx context.Context, at time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		s.logger.Warn("maintenance sweep still running, tick skipped", "tick", at)
		return
	}
	defer s.running.Store(false)

	report, err := s.maintenance.Sweep(ctx, at)
	if err != nil {
		s.logger.Error("maintenance sweep failed", "tick", at, "error", err)
		return
	}
	s.mu.Lock()
	s.last, s.lastRun = report, at
	s.mu.Unlock()
}

// LastReport returns the most recent successful sweep and when it ran.
func (s *Scheduler) LastReport() (SweepReport, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastRun
}

// Skipped counts ticks dropped because a sweep was in flight.
func (s *Scheduler) Skipped() int64 {
	return s.skipped.Load()
}

// Stop tears down the driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
