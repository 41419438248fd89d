package scoring

import (
	"context"
	"fmt"
	"time"

	"RigorScore/internal/domain"
)

// Component weights of the composite rigor score.
const (
	WeightVeracity = 0.4
	WeightConflict = 0.3
	WeightLogic    = 0.3
)

// Composite combines clamped sub-scores; no rounding is applied here.
func Composite(veracity, conflict, logic float64) float64 {
	return WeightVeracity*domain.Clamp(veracity) +
		WeightConflict*domain.Clamp(conflict) +
		WeightLogic*domain.Clamp(logic)
}

// Result is the full output of one aggregation run.
type Result struct {
	Composite          float64
	Veracity           float64
	Conflict           float64
	Logic              float64
	SourceCount        int
	AuthoritativeCount int
	Conflicts          []domain.Conflict
	LogicReport        LogicReport
	Warnings           []domain.Warning
}

// Aggregator runs the three calculators over a source set.
type Aggregator struct {
	conflicts *ConflictDetector
	logic     *LogicScanner
	now       func() time.Time
}

// NewAggregator wires the calculators; now defaults to time.Now.
func NewAggregator(conflicts *ConflictDetector, logic *LogicScanner, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	if logic == nil {
		logic = NewLogicScanner(DefaultLogicConfig(), nil)
	}
	return &Aggregator{conflicts: conflicts, logic: logic, now: now}
}

// Run computes V, C, L and the composite for sources.
// An empty set still goes through the weighted formula: V=0, C=100, L=0 give a composite of 30, not 0.
func (a *Aggregator) Run(ctx context.Context, useCase domain.UseCase, sources []domain.WeightedSource) (Result, error) {
	res := Result{
		SourceCount:        len(sources),
		AuthoritativeCount: domain.AuthoritativeCount(sources),
	}

	if len(sources) == 0 {
		res.Veracity, res.Warnings = Veracity(nil, a.now())
		res.Conflict = 100
		res.Composite = Composite(res.Veracity, res.Conflict, res.Logic)
		return res, nil
	}

	veracity, warnings := Veracity(sources, a.now())
	res.Veracity = veracity
	res.Warnings = append(res.Warnings, warnings...)

	res.Conflict = 100
	if a.conflicts != nil {
		report, err := a.conflicts.Detect(ctx, useCase, sources)
		if err != nil {
			return Result{}, fmt.Errorf("conflict score: %w", err)
		}
		res.Conflict = report.Score
		res.Conflicts = report.Conflicts
		res.Warnings = append(res.Warnings, report.Warnings...)
	}

	logic := a.logic.Scan(sources)
	res.Logic = logic.Score
	res.LogicReport = logic
	res.Warnings = append(res.Warnings, logic.Warnings...)

	res.Composite = Composite(res.Veracity, res.Conflict, res.Logic)
	return res, nil
}
