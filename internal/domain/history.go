package domain

import (
	"math"
	"time"
)

// Trigger records why a score snapshot was taken.
type Trigger string

const (
	TriggerSourceAdded Trigger = "source-added"
	TriggerManual      Trigger = "manual-trigger"
	TriggerReanalysis  Trigger = "reanalysis"
	TriggerCorrection  Trigger = "correction"
)

// Valid reports whether t is a known trigger.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerSourceAdded, TriggerManual, TriggerReanalysis, TriggerCorrection:
		return true
	}
	return false
}

// LogEntry is an immutable snapshot of an Analysis score.
type LogEntry struct {
	ID                 string
	AnalysisID         string
	Seq                int
	Timestamp          time.Time
	Composite          float64
	Veracity           float64
	Conflict           float64
	Logic              float64
	SourceCount        int
	AuthoritativeCount int
	ConflictCount      int
	// Delta is nil for the first entry of an Analysis.
	Delta   *float64
	Trigger Trigger
	Note    string
}

// DeltaFrom returns the delta of composite against prev, or nil without a predecessor.
func DeltaFrom(prev *LogEntry, composite float64) *float64 {
	if prev == nil {
		return nil
	}
	d := RoundScore(composite - prev.Composite)
	return &d
}

// Clamp bounds a score into [0,100]; NaN collapses to 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// RoundScore rounds half away from zero to two decimals, the persisted precision.
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
