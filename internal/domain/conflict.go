package domain

import "strings"

// ConflictDimension is a tracked axis of factual disagreement.
type ConflictDimension string

const (
	DimensionTimeline    ConflictDimension = "timeline"
	DimensionBudget      ConflictDimension = "budget"
	DimensionDecision    ConflictDimension = "decision"
	DimensionStakeholder ConflictDimension = "stakeholder"
)

// ConflictDimensions lists the tracked dimensions in evaluation order.
func ConflictDimensions() []ConflictDimension {
	return []ConflictDimension{DimensionTimeline, DimensionBudget, DimensionDecision, DimensionStakeholder}
}

// Severity is the ordinal weight of a detected conflict.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Penalties applied per distinct conflict.
const (
	PenaltyMinor    = 5.0
	PenaltyModerate = 15.0
	PenaltySevere   = 30.0
)

// ParseSeverity normalizes oracle output; anything unrecognized is moderate.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "minor", "low", "trivial":
		return SeverityMinor
	case "severe", "critical", "high", "major":
		return SeveritySevere
	}
	return SeverityModerate
}

// Penalty maps a severity to points deducted from the conflict score.
func (s Severity) Penalty() float64 {
	switch s {
	case SeverityMinor:
		return PenaltyMinor
	case SeveritySevere:
		return PenaltySevere
	}
	return PenaltyModerate
}

// Rank orders severities; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeveritySevere:
		return 3
	}
	return 2
}

// Conflict is one deduplicated contradiction found across sources.
type Conflict struct {
	Dimension ConflictDimension `json:"dimension"`
	Severity  Severity          `json:"severity"`
	Subject   string            `json:"subject"`
	SourceIDs []string          `json:"source_ids"`
	Rationale string            `json:"rationale"`
}
