package domain

import (
	"fmt"
	"strings"
)

// UseCase enumerates the analysis templates the engine knows about.
type UseCase string

const (
	UseCasePostMortem     UseCase = "post-mortem"
	UseCaseStrategyReview UseCase = "strategy-review"
	UseCaseDecisionReview UseCase = "decision-review"
	UseCaseRiskAssessment UseCase = "risk-assessment"
)

// UseCases lists every use case in a stable order.
func UseCases() []UseCase {
	return []UseCase{UseCasePostMortem, UseCaseStrategyReview, UseCaseDecisionReview, UseCaseRiskAssessment}
}

// CriterionCategory groups readiness criteria.
type CriterionCategory string

const (
	CategoryCompleteness CriterionCategory = "completeness"
	CategoryQuality      CriterionCategory = "quality"
	CategoryConsistency  CriterionCategory = "consistency"
)

// Criterion is one required readiness condition of a prompt pack.
type Criterion struct {
	Name        string            `json:"name"`
	Category    CriterionCategory `json:"category"`
	Description string            `json:"description,omitempty"`
}

// PromptPack is a versioned requirement template for a use case.
// Packs are built once and never mutated; a change ships as a new version.
type PromptPack struct {
	UseCase     UseCase
	Version     string
	Description string
	Locked      bool
	criteria    []Criterion
}

// NewPromptPack builds a locked pack owning a copy of criteria.
func NewPromptPack(useCase UseCase, version, description string, criteria ...Criterion) PromptPack {
	owned := make([]Criterion, len(criteria))
	copy(owned, criteria)
	return PromptPack{
		UseCase:     useCase,
		Version:     version,
		Description: description,
		Locked:      true,
		criteria:    owned,
	}
}

// ID returns the stable identifier "<use-case>@<version>".
func (p PromptPack) ID() string {
	return PackID(p.UseCase, p.Version)
}

// Criteria returns the ordered criteria; callers get their own copy.
func (p PromptPack) Criteria() []Criterion {
	out := make([]Criterion, len(p.criteria))
	copy(out, p.criteria)
	return out
}

// PackID formats a pack identifier.
func PackID(useCase UseCase, version string) string {
	return fmt.Sprintf("%s@%s", useCase, version)
}

// ParsePackID splits "<use-case>@<version>"; a bare use case yields an empty version.
func ParsePackID(id string) (UseCase, string) {
	useCase, version, _ := strings.Cut(strings.TrimSpace(id), "@")
	return UseCase(useCase), version
}
