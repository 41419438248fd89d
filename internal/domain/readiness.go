package domain

import (
	"fmt"
	"time"
)

// CheckState is the per-criterion evaluation state.
type CheckState string

const (
	CheckUnchecked  CheckState = "unchecked"
	CheckEvaluating CheckState = "evaluating"
	CheckPassed     CheckState = "passed"
	CheckFailed     CheckState = "failed"
)

var checkTransitions = map[CheckState][]CheckState{
	CheckUnchecked:  {CheckEvaluating},
	CheckEvaluating: {CheckPassed, CheckFailed},
}

// Transition moves a check to next or returns ErrInvalidTransition.
func (s CheckState) Transition(next CheckState) (CheckState, error) {
	for _, allowed := range checkTransitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("check %s -> %s: %w", s, next, ErrInvalidTransition)
}

// ReadinessCheck is one evaluation of one criterion against an Analysis.
// Checks are append-only; a re-run creates new rows.
type ReadinessCheck struct {
	ID                string            `json:"id"`
	AnalysisID        string            `json:"analysis_id"`
	Batch             int               `json:"batch"`
	PackID            string            `json:"pack_id"`
	PackVersion       string            `json:"pack_version"`
	CriterionName     string            `json:"criterion_name"`
	CriterionCategory CriterionCategory `json:"criterion_category"`
	State             CheckState        `json:"state"`
	Passed            bool              `json:"passed"`
	Confidence        float64           `json:"confidence"`
	Rationale         string            `json:"rationale"`
	EvidenceSourceIDs []string          `json:"evidence_source_ids"`
	EvidenceSnippets  []string          `json:"evidence_snippets"`
	CheckedAt         time.Time         `json:"checked_at"`
}

// Readiness summarizes a set of checks against the criteria they answer.
type Readiness struct {
	Passed int
	Total  int
	Score  float64
	Ready  bool
	// Missing lists criteria that have no passing latest check.
	Missing []string
}

// ReadinessChange is emitted when an Analysis crosses the ready threshold in either direction.
type ReadinessChange struct {
	AnalysisID   string
	AnalysisName string
	PackID       string
	Ready        bool
	Score        float64
	Passed       int
	Total        int
	Missing      []string
	At           time.Time
}

// ComputeReadiness derives readiness from the latest check per criterion.
// A criterion without any check counts as not passed.
func ComputeReadiness(criteria []Criterion, checks []ReadinessCheck) Readiness {
	latest := LatestChecks(checks)
	r := Readiness{Total: len(criteria)}
	for _, c := range criteria {
		check, ok := latest[c.Name]
		if ok && check.Passed {
			r.Passed++
			continue
		}
		r.Missing = append(r.Missing, c.Name)
	}
	if r.Total == 0 {
		r.Score = 100
		r.Ready = true
		return r
	}
	r.Score = RoundScore(float64(r.Passed) / float64(r.Total) * 100)
	r.Ready = r.Passed == r.Total
	return r
}

// LatestChecks indexes checks by criterion name, keeping the one from the newest batch.
// Within a batch the later CheckedAt wins.
func LatestChecks(checks []ReadinessCheck) map[string]ReadinessCheck {
	latest := make(map[string]ReadinessCheck, len(checks))
	for _, c := range checks {
		prev, ok := latest[c.CriterionName]
		if !ok || newerCheck(c, prev) {
			latest[c.CriterionName] = c
		}
	}
	return latest
}

func newerCheck(c, prev ReadinessCheck) bool {
	if c.Batch != prev.Batch {
		return c.Batch > prev.Batch
	}
	return !c.CheckedAt.Before(prev.CheckedAt)
}

// NextBatch returns the batch number for the next evaluation of an Analysis.
// Batches start at 1 and only grow.
func NextBatch(checks []ReadinessCheck) int {
	maxBatch := 0
	for _, c := range checks {
		if c.Batch > maxBatch {
			maxBatch = c.Batch
		}
	}
	return maxBatch + 1
}
