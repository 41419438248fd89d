package domain

import "fmt"

// GuardResult is the outcome of a lifecycle precondition check.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Err converts a rejected guard to an error wrapping ErrInvalidTransition.
func (r GuardResult) Err() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s: %w", r.Reason, ErrInvalidTransition)
}

// CanTransitionAnalysis evaluates a lifecycle move.
// Rules:
//   - any analysis may start a run; an interrupted run may be restarted
//   - only an in-progress analysis may complete or fail
func CanTransitionAnalysis(from, to AnalysisStatus) GuardResult {
	switch to {
	case AnalysisInProgress:
		return GuardResult{Allowed: true}
	case AnalysisCompleted, AnalysisFailed:
		if from != AnalysisInProgress {
			return GuardResult{Reason: fmt.Sprintf("cannot move analysis from %s to %s", from, to)}
		}
		return GuardResult{Allowed: true}
	case AnalysisPending:
		return GuardResult{Reason: "analysis cannot return to pending"}
	}
	return GuardResult{Reason: fmt.Sprintf("unknown analysis status %q", to)}
}
