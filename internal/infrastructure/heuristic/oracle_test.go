package heuristic

import (
	"context"
	"testing"

	"RigorScore/internal/domain"
)

func criterionRequest(name string, docs ...domain.OracleDocument) domain.OracleRequest {
	return domain.OracleRequest{
		Task:      domain.TaskCriterion,
		Criterion: &domain.Criterion{Name: name},
		Documents: docs,
	}
}

func TestCriterionPassesWithTwoMatches(t *testing.T) {
	t.Parallel()

	v, err := New().Evaluate(context.Background(), criterionRequest("Project timeline",
		domain.OracleDocument{SourceID: "a", Title: "Plan", Text: "The schedule slipped past the milestone."},
	))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !v.Holds {
		t.Fatalf("expected pass, got %+v", v)
	}
	if v.Confidence != 0.7 {
		t.Fatalf("confidence = %v, want 0.7", v.Confidence)
	}
	if len(v.EvidenceSourceIDs) != 1 || v.EvidenceSourceIDs[0] != "a" {
		t.Fatalf("evidence = %v", v.EvidenceSourceIDs)
	}
}

func TestCriterionFailsWithSingleMatch(t *testing.T) {
	t.Parallel()

	v, err := New().Evaluate(context.Background(), criterionRequest("Budget overview",
		domain.OracleDocument{SourceID: "a", Text: "Nothing about money except the cost."},
		domain.OracleDocument{SourceID: "b", Text: "Unrelated notes."},
	))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Holds || v.Confidence != 0.6 {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestConfidenceIsCapped(t *testing.T) {
	t.Parallel()

	text := "risk threat vulnerability mitigation contingency"
	v, _ := New().Evaluate(context.Background(), criterionRequest("Risk register",
		domain.OracleDocument{SourceID: "a", Text: text},
		domain.OracleDocument{SourceID: "b", Text: text},
		domain.OracleDocument{SourceID: "c", Text: text},
		domain.OracleDocument{SourceID: "d", Text: text},
	))
	if v.Confidence != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", v.Confidence)
	}
	if len(v.EvidenceSourceIDs) != 3 {
		t.Fatalf("evidence should be capped at 3, got %d", len(v.EvidenceSourceIDs))
	}
}

func TestKeywordsForFallsBackToGeneral(t *testing.T) {
	t.Parallel()

	if got := KeywordsFor("Lessons learned"); len(got) != 3 || got[0] != "relevant" {
		t.Fatalf("KeywordsFor = %v", got)
	}
	if got := KeywordsFor("Stakeholder sign-off"); got[0] != "stakeholder" {
		t.Fatalf("KeywordsFor = %v", got)
	}
}

func TestConflictTaskNeverHolds(t *testing.T) {
	t.Parallel()

	v, err := New().Evaluate(context.Background(), domain.OracleRequest{Task: domain.TaskConflict})
	if err != nil || v.Holds {
		t.Fatalf("conflict verdict = %+v, %v", v, err)
	}
}
