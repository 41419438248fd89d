package heuristic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

const (
	minMatches       = 2
	maxConfidence    = 0.95
	baseConfidence   = 0.5
	perMatchIncrease = 0.1
	maxEvidence      = 3
)

type keywordGroup struct {
	name     string
	keywords []string
}

// Groups are tried in order; the first whose keywords occur in the criterion name wins.
var keywordGroups = []keywordGroup{
	{"timeline", []string{"timeline", "schedule", "date", "milestone", "deadline"}},
	{"decision", []string{"decision", "choice", "selected", "approved", "decided"}},
	{"risk", []string{"risk", "threat", "vulnerability", "mitigation", "contingency"}},
	{"budget", []string{"budget", "cost", "expense", "financial", "price", "funding"}},
	{"stakeholder", []string{"stakeholder", "sponsor", "customer", "user", "team"}},
	{"vision", []string{"vision", "mission", "goal", "objective", "target"}},
	{"market", []string{"market", "competitive", "industry", "sector", "landscape"}},
	{"metrics", []string{"metric", "kpi", "measure", "indicator", "target", "goal"}},
	{"alternative", []string{"alternative", "option", "approach", "solution", "choice"}},
	{"tradeoff", []string{"tradeoff", "trade-off", "compromise", "balance", "pros and cons"}},
}

var generalKeywords = []string{"relevant", "information", "data"}

// Oracle is an offline rule-based oracle. It answers criterion checks by keyword
// matching and never reports conflicts.
type Oracle struct{}

var _ ports.Oracle = Oracle{}

// New returns the keyword oracle.
func New() Oracle { return Oracle{} }

// Evaluate answers without any network access.
func (Oracle) Evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.Verdict{}, err
	}
	switch req.Task {
	case domain.TaskCriterion:
		if req.Criterion == nil {
			return domain.Verdict{}, fmt.Errorf("criterion request without criterion")
		}
		return checkCriterion(req.Criterion.Name, req.Documents), nil
	case domain.TaskConflict:
		return domain.Verdict{
			Holds:      false,
			Confidence: baseConfidence,
			Rationale:  "keyword heuristic cannot compare claims; no conflict reported",
		}, nil
	}
	return domain.Verdict{}, fmt.Errorf("unsupported oracle task %q", req.Task)
}

// KeywordsFor returns the keyword group matched by a criterion name.
func KeywordsFor(criterion string) []string {
	lower := strings.ToLower(criterion)
	for _, g := range keywordGroups {
		for _, k := range g.keywords {
			if strings.Contains(lower, k) {
				return g.keywords
			}
		}
	}
	return generalKeywords
}

func checkCriterion(name string, docs []domain.OracleDocument) domain.Verdict {
	keywords := KeywordsFor(name)

	var (
		total    int
		ids      []string
		snippets []string
	)
	for _, doc := range docs {
		content := strings.ToLower(doc.Text)
		title := strings.ToLower(doc.Title)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(content, kw) || strings.Contains(title, kw) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		total += matches
		ids = append(ids, doc.SourceID)
		title = doc.Title
		if title == "" {
			title = "document"
		}
		snippets = append(snippets, fmt.Sprintf("Found %d relevant terms in %s", matches, title))
	}

	holds := total >= minMatches
	outcome := "Insufficient evidence for this criterion."
	if holds {
		outcome = "Criterion appears to be met."
	}

	return domain.Verdict{
		Holds:             holds,
		Confidence:        math.Round(math.Min(maxConfidence, baseConfidence+float64(total)*perMatchIncrease)*100) / 100,
		Rationale:         fmt.Sprintf("Found %d relevant indicators across %d source(s). %s", total, len(ids), outcome),
		EvidenceSourceIDs: firstN(ids, maxEvidence),
		EvidenceSnippets:  firstN(snippets, maxEvidence),
	}
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
