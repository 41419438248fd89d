package oracle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"RigorScore/internal/domain"
)

// DefaultMaxDocumentChars caps the text of one document inside a request.
const DefaultMaxDocumentChars = 6000

var dimensionFocus = map[domain.ConflictDimension]string{
	domain.DimensionTimeline:    "dates, deadlines, milestones or the order of events",
	domain.DimensionBudget:      "budget figures, costs, funding amounts or financial targets",
	domain.DimensionDecision:    "which decision was made, approved, rejected or deferred",
	domain.DimensionStakeholder: "stakeholder positions, owners, sponsors or who agreed to what",
}

// ConflictPrompt asks whether two documents disagree on one dimension.
func ConflictPrompt(dim domain.ConflictDimension) string {
	focus, ok := dimensionFocus[dim]
	if !ok {
		focus = string(dim)
	}
	return fmt.Sprintf(`Compare the two documents below and decide whether they make contradictory factual claims about %s.
Ignore differences in wording, level of detail or topics only one document covers.
Set "holds" to true only when the documents state incompatible facts.
When they conflict, name the disputed item in "subject" (a short noun phrase) and rate "severity" as minor, moderate or severe.`, focus)
}

// CriterionPrompt asks whether a bundle of documents satisfies one readiness criterion.
func CriterionPrompt(useCase domain.UseCase, c domain.Criterion, summary string) string {
	var b strings.Builder
	b.WriteString("You are a document completeness analyzer. Determine whether the provided sources meet a specific criterion.\n\n")
	fmt.Fprintf(&b, "Criterion to check: %s\n", c.Name)
	fmt.Fprintf(&b, "Category: %s\n", c.Category)
	if c.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}
	fmt.Fprintf(&b, "Analysis type: %s\n\n", useCase)
	b.WriteString("Available sources:\n")
	b.WriteString(summary)
	b.WriteString("\n\nSet \"holds\" to true when the sources contain the information the criterion requires. ")
	b.WriteString("Focus on completeness, not on the quality of the analysis.")
	return b.String()
}

// SourceSummary renders a numbered one-line description per source.
func SourceSummary(sources []domain.WeightedSource) string {
	lines := make([]string, 0, len(sources))
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = "Untitled"
		}
		line := fmt.Sprintf("%d. %s (%s) - %d words", i+1, title, src.Type, src.WordCount)
		if src.Authoritative {
			line += " [AUTHORITATIVE]"
		}
		if src.TextPurgedAt != nil {
			line += " [TEXT PURGED]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Documents converts sources with text into oracle documents, normalizing and truncating text.
func Documents(sources []domain.WeightedSource, maxChars int, normalize func(string) string) []domain.OracleDocument {
	docs := make([]domain.OracleDocument, 0, len(sources))
	for _, src := range sources {
		if !src.HasText() {
			continue
		}
		docs = append(docs, Document(src.Source, maxChars, normalize))
	}
	return docs
}

// Document converts one source.
func Document(src domain.Source, maxChars int, normalize func(string) string) domain.OracleDocument {
	text := src.Text
	if normalize != nil {
		text = normalize(text)
	}
	return domain.OracleDocument{
		SourceID:      src.ID,
		Title:         src.Title,
		Type:          string(src.Type),
		Authoritative: src.Authoritative,
		Text:          Truncate(text, maxChars),
	}
}

// Truncate shortens text to at most maxChars runes; non-positive maxChars uses the default.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxDocumentChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars]) + " [truncated]"
}
