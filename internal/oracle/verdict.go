package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"RigorScore/internal/domain"
)

// ResponseContract is appended to every prompt sent to a text-completion backend.
const ResponseContract = `Respond with a single JSON object and nothing else:
{"holds": true|false, "confidence": 0.0-1.0, "rationale": "one or two sentences",
 "evidence_source_ids": ["source ids you relied on"], "evidence_snippets": ["short quotes"],
 "severity": "minor|moderate|severe (conflicts only)", "subject": "disputed item (conflicts only)"}`

// RenderRequest flattens a request into a single prompt with the documents inlined.
func RenderRequest(req domain.OracleRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	b.WriteString("\n\n")
	for i, doc := range req.Documents {
		fmt.Fprintf(&b, "--- Document %d (id=%s, type=%s", i+1, doc.SourceID, doc.Type)
		if doc.Authoritative {
			b.WriteString(", authoritative")
		}
		b.WriteString(")")
		if doc.Title != "" {
			fmt.Fprintf(&b, " %s", doc.Title)
		}
		b.WriteString(" ---\n")
		b.WriteString(doc.Text)
		b.WriteString("\n\n")
	}
	b.WriteString(ResponseContract)
	return b.String()
}

type verdictPayload struct {
	Holds             *bool    `json:"holds"`
	Confidence        float64  `json:"confidence"`
	Rationale         string   `json:"rationale"`
	EvidenceSourceIDs []string `json:"evidence_source_ids"`
	EvidenceSnippets  []string `json:"evidence_snippets"`
	Severity          string   `json:"severity"`
	Subject           string   `json:"subject"`

	// Alternative spellings some models produce.
	Passed   *bool `json:"passed"`
	Conflict *bool `json:"conflict"`
}

// ParseVerdict extracts the first JSON object from raw model output.
// Markdown fences and surrounding prose are tolerated; a missing holds flag is an error.
func ParseVerdict(raw string) (domain.Verdict, error) {
	body := extractObject(raw)
	if body == "" {
		return domain.Verdict{}, fmt.Errorf("no JSON object in oracle response")
	}

	var p verdictPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return domain.Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}

	holds := p.Holds
	if holds == nil {
		holds = p.Passed
	}
	if holds == nil {
		holds = p.Conflict
	}
	if holds == nil {
		return domain.Verdict{}, fmt.Errorf("verdict has no holds flag")
	}

	v := domain.Verdict{
		Holds:             *holds,
		Confidence:        p.Confidence,
		Rationale:         strings.TrimSpace(p.Rationale),
		EvidenceSourceIDs: p.EvidenceSourceIDs,
		EvidenceSnippets:  p.EvidenceSnippets,
		Severity:          strings.ToLower(strings.TrimSpace(p.Severity)),
		Subject:           strings.TrimSpace(p.Subject),
	}
	return v.Normalize(), nil
}

func extractObject(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
