package domain

// OracleTask distinguishes the two kinds of judgments the engine asks for.
type OracleTask string

const (
	TaskCriterion OracleTask = "criterion"
	TaskConflict  OracleTask = "conflict"
)

// OracleDocument is the slice of a Source an oracle gets to read.
type OracleDocument struct {
	SourceID      string `json:"source_id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	Authoritative bool   `json:"authoritative"`
	Text          string `json:"text"`
}

// OracleRequest is a single natural-language judgment request.
type OracleRequest struct {
	Task      OracleTask        `json:"task"`
	Prompt    string            `json:"prompt"`
	UseCase   UseCase           `json:"use_case,omitempty"`
	Criterion *Criterion        `json:"criterion,omitempty"`
	Dimension ConflictDimension `json:"dimension,omitempty"`
	Documents []OracleDocument  `json:"documents"`
}

// Verdict is the structured answer of the oracle.
// For criterion tasks Holds means the criterion is met; for conflict tasks it means the
// documents disagree, with Severity and Subject describing the disagreement.
type Verdict struct {
	Holds             bool     `json:"holds"`
	Confidence        float64  `json:"confidence"`
	Rationale         string   `json:"rationale"`
	EvidenceSourceIDs []string `json:"evidence_source_ids,omitempty"`
	EvidenceSnippets  []string `json:"evidence_snippets,omitempty"`
	Severity          string   `json:"severity,omitempty"`
	Subject           string   `json:"subject,omitempty"`
}

// Normalize clamps confidence into [0,1].
func (v Verdict) Normalize() Verdict {
	switch {
	case v.Confidence < 0 || v.Confidence != v.Confidence:
		v.Confidence = 0
	case v.Confidence > 1:
		v.Confidence = 1
	}
	return v
}
