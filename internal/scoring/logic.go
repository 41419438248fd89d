package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"RigorScore/internal/domain"
)

// IndicatorTerms are the executive-reasoning terms the logic scanner counts.
var IndicatorTerms = []string{
	"risk", "tradeoff", "alternative", "mitigation", "stakeholder",
	"constraint", "assumption", "dependency", "contingency", "scenario",
	"impact", "likelihood", "consequence", "opportunity cost", "decision",
	"rationale", "justification", "evidence", "data-driven", "metric",
	"kpi", "benchmark", "baseline", "variance", "forecast",
}

var decisionVerbs = []string{
	"decide", "decided", "decides", "approve", "approved", "approves",
	"select", "selected", "choose", "chose", "chosen", "commit", "committed",
	"recommend", "recommended", "prioritize", "prioritized", "conclude", "concluded",
	"determine", "determined", "resolve", "resolved", "adopt", "adopted",
}

var (
	indicatorExpr = wordListExpr(IndicatorTerms)
	decisionExpr  = wordListExpr(decisionVerbs)
	tokenExpr     = regexp.MustCompile(`\S+`)
)

func wordListExpr(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// LogicConfig tunes the decision-proximity quality multiplier.
type LogicConfig struct {
	// DecisionBonus scales the share of matches found near decision verbs; 0 disables it.
	DecisionBonus  float64
	DecisionWindow int
}

// DefaultLogicConfig keeps the multiplier at 1.0.
func DefaultLogicConfig() LogicConfig {
	return LogicConfig{DecisionBonus: 0, DecisionWindow: 8}
}

// LogicReport is the outcome of a logic-presence scan.
type LogicReport struct {
	Score        float64
	Matches      int
	NearDecision int
	Words        int
	Multiplier   float64
	Warnings     []domain.Warning
}

// LogicScanner measures indicator-term density across source text.
type LogicScanner struct {
	cfg       LogicConfig
	normalize func(string) string
}

// NewLogicScanner builds a scanner; normalize may be nil to count raw text.
func NewLogicScanner(cfg LogicConfig, normalize func(string) string) *LogicScanner {
	if cfg.DecisionWindow <= 0 {
		cfg.DecisionWindow = DefaultLogicConfig().DecisionWindow
	}
	if cfg.DecisionBonus < 0 {
		cfg.DecisionBonus = 0
	}
	return &LogicScanner{cfg: cfg, normalize: normalize}
}

// Scan computes L = min(100, matches/words*1000*q).
func (s *LogicScanner) Scan(sources []domain.WeightedSource) LogicReport {
	report := LogicReport{Multiplier: 1}

	for _, src := range sources {
		if src.TextPurgedAt != nil {
			report.Warnings = append(report.Warnings, domain.Warning{
				Code:     domain.WarnTextPurged,
				Message:  fmt.Sprintf("source %q text was purged; skipped by logic scan", src.Title),
				SourceID: src.ID,
			})
			continue
		}
		if !src.HasText() {
			continue
		}

		text := src.Text
		if s.normalize != nil {
			text = s.normalize(text)
		}

		words := src.WordCount
		if words <= 0 {
			words = domain.CountWords(text)
		}
		matches, near := s.countMatches(text)
		report.Words += words
		report.Matches += matches
		report.NearDecision += near
	}

	if report.Words == 0 {
		report.Warnings = append(report.Warnings, domain.Warning{
			Code:    domain.WarnZeroWordCount,
			Message: "no countable words across sources; logic presence is 0",
		})
		return report
	}

	if report.Matches > 0 {
		report.Multiplier = 1 + s.cfg.DecisionBonus*float64(report.NearDecision)/float64(report.Matches)
	}
	density := float64(report.Matches) / float64(report.Words) * 1000
	report.Score = domain.Clamp(density * report.Multiplier)
	return report
}

// countMatches returns indicator matches and how many of them sit within the decision window.
func (s *LogicScanner) countMatches(text string) (int, int) {
	hits := indicatorExpr.FindAllStringIndex(text, -1)
	if len(hits) == 0 || s.cfg.DecisionBonus == 0 {
		return len(hits), 0
	}

	verbs := decisionExpr.FindAllStringIndex(text, -1)
	if len(verbs) == 0 {
		return len(hits), 0
	}

	starts := tokenStarts(text)
	verbPos := make([]int, len(verbs))
	for i, v := range verbs {
		verbPos[i] = wordIndex(starts, v[0])
	}

	near := 0
	for _, h := range hits {
		pos := wordIndex(starts, h[0])
		for _, vp := range verbPos {
			if abs(pos-vp) <= s.cfg.DecisionWindow {
				near++
				break
			}
		}
	}
	return len(hits), near
}

func tokenStarts(text string) []int {
	tokens := tokenExpr.FindAllStringIndex(text, -1)
	starts := make([]int, len(tokens))
	for i, t := range tokens {
		starts[i] = t[0]
	}
	return starts
}

// wordIndex maps a byte offset to the index of the token containing it.
func wordIndex(starts []int, offset int) int {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
