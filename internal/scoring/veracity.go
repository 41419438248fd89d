package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"RigorScore/internal/domain"
)

// VeracityNormalization is the factor of an authoritative final PDF under 30 days old.
const VeracityNormalization = 1.5 * 1.0 * 1.0 * 1.2

const (
	authoritativeMultiplier = 1.5
	defaultTypeWeight       = 0.5
)

var typeWeights = map[domain.SourceType]float64{
	domain.TypeFinalPDF:      1.0,
	domain.TypePresentation:  0.9,
	domain.TypeSpreadsheet:   0.8,
	domain.TypeTranscript:    0.6,
	domain.TypeDraftDocument: 0.5,
}

var statusWeights = map[domain.SourceStatus]float64{
	domain.StatusFinal:    1.0,
	domain.StatusDraft:    0.7,
	domain.StatusArchived: 0.4,
}

// TypeWeight returns the weight of a source type; unknown types get the lowest tier.
func TypeWeight(t domain.SourceType) float64 {
	if w, ok := typeWeights[domain.SourceType(strings.ToLower(string(t)))]; ok {
		return w
	}
	return defaultTypeWeight
}

// StatusWeight returns the weight of a status; unknown statuses are treated as draft.
func StatusWeight(s domain.SourceStatus) float64 {
	if w, ok := statusWeights[domain.SourceStatus(strings.ToLower(string(s)))]; ok {
		return w
	}
	return statusWeights[domain.StatusDraft]
}

// RecencyBoost maps document age to a multiplier. Missing dates yield 1.0, future dates count as fresh.
func RecencyBoost(date *time.Time, now time.Time) float64 {
	if !hasDate(date) {
		return 1.0
	}
	days := AgeInDays(*date, now)
	switch {
	case days < 30:
		return 1.2
	case days < 90:
		return 1.1
	case days < 180:
		return 1.05
	}
	return 1.0
}

// hasDate treats a nil or zero date as missing.
func hasDate(date *time.Time) bool {
	return date != nil && !date.IsZero()
}

// AgeInDays returns whole days elapsed since date, never negative.
func AgeInDays(date, now time.Time) int {
	d := now.Sub(date)
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Hours() / 24))
}

// SourceFactor combines authority, type, status and recency for one source.
func SourceFactor(src domain.Source, now time.Time) float64 {
	authority := 1.0
	if src.Authoritative {
		authority = authoritativeMultiplier
	}
	return authority * TypeWeight(src.Type) * StatusWeight(src.Status) * RecencyBoost(src.DocumentDate, now)
}

// Veracity averages factor times per-analysis weight and scales it to [0,100].
func Veracity(sources []domain.WeightedSource, now time.Time) (float64, []domain.Warning) {
	if len(sources) == 0 {
		return 0, []domain.Warning{{
			Code:    domain.WarnEmptySourceSet,
			Message: "analysis has no sources; veracity is 0",
		}}
	}

	var (
		total    float64
		warnings []domain.Warning
	)
	for _, src := range sources {
		weight := src.Weight
		if weight <= 0 {
			weight = domain.DefaultSourceWeight
		}
		if !hasDate(src.DocumentDate) {
			warnings = append(warnings, domain.Warning{
				Code:     domain.WarnMissingDate,
				Message:  fmt.Sprintf("source %q has no document date; no recency boost applied", src.Title),
				SourceID: src.ID,
			})
		}
		total += SourceFactor(src.Source, now) * weight
	}

	avg := total / float64(len(sources))
	return domain.Clamp(avg / VeracityNormalization * 100), warnings
}
