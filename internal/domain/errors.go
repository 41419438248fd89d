package domain

import "errors"

var (
	ErrAnalysisNotFound   = errors.New("analysis not found")
	ErrSourceNotFound     = errors.New("source not found")
	ErrWorkspaceNotFound  = errors.New("workspace not found")
	ErrPromptPackNotFound = errors.New("prompt pack not found")
	ErrInvalidWeight      = errors.New("source weight must be positive")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrInvalidTrigger     = errors.New("unknown trigger reason")
	ErrRetentionDisabled  = errors.New("workspace does not allow text purge")

	// ErrOracleUnavailable marks a reasoning oracle call that produced no usable verdict.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrOracleTimeout marks an oracle call that exceeded its deadline.
	ErrOracleTimeout = errors.New("oracle timed out")
)

// WarningCode identifies a degraded-input or recovered-failure condition.
type WarningCode string

const (
	WarnEmptySourceSet  WarningCode = "empty_source_set"
	WarnMissingDate     WarningCode = "missing_document_date"
	WarnZeroWordCount   WarningCode = "zero_word_count"
	WarnTextPurged      WarningCode = "text_purged"
	WarnOracleFailure   WarningCode = "oracle_failure"
	WarnPairLimit       WarningCode = "conflict_pair_limit"
	WarnNoAuthoritative WarningCode = "no_authoritative_sources"
	WarnManyFailed      WarningCode = "many_criteria_failed"
	WarnLowConfidence   WarningCode = "low_confidence_checks"
	WarnFewSources      WarningCode = "few_sources"
	WarnNoCriteria      WarningCode = "no_required_criteria"
)

// Warning is attached to results instead of failing the run.
type Warning struct {
	Code     WarningCode `json:"code"`
	Message  string      `json:"message"`
	SourceID string      `json:"source_id,omitempty"`
}
