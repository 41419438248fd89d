package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// SourceType classifies a document by its production format.
type SourceType string

const (
	TypeFinalPDF      SourceType = "final-pdf"
	TypePresentation  SourceType = "presentation"
	TypeSpreadsheet   SourceType = "spreadsheet"
	TypeTranscript    SourceType = "transcript"
	TypeDraftDocument SourceType = "draft-document"
)

// SourceStatus is the editorial status of a document.
type SourceStatus string

const (
	StatusDraft    SourceStatus = "draft"
	StatusFinal    SourceStatus = "final"
	StatusArchived SourceStatus = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s SourceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusFinal, StatusArchived:
		return true
	}
	return false
}

// Source is a document's metadata plus its already-extracted text.
type Source struct {
	ID            string
	WorkspaceID   string
	Title         string
	Type          SourceType
	Authoritative bool
	Status        SourceStatus
	DocumentDate  *time.Time
	ContentHash   string
	WordCount     int
	Text          string
	TextPurgedAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasText reports whether the extracted text is still available.
func (s Source) HasText() bool {
	return s.TextPurgedAt == nil && strings.TrimSpace(s.Text) != ""
}

// Fingerprint returns the content hash, deriving it from the text when absent.
func (s Source) Fingerprint() string {
	if s.ContentHash != "" {
		return s.ContentHash
	}
	return HashText(s.Text)
}

// HashText returns the hex sha256 of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// SourceFlags holds the only mutable fields of a scored Source.
type SourceFlags struct {
	Authoritative *bool
	Status        *SourceStatus
}

// WeightedSource is a Source as bound into one Analysis.
type WeightedSource struct {
	Source
	Weight          float64
	InclusionReason string
	AddedAt         time.Time
}

// DefaultSourceWeight applies when an Analysis binds a Source without an explicit weight.
const DefaultSourceWeight = 1.0

// AuthoritativeCount returns how many sources carry the authority flag.
func AuthoritativeCount(sources []WeightedSource) int {
	n := 0
	for _, s := range sources {
		if s.Authoritative {
			n++
		}
	}
	return n
}
