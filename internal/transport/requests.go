package transport

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"RigorScore/internal/domain"
	"RigorScore/internal/usecase"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ErrNoFlags is returned when a flag update carries nothing to change.
var ErrNoFlags = errors.New("at least one of authoritative or status is required")

// CreateWorkspaceRequest creates a workspace.
type CreateWorkspaceRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	ZeroPersistence bool   `json:"zero_persistence"`
	RetentionDays   int    `json:"retention_days" validate:"gte=0"`
}

// Validate checks the request fields.
func (r *CreateWorkspaceRequest) Validate() error {
	return validate.Struct(r)
}

// Input converts the request for the ingestion service.
func (r *CreateWorkspaceRequest) Input() usecase.NewWorkspace {
	return usecase.NewWorkspace{Name: r.Name, ZeroPersistence: r.ZeroPersistence, RetentionDays: r.RetentionDays}
}

// CreateAnalysisRequest creates an analysis bound to a prompt pack.
type CreateAnalysisRequest struct {
	WorkspaceID  string `json:"workspace_id" validate:"required"`
	Name         string `json:"name" validate:"required,max=200"`
	Description  string `json:"description"`
	PromptPackID string `json:"prompt_pack_id" validate:"required"`
}

// Validate checks the request fields.
func (r *CreateAnalysisRequest) Validate() error {
	return validate.Struct(r)
}

// Input converts the request for the ingestion service.
func (r *CreateAnalysisRequest) Input() usecase.NewAnalysis {
	return usecase.NewAnalysis{
		WorkspaceID:  r.WorkspaceID,
		Name:         r.Name,
		Description:  r.Description,
		PromptPackID: r.PromptPackID,
	}
}

// RegisterSourceRequest registers an already-extracted document.
type RegisterSourceRequest struct {
	WorkspaceID   string     `json:"workspace_id" validate:"required"`
	Title         string     `json:"title"`
	Type          string     `json:"type" validate:"required"`
	Authoritative bool       `json:"authoritative"`
	Status        string     `json:"status" validate:"omitempty,oneof=draft final archived"`
	DocumentDate  *time.Time `json:"document_date"`
	ContentHash   string     `json:"content_hash"`
	WordCount     int        `json:"word_count" validate:"gte=0"`
	Text          string     `json:"text"`
}

// Validate checks the request fields.
func (r *RegisterSourceRequest) Validate() error {
	return validate.Struct(r)
}

// Input converts the request for the ingestion service.
func (r *RegisterSourceRequest) Input() usecase.NewSource {
	return usecase.NewSource{
		WorkspaceID:   r.WorkspaceID,
		Title:         r.Title,
		Type:          domain.SourceType(r.Type),
		Authoritative: r.Authoritative,
		Status:        domain.SourceStatus(strings.ToLower(r.Status)),
		DocumentDate:  r.DocumentDate,
		ContentHash:   r.ContentHash,
		WordCount:     r.WordCount,
		Text:          r.Text,
	}
}

// AttachSourceRequest binds a source into an analysis. A zero weight means the default.
type AttachSourceRequest struct {
	SourceID string  `json:"source_id" validate:"required"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	Reason   string  `json:"reason"`
}

// Validate checks the request fields.
func (r *AttachSourceRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateFlagsRequest edits the mutable flags of a source.
type UpdateFlagsRequest struct {
	Authoritative *bool   `json:"authoritative"`
	Status        *string `json:"status" validate:"omitempty,oneof=draft final archived"`
}

// Validate checks the request fields.
func (r *UpdateFlagsRequest) Validate() error {
	if r.Authoritative == nil && r.Status == nil {
		return ErrNoFlags
	}
	return validate.Struct(r)
}

// Flags converts the request for the ingestion service.
func (r *UpdateFlagsRequest) Flags() domain.SourceFlags {
	flags := domain.SourceFlags{Authoritative: r.Authoritative}
	if r.Status != nil {
		status := domain.SourceStatus(*r.Status)
		flags.Status = &status
	}
	return flags
}

// ScoreRequest asks for a new score snapshot. An empty trigger means manual-trigger.
type ScoreRequest struct {
	Trigger string `json:"trigger" validate:"omitempty,oneof=source-added manual-trigger reanalysis correction"`
	Note    string `json:"note" validate:"max=2000"`
}

// Validate checks the request fields.
func (r *ScoreRequest) Validate() error {
	return validate.Struct(r)
}

// TriggerValue returns the requested trigger, defaulting to manual-trigger.
func (r *ScoreRequest) TriggerValue() domain.Trigger {
	if r.Trigger == "" {
		return domain.TriggerManual
	}
	return domain.Trigger(r.Trigger)
}

// IsValidationError reports whether err came from request validation.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs) || errors.Is(err, ErrNoFlags)
}
