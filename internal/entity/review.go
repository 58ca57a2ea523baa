package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
)

// ReviewDecision is the terminal outcome of human review. Once written
// it is immutable; re-review requires a fresh extraction job.
type ReviewDecision struct {
	ID           uuid.UUID              `json:"id"`
	JobID        uuid.UUID              `json:"job_id"`
	DocumentType constants.DocumentType `json:"document_type"`
	Approved     bool                   `json:"approved"`
	// Fields is the possibly-edited field set on approval, deduped by
	// normalized key.
	Fields []ExtractedField `json:"fields,omitempty"`
	// RawFields preserves every raw detection for audit, including
	// duplicates the presentation layer collapsed.
	RawFields    []ExtractedField `json:"raw_fields,omitempty"`
	RejectReason string           `json:"reject_reason,omitempty"`
	Override     bool             `json:"override,omitempty"`
	DecidedAt    time.Time        `json:"decided_at"`
}

// FieldSuggestion maps one recognized document field onto a profile
// field name for downstream compliance consumers.
type FieldSuggestion struct {
	ProfileField string `json:"profile_field"`
	Value        string `json:"value"`
	SourceKey    string `json:"source_key"`
}
