package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/adewale-k/compliance-docs/constants"
)

// ExtractedField is one recognized key/value pair with the extraction
// service's self-reported confidence in [0,100]. Duplicate logical keys
// may occur; the review layer dedupes for presentation but keeps every
// raw detection for audit.
type ExtractedField struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page,omitempty"`
}

// ExtractionResult is the field set delivered by a terminal extraction.
type ExtractionResult struct {
	Fields  []ExtractedField `json:"fields"`
	RawText string           `json:"raw_text,omitempty"`
}

// ExtractJob represents one polling cycle over one stored document.
type ExtractJob struct {
	ID               uuid.UUID          `json:"id"`
	RemoteJobID      string             `json:"remote_job_id"`
	ServerDocumentID string             `json:"server_document_id"`
	State            constants.JobState `json:"state"`
	AttemptCount     int                `json:"attempt_count"`
	MaxAttempts      int                `json:"max_attempts"`
	Interval         time.Duration      `json:"interval"`
	Result           *ExtractionResult  `json:"result,omitempty"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	StartedAt        time.Time          `json:"started_at"`
	FinishedAt       *time.Time         `json:"finished_at,omitempty"`
}
