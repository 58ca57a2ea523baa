package entity

import (
	"time"

	"github.com/adewale-k/compliance-docs/constants"
)

// UploadItem represents one file's journey through the upload protocol.
// The ID is client-generated and stable across retries; ServerDocumentID
// is set if and only if Status is COMPLETE.
type UploadItem struct {
	ID               string                 `json:"id"`
	Filename         string                 `json:"filename"`
	FileExt          string                 `json:"file_ext"`
	DeclaredSize     int64                  `json:"declared_size"`
	ContentType      string                 `json:"content_type"`
	DocumentType     constants.DocumentType `json:"document_type"`
	Status           constants.UploadStatus `json:"status"`
	Progress         int                    `json:"progress"` // percent, monotonic while transferring
	ServerDocumentID string                 `json:"server_document_id,omitempty"`
	ErrorDetail      string                 `json:"error_detail,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// UploadHandle is the opaque, time-limited transfer authorization issued
// by the registration service for a single transfer.
type UploadHandle struct {
	Token     string    `json:"token"`
	ObjectKey string    `json:"object_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the handle's validity window has passed.
func (h UploadHandle) Expired(now time.Time) bool {
	return !h.ExpiresAt.IsZero() && now.After(h.ExpiresAt)
}
