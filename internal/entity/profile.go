package entity

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents a compliance profile for data transfer between
// layers. Approved review decisions feed its fields via auto-populate
// suggestions; percentage/eligibility arithmetic lives downstream.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	LegalName  string    `json:"legal_name"`
	OwnerName  *string   `json:"owner_name,omitempty"`
	Address    *string   `json:"address,omitempty"`
	CertNumber *string   `json:"cert_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
