package constants

import (
	"strings"
)

// DocumentType is the compliance taxonomy for uploaded documents. The
// auto-populate mapping and upload metadata validation key off it.
type DocumentType string

const (
	Certification      DocumentType = "Certification"
	OwnershipRecord    DocumentType = "OwnershipRecord"
	VerificationLetter DocumentType = "VerificationLetter"
	TaxFiling          DocumentType = "TaxFiling"
	Unknown            DocumentType = "Unknown"
)

var allDocumentTypes = []DocumentType{
	Certification,
	OwnershipRecord,
	VerificationLetter,
	TaxFiling,
	Unknown,
}

func DocumentTypeStrings() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalizeDocumentType maps free-form input onto the taxonomy. The
// second return reports whether the input matched anything; Unknown with
// false means the caller guessed and we refused to.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return Unknown, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]DocumentType{
		"cert":               Certification,
		"certificate":        Certification,
		"ownership":          OwnershipRecord,
		"stock ledger":       OwnershipRecord,
		"cap table":          OwnershipRecord,
		"verification":       VerificationLetter,
		"proof of ownership": VerificationLetter,
		"tax return":         TaxFiling,
		"filing":             TaxFiling,
	}

	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == strings.ToLower(string(dt)) {
			return dt, true
		}
	}

	return Unknown, false
}
