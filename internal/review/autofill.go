package review

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

// Autofill maps recognized document-type-specific keys onto profile
// field names. The mapping is data-driven per document type; an
// unrecognized type yields no suggestions rather than a guess.
type Autofill struct {
	// document type -> normalized extracted key -> profile field name
	mappings map[constants.DocumentType]map[string]string
}

// NewAutofill normalizes the extracted-key side of the mapping so lookup
// matches however the extraction service labels the field.
func NewAutofill(mappings map[constants.DocumentType]map[string]string) *Autofill {
	normalized := make(map[constants.DocumentType]map[string]string, len(mappings))
	for dt, m := range mappings {
		nm := make(map[string]string, len(m))
		for k, v := range m {
			nm[NormalizeKey(k)] = v
		}
		normalized[dt] = nm
	}
	return &Autofill{mappings: normalized}
}

// LoadAutofill reads the per-document-type mapping from a YAML file:
//
//	Certification:
//	  certificate_number: cert_number
//	  business_name: legal_name
func LoadAutofill(path string) (*Autofill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read autofill mapping: %w", err)
	}
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse autofill mapping: %w", err)
	}
	mappings := make(map[constants.DocumentType]map[string]string, len(raw))
	for dt, m := range raw {
		canonical, ok := constants.CanonicalizeDocumentType(dt)
		if !ok {
			return nil, fmt.Errorf("autofill mapping references unknown document type %q", dt)
		}
		mappings[canonical] = m
	}
	return NewAutofill(mappings), nil
}

// DefaultAutofill is the built-in mapping used when no file is
// configured.
func DefaultAutofill() *Autofill {
	return NewAutofill(map[constants.DocumentType]map[string]string{
		constants.Certification: {
			"certificate_number": "cert_number",
			"business_name":      "legal_name",
			"owner_name":         "owner_name",
		},
		constants.OwnershipRecord: {
			"company_name": "legal_name",
			"owner_name":   "owner_name",
			"address":      "address",
		},
		constants.VerificationLetter: {
			"subject_name": "owner_name",
			"address":      "address",
		},
	})
}

// Suggest maps approved fields onto profile field names. Unrecognized
// document types return nil.
func (a *Autofill) Suggest(docType constants.DocumentType, fields []entity.ExtractedField) []entity.FieldSuggestion {
	mapping, ok := a.mappings[docType]
	if !ok {
		return nil
	}
	var out []entity.FieldSuggestion
	for _, f := range fields {
		if target, ok := mapping[NormalizeKey(f.Key)]; ok {
			out = append(out, entity.FieldSuggestion{
				ProfileField: target,
				Value:        f.Value,
				SourceKey:    f.Key,
			})
		}
	}
	return out
}
