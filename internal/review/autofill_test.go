package review

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adewale-k/compliance-docs/constants"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

func TestSuggestMatchesByNormalizedKey(t *testing.T) {
	a := DefaultAutofill()

	suggestions := a.Suggest(constants.Certification, []entity.ExtractedField{
		{Key: "Certificate Number", Value: "C-4471"},
		{Key: "Business Name", Value: "Acme Holdings LLC"},
		{Key: "Issue Date", Value: "2024-05-02"}, // unmapped
	})

	require.Len(t, suggestions, 2)
	assert.Equal(t, "cert_number", suggestions[0].ProfileField)
	assert.Equal(t, "C-4471", suggestions[0].Value)
	assert.Equal(t, "Certificate Number", suggestions[0].SourceKey)
	assert.Equal(t, "legal_name", suggestions[1].ProfileField)
}

func TestSuggestUnknownDocumentTypeIsNoOp(t *testing.T) {
	a := DefaultAutofill()

	fields := []entity.ExtractedField{{Key: "Business Name", Value: "Acme"}}
	assert.Nil(t, a.Suggest(constants.TaxFiling, fields))
	assert.Nil(t, a.Suggest(constants.Unknown, fields))
}

func TestLoadAutofill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autofill.yaml")
	content := "Certification:\n  registration_id: cert_number\nownership:\n  holder: owner_name\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	a, err := LoadAutofill(path)
	require.NoError(t, err)

	got := a.Suggest(constants.Certification, []entity.ExtractedField{{Key: "Registration ID", Value: "R-9"}})
	require.Len(t, got, 1)
	assert.Equal(t, "cert_number", got[0].ProfileField)

	// "ownership" canonicalizes onto the OwnershipRecord type
	got = a.Suggest(constants.OwnershipRecord, []entity.ExtractedField{{Key: "Holder", Value: "Dana"}})
	require.Len(t, got, 1)
	assert.Equal(t, "owner_name", got[0].ProfileField)
}

func TestLoadAutofillRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autofill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Wizardry:\n  spell: cert_number\n"), 0o644))

	_, err := LoadAutofill(path)
	assert.Error(t, err)
}
