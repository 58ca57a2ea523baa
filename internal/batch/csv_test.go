package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importHeader = "legal_name,owner_name,address,city,state,zip,certified_on\n"

func TestParseProfileCSV(t *testing.T) {
	in := "owner_name,legal_name,address,city,state,zip,certified_on,notes\n" +
		"Dana Reyes, Acme Holdings LLC ,1 Main St,Austin,TX,73301,2024-05-02,ignored\n"

	rows, err := ParseProfileCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// column order is free, unknown columns drop, values trim
	assert.Equal(t, "Acme Holdings LLC", rows[0].LegalName)
	assert.Equal(t, "Dana Reyes", rows[0].OwnerName)
	assert.Equal(t, "TX", rows[0].State)
	assert.Equal(t, "73301", rows[0].Zip)
}

func TestParseProfileCSVMissingHeader(t *testing.T) {
	_, err := ParseProfileCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestValidateRow(t *testing.T) {
	valid := ProfileRow{
		LegalName:   "Acme Holdings LLC",
		OwnerName:   "Dana Reyes",
		Address:     "1 Main St",
		City:        "Austin",
		State:       "TX",
		Zip:         "73301",
		CertifiedOn: "2024-05-02",
	}

	tests := []struct {
		name   string
		mutate func(*ProfileRow)
		ok     bool
	}{
		{"valid", func(r *ProfileRow) {}, true},
		{"zip+4", func(r *ProfileRow) { r.Zip = "73301-1234" }, true},
		{"bad zip", func(r *ProfileRow) { r.Zip = "7330" }, false},
		{"lowercase state", func(r *ProfileRow) { r.State = "tx" }, false},
		{"bad date", func(r *ProfileRow) { r.CertifiedOn = "05/02/2024" }, false},
		{"empty legal name", func(r *ProfileRow) { r.LegalName = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := valid
			tt.mutate(&row)
			err := validateRow(row)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestImportCSVInvalidRowNeverReachesCreator(t *testing.T) {
	var in strings.Builder
	in.WriteString(importHeader)
	for i := 1; i <= 5; i++ {
		zip := "73301"
		if i == 3 {
			zip = "ABCDE"
		}
		fmt.Fprintf(&in, "Company %d,Owner %d,%d Main St,Austin,TX,%s,2024-05-02\n", i, i, i, zip)
	}

	var mu sync.Mutex
	created := make(map[string]bool)
	c := NewCoordinator(nil, WithConcurrency(2))
	result, err := c.ImportCSV(context.Background(), strings.NewReader(in.String()), func(ctx context.Context, row ProfileRow) (string, error) {
		mu.Lock()
		created[row.LegalName] = true
		mu.Unlock()
		return "prof-" + row.LegalName, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 2, result.Failed[0].Index)
	assert.Equal(t, "Company 3", result.Failed[0].Key)
	assert.Len(t, result.Succeeded, 4)

	assert.False(t, created["Company 3"], "invalid rows must be rejected before the network call")
	assert.Len(t, created, 4)
}

func TestImportCSVRaggedRowFailsAlone(t *testing.T) {
	in := importHeader +
		"Acme,Dana,1 Main St,Austin,TX,73301,2024-05-02\n" +
		"Globex,Sam\n" +
		"Initech,Pat,3 Elm Rd,Houston,TX,77002,2024-07-15\n"

	c := NewCoordinator(nil)
	result, err := c.ImportCSV(context.Background(), strings.NewReader(in), func(ctx context.Context, row ProfileRow) (string, error) {
		return "prof-" + row.LegalName, nil
	})
	require.NoError(t, err, "a short row must not abort the whole import")

	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
	assert.Equal(t, "Globex", result.Failed[0].Key)
}

func TestImportCSVCreatorFailureIsPerRow(t *testing.T) {
	in := importHeader +
		"Acme,Dana,1 Main St,Austin,TX,73301,2024-05-02\n" +
		"Globex,Sam,2 Oak Ave,Dallas,TX,75201,2024-06-10\n"

	c := NewCoordinator(nil)
	result, err := c.ImportCSV(context.Background(), strings.NewReader(in), func(ctx context.Context, row ProfileRow) (string, error) {
		if row.LegalName == "Globex" {
			return "", fmt.Errorf("duplicate profile")
		}
		return "prof-1", nil
	})
	require.NoError(t, err)

	assert.Len(t, result.Succeeded, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "Globex", result.Failed[0].Key)
	assert.Contains(t, result.Failed[0].Reason, "duplicate profile")
}
