package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/adewale-k/compliance-docs/internal/common"
	"github.com/adewale-k/compliance-docs/internal/entity"
)

// ProfileRow is one parsed line of a bulk profile import.
type ProfileRow struct {
	LegalName    string `json:"legal_name"`
	OwnerName    string `json:"owner_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	CertifiedOn  string `json:"certified_on"`
	DocumentType string `json:"document_type,omitempty"`
}

// RowCreator performs the network create for one validated row and
// returns the created record's id.
type RowCreator func(ctx context.Context, row ProfileRow) (string, error)

// buildRowSchema returns the draft 2020-12 schema every row must satisfy
// before any network operation is attempted for it.
func buildRowSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"legal_name":    map[string]any{"type": "string", "minLength": 1},
			"owner_name":    map[string]any{"type": "string", "minLength": 1},
			"address":       map[string]any{"type": "string", "minLength": 1},
			"city":          map[string]any{"type": "string", "minLength": 1},
			"state":         map[string]any{"type": "string", "pattern": `^[A-Z]{2}$`},
			"zip":           map[string]any{"type": "string", "pattern": `^\d{5}(-\d{4})?$`},
			"certified_on":  map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"document_type": map[string]any{"type": "string"},
		},
		"required": []string{"legal_name", "owner_name", "address", "city", "state", "zip", "certified_on"},
	}
}

// validateRow validates the row against buildRowSchema.
func validateRow(row ProfileRow) error {
	schemaMap := buildRowSchema()
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("row.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("row.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal row: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return common.NewValidationError("row", row.LegalName, err.Error())
	}
	return nil
}

// ParseProfileCSV reads a headered CSV into rows. Column order is free;
// unknown columns are ignored.
func ParseProfileCSV(r io.Reader) ([]ProfileRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// ragged rows surface as per-row validation failures, not a parse abort
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []ProfileRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		rows = append(rows, ProfileRow{
			LegalName:    get(rec, "legal_name"),
			OwnerName:    get(rec, "owner_name"),
			Address:      get(rec, "address"),
			City:         get(rec, "city"),
			State:        get(rec, "state"),
			Zip:          get(rec, "zip"),
			CertifiedOn:  get(rec, "certified_on"),
			DocumentType: get(rec, "document_type"),
		})
	}
	return rows, nil
}

// RunBulkImport validates each row, then fans the valid ones out to the
// creator. Rows failing validation land in Failed without ever reaching
// the network.
func (c *Coordinator) RunBulkImport(ctx context.Context, rows []ProfileRow, create RowCreator) entity.BatchResult {
	return c.Run(ctx, len(rows), func(ctx context.Context, idx int) (string, any, error) {
		row := rows[idx]
		if err := validateRow(row); err != nil {
			return row.LegalName, nil, err
		}
		id, err := create(ctx, row)
		return row.LegalName, id, err
	})
}

// ImportCSV is the end-to-end bulk variant: parse, validate, create.
func (c *Coordinator) ImportCSV(ctx context.Context, r io.Reader, create RowCreator) (entity.BatchResult, error) {
	rows, err := ParseProfileCSV(r)
	if err != nil {
		return entity.BatchResult{}, err
	}
	return c.RunBulkImport(ctx, rows, create), nil
}
