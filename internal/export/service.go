package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/adewale-k/compliance-docs/internal/repository"
)

// Service is a tiny façade over the decision repository that produces
// XLSX bytes for compliance hand-off.
type Service struct {
	decisions repository.DecisionRepository
	logger    *slog.Logger
}

func NewService(decisions repository.DecisionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{decisions: decisions, logger: logger}
}

// ExportDecisionsXLSX returns an XLSX workbook (as bytes) for review
// decisions in a date window.
// If only from is provided -> from..today (inclusive).
// If neither is provided   -> all decisions.
func (s *Service) ExportDecisionsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC)
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	decs, err := s.decisions.ListDecisions(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Decisions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Decided At",
		"Decision",
		"Document Type",
		"Job ID",
		"Fields",
		"Reject Reason",
		"Override Used",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range decs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		outcome := "REJECTED"
		if d.Approved {
			outcome = "APPROVED"
		}

		write(1, d.DecidedAt.Format("2006-01-02 15:04:05"))
		write(2, outcome)
		write(3, string(d.DocumentType))
		write(4, d.JobID.String())
		write(5, len(d.Fields))
		write(6, d.RejectReason)
		write(7, d.Override)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 20)
	_ = f.SetColWidth(sheet, "C", "C", 18)
	_ = f.SetColWidth(sheet, "D", "D", 38)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("decisions exported", "count", len(decs), "elapsed", time.Since(start))
	return buf.Bytes(), nil
}
