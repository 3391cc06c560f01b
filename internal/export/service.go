package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/secondview/labextract/internal/store"
)

// Service produces XLSX bytes for run reports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// RunReportXLSX returns an XLSX workbook for one processing run: a
// header row plus one row per extracted biomarker.
func (s *Service) RunReportXLSX(run *store.Run) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Biomarkers"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Biomarker",
		"Value",
		"Unit",
		"Normal Range",
		"Category",
		"Match Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, b := range run.Biomarkers {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, b.DisplayName)
		write(2, b.Value)
		write(3, b.Unit)
		write(4, fmt.Sprintf("%v - %v", b.NormalRangeMin, b.NormalRangeMax))
		write(5, b.Category)
		write(6, b.Confidence)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 28) // name
	_ = f.SetColWidth(sheet, "B", "C", 12) // value, unit
	_ = f.SetColWidth(sheet, "D", "D", 16) // range
	_ = f.SetColWidth(sheet, "E", "E", 24) // category
	_ = f.SetColWidth(sheet, "F", "F", 18) // confidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"run_id", run.ID,
		"rows", len(run.Biomarkers),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
