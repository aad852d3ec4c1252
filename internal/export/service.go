// Package export turns a normalized schedule table into the formats users
// download: a CSV pass-through and an XLSX workbook with a summary block.
// Writers are pass-through collaborators: they only need the table to be
// rows of named scalar fields and never reinterpret cell values.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jmarceau/echeancier/internal/schedule"
)

const sheetName = "Echeancier"

// ScheduleXLSX renders the table and its summary as an XLSX workbook.
func ScheduleXLSX(t *schedule.Table, summary schedule.Summary, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheetName, cell, v)
	}

	for i, h := range t.Columns {
		write(i+1, 1, h)
	}
	for r := 0; r < t.RowCount(); r++ {
		for c, col := range t.Columns {
			write(c+1, r+2, t.Cell(r, col))
		}
	}

	// Summary block below the table, one blank row in between.
	base := t.RowCount() + 3
	write(1, base, "Total assurances")
	write(2, base, fmt.Sprintf("%.2f", summary.TotalInsurance))
	write(1, base+1, "Total intérêts")
	write(2, base+1, fmt.Sprintf("%.2f", summary.TotalInterest))
	write(1, base+2, "Première échéance")
	write(2, base+2, summary.FirstDueDate)
	write(1, base+3, "Nombre d'échéances")
	write(2, base+3, summary.RowCount)

	if len(t.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Columns))
		_ = f.SetColWidth(sheetName, "A", last, 20)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", t.RowCount(),
		"columns", len(t.Columns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
