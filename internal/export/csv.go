package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jmarceau/echeancier/internal/schedule"
)

// WriteCSV streams the table as delimited text: one header row in table
// column order, then one row per record. Cells are written as-is.
func WriteCSV(w io.Writer, t *schedule.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	row := make([]string, len(t.Columns))
	for r := 0; r < t.RowCount(); r++ {
		for c, col := range t.Columns {
			row[c] = t.Cell(r, col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ScheduleCSV renders the table as CSV bytes.
func ScheduleCSV(t *schedule.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
