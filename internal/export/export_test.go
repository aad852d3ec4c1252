package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jmarceau/echeancier/internal/schedule"
)

func sampleTable(t *testing.T) (*schedule.Table, schedule.Summary) {
	t.Helper()
	records, err := schedule.ParseRecords(`[
		{"Date d'echeance":"01/01/2025","Interet":"100,10","Assurances":"10,00"},
		{"Date d'echeance":"01/02/2025","Interet":"99,90","Assurances":"10,00"}
	]`)
	if err != nil {
		t.Fatalf("parse sample: %v", err)
	}
	table := schedule.Normalize(records)
	return table, schedule.Aggregate(table, nil)
}

func TestWriteCSV(t *testing.T) {
	table, _ := sampleTable(t)

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if lines[0] != "Date d'echeance,Interet,Assurances" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `01/01/2025,"100,10","10,00"` {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, schedule.Normalize(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Just the (empty) header line.
	if got := strings.TrimSpace(buf.String()); got != "" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestScheduleXLSX(t *testing.T) {
	table, summary := sampleTable(t)

	data, err := ScheduleXLSX(table, summary, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("Echeancier", "A1"); v != "Date d'echeance" {
		t.Errorf("A1 = %q", v)
	}
	if v, _ := f.GetCellValue("Echeancier", "A2"); v != "01/01/2025" {
		t.Errorf("A2 = %q", v)
	}
	if v, _ := f.GetCellValue("Echeancier", "C3"); v != "10,00" {
		t.Errorf("C3 = %q", v)
	}
	// Summary block starts one blank row below the data.
	if v, _ := f.GetCellValue("Echeancier", "A5"); v != "Total assurances" {
		t.Errorf("A5 = %q", v)
	}
	if v, _ := f.GetCellValue("Echeancier", "B5"); v != "20.00" {
		t.Errorf("B5 = %q", v)
	}
}
