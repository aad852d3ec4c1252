package schedule

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Markers reported in Summary.FirstDueDate when no date could be derived.
const (
	FirstDueDateNotFound = "Non trouvé"
	FirstDueDateError    = "Erreur"
)

// Summary is a read-only snapshot of metrics derived from a schedule table.
// It is recomputed on demand and never mutated.
type Summary struct {
	TotalInsurance float64 `json:"total_assurances"`
	TotalInterest  float64 `json:"total_interets"`
	FirstDueDate   string  `json:"premiere_echeance"`
	RowCount       int     `json:"nombre_echeances"`
}

// amountResult is the tagged outcome of a single numeric coercion. The
// public contract only exposes the summed values, but keeping the
// defaulted/reason pair makes the silent-zero policy testable on its own.
type amountResult struct {
	value     float64
	defaulted bool
	reason    string
}

var amountCleaner = strings.NewReplacer(",", ".", " ", "", " ", "", "€", "")

// coerceAmount cleans a currency cell (comma decimal separator, grouping
// spaces, euro sign) and parses it as a float. Unparseable input defaults to
// zero with the reason retained.
func coerceAmount(s string) amountResult {
	cleaned := amountCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return amountResult{defaulted: true, reason: "empty value"}
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return amountResult{defaulted: true, reason: err.Error()}
	}
	return amountResult{value: f}
}

// Aggregate derives summary statistics from a table. It never returns an
// error: per-value coercion failures contribute zero, a missing column
// yields a zero total, a missing date-like column yields the "Non trouvé"
// marker, and an unexpected internal failure yields an all-zero summary
// marked "Erreur" with the reason only surfaced through the logger.
func Aggregate(t *Table, logger *slog.Logger) (s Summary) {
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("schedule.stats.failed", "panic", r)
			s = Summary{FirstDueDate: FirstDueDateError}
		}
	}()

	s.TotalInsurance = sumColumn(t, ColInsurance, logger)
	s.TotalInterest = sumColumn(t, ColInterest, logger)
	s.FirstDueDate = firstDueDate(t)
	s.RowCount = t.RowCount()
	return s
}

func sumColumn(t *Table, canonical string, logger *slog.Logger) float64 {
	col, ok := t.ResolveColumn(canonical)
	if !ok {
		return 0
	}
	var total float64
	for i := 0; i < t.RowCount(); i++ {
		res := coerceAmount(t.Cell(i, col))
		if res.defaulted {
			logger.Debug("schedule.stats.value_defaulted",
				"column", col, "row", i, "reason", res.reason)
			continue
		}
		total += res.value
	}
	return total
}

// firstDueDate finds the first date-like column and returns the earliest
// DD/MM/YYYY value in it. When no value parses, the literal text of the
// first row wins; when no date-like column exists, the "Non trouvé" marker.
func firstDueDate(t *Table) string {
	col, ok := t.DateColumn()
	if !ok {
		return FirstDueDateNotFound
	}
	if t.RowCount() == 0 {
		return FirstDueDateNotFound
	}

	var earliest time.Time
	found := false
	for i := 0; i < t.RowCount(); i++ {
		d, err := time.Parse(DueDateLayout, strings.TrimSpace(t.Cell(i, col)))
		if err != nil {
			continue
		}
		if !found || d.Before(earliest) {
			earliest = d
			found = true
		}
	}
	if found {
		return earliest.Format(DueDateLayout)
	}
	return t.Cell(0, col)
}
