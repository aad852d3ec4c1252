package schedule

import (
	"strings"
	"time"
)

// DueDateLayout is the day/month/year format the schedules use.
const DueDateLayout = "02/01/2006"

// Normalize builds a table over the union of keys observed across records,
// in first-seen order. Rows keep the payload's order; a record missing a key
// simply has no cell for that column.
//
// The first date-like column gets a best-effort typing pass: values that
// parse as day/month/year are reformatted to the canonical DD/MM/YYYY text,
// anything else is left untouched. No numeric coercion happens here; that
// is the aggregator's job, scoped to the fields it actually sums.
func Normalize(records []Record) *Table {
	t := &Table{Rows: make([]Record, 0, len(records))}

	seen := make(map[string]struct{})
	for _, r := range records {
		for _, k := range r.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, r.clone())
	}

	if col, ok := t.DateColumn(); ok {
		for i := range t.Rows {
			v, ok := t.Rows[i].Get(col)
			if !ok || v == "" {
				continue
			}
			if d, err := time.Parse(DueDateLayout, strings.TrimSpace(v)); err == nil {
				t.Rows[i].Set(col, d.Format(DueDateLayout))
			}
		}
	}
	return t
}
