package schedule

import "strings"

// Canonical column names requested from the extraction service. The model is
// not guaranteed to echo them back exactly (accents and casing drift), so
// lookups go through the synonym lists below.
const (
	ColDueDate            = "Date d'echeance"
	ColAmortization       = "amortissements"
	ColInterest           = "Interet"
	ColInsurance          = "Assurances"
	ColRemainingPrincipal = "capital restant du"
)

// KnownColumns enumerates the fields the prompt asks for, in schedule order.
var KnownColumns = []string{
	ColDueDate,
	ColAmortization,
	ColInterest,
	ColInsurance,
	ColRemainingPrincipal,
}

var columnSynonyms = map[string][]string{
	ColDueDate:            {"date d'echeance", "date d'écheance", "date d'échéance", "date echeance"},
	ColAmortization:       {"amortissements", "amortissement", "capital amorti"},
	ColInterest:           {"interet", "interets", "intérêt", "intérêts"},
	ColInsurance:          {"assurances", "assurance"},
	ColRemainingPrincipal: {"capital restant du", "capital restant dû", "capital restant"},
}

// IsKnownColumn reports whether name matches one of the canonical columns or
// a common variant of it.
func IsKnownColumn(name string) bool {
	lc := strings.ToLower(strings.TrimSpace(name))
	for _, variants := range columnSynonyms {
		for _, v := range variants {
			if lc == v {
				return true
			}
		}
	}
	return false
}

// Record is one amortization line as decoded from the payload. Keys keep
// their original spelling and their order of appearance; values keep the raw
// textual form received from the model. Typing is not guaranteed here.
type Record struct {
	keys   []string
	values map[string]string
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{values: make(map[string]string)}
}

// Set stores a field value. The first occurrence of a key fixes its position.
func (r *Record) Set(key, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the raw value for key and whether the key is present.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the record's keys in order of appearance.
func (r Record) Keys() []string {
	return r.keys
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.keys)
}

// Extra returns the keys that are not recognized canonical columns, the
// overflow bag of an irregular payload.
func (r Record) Extra() []string {
	var extra []string
	for _, k := range r.keys {
		if !IsKnownColumn(k) {
			extra = append(extra, k)
		}
	}
	return extra
}

// lookup returns the value of the first key matching one of the canonical
// column's variants.
func (r Record) lookup(canonical string) string {
	variants := columnSynonyms[canonical]
	for _, k := range r.keys {
		lc := strings.ToLower(strings.TrimSpace(k))
		for _, v := range variants {
			if lc == v {
				return r.values[k]
			}
		}
	}
	return ""
}

// DueDate returns the raw due-date text, or "" when absent.
func (r Record) DueDate() string { return r.lookup(ColDueDate) }

// Amortization returns the raw principal-amortized text, or "" when absent.
func (r Record) Amortization() string { return r.lookup(ColAmortization) }

// Interest returns the raw interest text, or "" when absent.
func (r Record) Interest() string { return r.lookup(ColInterest) }

// Insurance returns the raw insurance text, or "" when absent.
func (r Record) Insurance() string { return r.lookup(ColInsurance) }

// RemainingPrincipal returns the raw remaining-principal text, or "" when absent.
func (r Record) RemainingPrincipal() string { return r.lookup(ColRemainingPrincipal) }

func (r Record) clone() Record {
	out := Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]string, len(r.values)),
	}
	copy(out.keys, r.keys)
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Table is a row-ordered view over a set of records sharing a (possibly
// partial) column set. Row order is the order of the source payload; it is
// never re-sorted. Columns are the union of all keys observed across the
// rows, in first-seen order; a column present in only some records is kept,
// never dropped.
type Table struct {
	Columns []string
	Rows    []Record
}

// RowCount returns the number of rows; zero for an empty or nil table.
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table carries the exact column name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cell returns the value at (row, col), or "" when the row does not carry
// the column.
func (t *Table) Cell(row int, col string) string {
	if t == nil || row < 0 || row >= len(t.Rows) {
		return ""
	}
	v, _ := t.Rows[row].Get(col)
	return v
}

// Column returns all values of a column in row order, empty strings for rows
// missing the key.
func (t *Table) Column(name string) []string {
	out := make([]string, t.RowCount())
	for i := range out {
		out[i] = t.Cell(i, name)
	}
	return out
}

// ResolveColumn maps a canonical column name to the table column actually
// carrying it, tolerating the accent and casing variants models produce.
func (t *Table) ResolveColumn(canonical string) (string, bool) {
	if t == nil {
		return "", false
	}
	variants := columnSynonyms[canonical]
	for _, c := range t.Columns {
		lc := strings.ToLower(strings.TrimSpace(c))
		for _, v := range variants {
			if lc == v {
				return c, true
			}
		}
	}
	return "", false
}

// DateColumn returns the first column whose name contains "date" or
// "echeance" (case-insensitive), the heuristic both the normalizer and the
// aggregator share.
func (t *Table) DateColumn() (string, bool) {
	if t == nil {
		return "", false
	}
	for _, c := range t.Columns {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "date") || strings.Contains(lc, "echeance") {
			return c, true
		}
	}
	return "", false
}
