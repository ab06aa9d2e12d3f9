// Package table holds the flat, well-typed row table the aggregation engine
// consumes. A table is an ordered sequence of records with named fields;
// every cell is a tagged [Value] so downstream code never touches raw
// interface{} data.
//
// The package also owns CSV ingestion/export and the derived week/month
// bucket columns computed from the planned and actual on-air dates.
package table

import "slices"

// Well-known optional columns. When present they unlock derived bucket
// columns and the delay KPI summary.
const (
	ColStatus      = "Status"
	ColDelayDays   = "Delay_Days"
	ColPIC         = "PIC"
	ColDelayReason = "Delay_Reason"
	ColPlannedDate = "Planned_OnAir_Date"
	ColActualDate  = "Actual_OnAir_Date"
)

// Row is a single record. Missing fields read as null values.
type Row map[string]Value

// Get returns the value for a field, null if absent.
func (r Row) Get(field string) Value {
	return r[field]
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// JSON converts the row to its JSON-safe form.
func (r Row) JSON() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.JSON()
	}
	return out
}

// Table is an ordered collection of rows with a stable column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates a table with the given column order and no rows.
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Append adds a row. Fields not in the column list are registered so the
// column set always covers every row.
func (t *Table) Append(r Row) {
	for field := range r {
		if !slices.Contains(t.Columns, field) {
			t.Columns = append(t.Columns, field)
		}
	}
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// NumericColumns returns the columns where every non-null cell parses as a
// number. These are the candidates for sum and average aggregation.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, col := range t.Columns {
		numeric := false
		ok := true
		for _, row := range t.Rows {
			v := row.Get(col)
			if v.IsNull() {
				continue
			}
			if _, isNum := v.Number(); !isNum {
				ok = false
				break
			}
			numeric = true
		}
		if ok && numeric {
			out = append(out, col)
		}
	}
	return out
}

// AddColumn registers a column name without touching rows. Appending is a
// no-op when the column already exists.
func (t *Table) AddColumn(name string) {
	if !slices.Contains(t.Columns, name) {
		t.Columns = append(t.Columns, name)
	}
}
