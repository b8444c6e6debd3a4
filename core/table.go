package core

import "github.com/pkg/errors"

// Table is a tabular snapshot as returned by the storage collaborator:
// ordered column names plus raw string cells.
// Typed row parsers live with the report aggregator.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the value at (row, column name); empty when out of range.
func (t Table) Cell(row int, col string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	i := t.ColumnIndex(col)
	if i < 0 || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// Reheader drops the first `skip` rows, promotes the next row to column
// names and keeps the remainder as data. Used for exports that bury the
// real header below a metadata block.
func (t Table) Reheader(skip int) (Table, error) {
	if skip < 0 || skip >= len(t.Rows) {
		return Table{}, errors.Errorf("reheader: need more than %d rows, have %d", skip, len(t.Rows))
	}
	cols := t.Rows[skip]
	rows := make([][]string, 0, len(t.Rows)-skip-1)
	for _, row := range t.Rows[skip+1:] {
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}, nil
}
