package value

import (
	"fmt"
	"strings"
)

// Table is DataCode's shared mutable columnar container (spec §3). Many
// Value handles may reference the same Table; mutations are in-place and
// visible through every holder, grounded on original_source/common/table.rs
// (`columns: HashMap<String, Vec<Value>>`, `headers: Vec<String>`,
// `rows: Vec<Vec<Value>>`) and adapted into Go's idiom of an ordered
// column-name slice alongside the map so iteration order is deterministic.
type Table struct {
	Name        *string
	ColumnNames []string
	Rows        [][]Value
	Columns     map[string][]Value
}

func NewTable(columnNames []string) *Table {
	cols := make(map[string][]Value, len(columnNames))
	for _, c := range columnNames {
		cols[c] = []Value{}
	}
	return &Table{
		ColumnNames: append([]string(nil), columnNames...),
		Rows:        [][]Value{},
		Columns:     cols,
	}
}

func (t *Table) SetName(name string) { t.Name = &name }

func (t *Table) NumRows() int { return len(t.Rows) }
func (t *Table) NumCols() int { return len(t.ColumnNames) }

// AppendRow appends a row and keeps the column projection consistent.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.ColumnNames) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.ColumnNames))
	}
	t.Rows = append(t.Rows, row)
	for i, name := range t.ColumnNames {
		t.Columns[name] = append(t.Columns[name], row[i])
	}
	return nil
}

func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.ColumnNames {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the cell at (row, column name).
func (t *Table) Get(row int, column string) (Value, bool) {
	if row < 0 || row >= len(t.Rows) {
		return Null(), false
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return Null(), false
	}
	return t.Rows[row][idx], true
}

// Set mutates the cell at (row, column name) in place, keeping the column
// projection consistent — visible to every handle sharing this Table.
func (t *Table) Set(row int, column string, v Value) error {
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("row index %d out of range", row)
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return fmt.Errorf("unknown column %q", column)
	}
	t.Rows[row][idx] = v
	t.Columns[column][row] = v
	return nil
}

func (t *Table) String() string {
	name := ""
	if t.Name != nil {
		name = " " + *t.Name
	}
	return fmt.Sprintf("<table%s %dx%d [%s]>", name, len(t.Rows), len(t.ColumnNames), strings.Join(t.ColumnNames, ", "))
}
