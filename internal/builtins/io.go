package builtins

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// ioBuiltins covers CSV reading/writing, grounded on
// dataframe.go's ReadCSV/ToCSV (headers-as-first-row convention, stdlib
// encoding/csv). Unlike ReadCSV, read_csv tries to parse each cell as a
// number before falling back to string, since Table cells are typed
// Values rather than DataFrame's untyped interface{} Series payload.
func ioBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"read_csv": native("read_csv", 1, func(args []value.Value) (value.Value, error) {
			path, err := stringArg("read_csv", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			f, err := os.Open(path)
			if err != nil {
				return value.Value{}, err
			}
			defer f.Close()

			records, err := csv.NewReader(f).ReadAll()
			if err != nil {
				return value.Value{}, err
			}
			if len(records) == 0 {
				return value.FromTable(value.NewTable(nil)), nil
			}

			tbl := value.NewTable(records[0])
			for _, rec := range records[1:] {
				row := make([]value.Value, len(records[0]))
				for i := range row {
					if i < len(rec) {
						row[i] = cellValue(rec[i])
					} else {
						row[i] = value.Null()
					}
				}
				if err := tbl.AppendRow(row); err != nil {
					return value.Value{}, err
				}
			}
			return value.FromTable(tbl), nil
		}),
		"write_csv": native("write_csv", 2, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindTable {
				return value.Value{}, fmt.Errorf("write_csv: expected table, got %s", args[0].TypeName())
			}
			path, err := stringArg("write_csv", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			f, err := os.Create(path)
			if err != nil {
				return value.Value{}, err
			}
			defer f.Close()

			w := csv.NewWriter(f)
			defer w.Flush()

			tbl := args[0].Tbl
			if err := w.Write(tbl.ColumnNames); err != nil {
				return value.Value{}, err
			}
			for _, row := range tbl.Rows {
				rec := make([]string, len(row))
				for i, v := range row {
					rec[i] = v.String()
				}
				if err := w.Write(rec); err != nil {
					return value.Value{}, err
				}
			}
			return value.Null(), nil
		}),
	}
}

// cellValue parses a raw CSV field into a number when possible, a bool
// for the literal "true"/"false", otherwise keeps it as a string.
func cellValue(raw string) value.Value {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.Number(n)
	}
	if raw == "true" || raw == "false" {
		return value.Bool(raw == "true")
	}
	return value.String(raw)
}
