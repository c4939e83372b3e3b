package builtins

import (
	"context"
	"fmt"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/relation"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/tableops"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// tableBuiltins exposes internal/tableops and internal/relation to user
// code: `describe` (parallel per-column summary statistics), `relate`
// (declare a join column pair once so `merge_tables` doesn't need it
// re-specified every call), and `merge_tables` itself (spec §9 supplement
// 9: restored from the original's merge_tables_tests.rs).
func tableBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"describe": native("describe", 1, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindTable {
				return value.Value{}, fmt.Errorf("describe: expected table, got %s", args[0].TypeName())
			}
			stats, err := tableops.Default().Describe(context.Background(), args[0].Tbl)
			if err != nil {
				return value.Value{}, err
			}
			out := value.NewObject()
			for col, s := range stats {
				row := value.NewObject()
				row.Set("count", value.Number(float64(s.Count)))
				row.Set("sum", value.Number(s.Sum))
				row.Set("mean", value.Number(s.Mean))
				row.Set("min", value.Number(s.Min))
				row.Set("max", value.Number(s.Max))
				row.Set("median", value.Number(s.Median))
				row.Set("stddev", value.Number(s.StdDev))
				out.Set(col, value.FromObject(row))
			}
			return value.FromObject(out), nil
		}),
		"relate": native("relate", 4, func(args []value.Value) (value.Value, error) {
			t1, ok1 := tableArg(args, 0)
			col1, ok2 := stringArgOK(args, 1)
			t2, ok3 := tableArg(args, 2)
			col2, ok4 := stringArgOK(args, 3)
			if !ok1 || !ok2 || !ok3 || !ok4 {
				return value.Value{}, fmt.Errorf("relate: expected (table, string, table, string)")
			}
			relation.Global().Add(t1, col1, t2, col2, "string")
			return value.Null(), nil
		}),
		"merge_tables": native("merge_tables", -1, func(args []value.Value) (value.Value, error) {
			if len(args) != 2 && len(args) != 4 {
				return value.Value{}, fmt.Errorf("merge_tables expects (left, right) or (left, leftCol, right, rightCol)")
			}
			left, ok1 := tableArg(args, 0)
			if !ok1 {
				return value.Value{}, fmt.Errorf("merge_tables: argument 0: expected table")
			}
			var right *value.Table
			var leftCol, rightCol string
			if len(args) == 2 {
				var ok2 bool
				right, ok2 = tableArg(args, 1)
				if !ok2 {
					return value.Value{}, fmt.Errorf("merge_tables: argument 1: expected table")
				}
			} else {
				var ok2, ok3, ok4 bool
				leftCol, ok2 = stringArgOK(args, 1)
				right, ok3 = tableArg(args, 2)
				rightCol, ok4 = stringArgOK(args, 3)
				if !ok2 || !ok3 || !ok4 {
					return value.Value{}, fmt.Errorf("merge_tables: expected (table, string, table, string)")
				}
			}
			out, err := tableops.Merge(left, right, leftCol, rightCol)
			if err != nil {
				return value.Value{}, err
			}
			return value.FromTable(out), nil
		}),
	}
}

func tableArg(args []value.Value, i int) (*value.Table, bool) {
	if i >= len(args) || args[i].Kind != value.KindTable {
		return nil, false
	}
	return args[i].Tbl, true
}

func stringArgOK(args []value.Value, i int) (string, bool) {
	if i >= len(args) || args[i].Kind != value.KindString {
		return "", false
	}
	return args[i].Str, true
}
