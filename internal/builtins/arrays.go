package builtins

import (
	"fmt"
	"sort"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// arrayBuiltins covers array construction/mutation (push/range) and the
// higher-order operations (map/filter/reduce) that call back into a
// DataCode function value via value.Caller — the only builtins in this
// package that need it.
func arrayBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"push": native("push", 2, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("push: expected array, got %s", args[0].TypeName())
			}
			elems := append(append([]value.Value(nil), args[0].Arr.Elements...), args[1])
			return value.FromArray(value.NewArray(elems)), nil
		}),
		"pop": native("pop", 1, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("pop: expected array, got %s", args[0].TypeName())
			}
			n := len(args[0].Arr.Elements)
			if n == 0 {
				return value.Value{}, fmt.Errorf("pop: array is empty")
			}
			return args[0].Arr.Elements[n-1], nil
		}),
		"range": native("range", -1, func(args []value.Value) (value.Value, error) {
			var start, end, step float64 = 0, 0, 1
			switch len(args) {
			case 1:
				end = args[0].Num
			case 2:
				start, end = args[0].Num, args[1].Num
			case 3:
				start, end, step = args[0].Num, args[1].Num, args[2].Num
			default:
				return value.Value{}, fmt.Errorf("range expects 1 to 3 arguments")
			}
			if step == 0 {
				return value.Value{}, fmt.Errorf("range step must not be zero")
			}
			var elems []value.Value
			if step > 0 {
				for v := start; v < end; v += step {
					elems = append(elems, value.Number(v))
				}
			} else {
				for v := start; v > end; v += step {
					elems = append(elems, value.Number(v))
				}
			}
			return value.FromArray(value.NewArray(elems)), nil
		}),
		"sort": native("sort", 1, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("sort: expected array, got %s", args[0].TypeName())
			}
			elems := append([]value.Value(nil), args[0].Arr.Elements...)
			var sortErr error
			sort.SliceStable(elems, func(i, j int) bool {
				a, b := elems[i], elems[j]
				switch {
				case a.Kind == value.KindNumber && b.Kind == value.KindNumber:
					return a.Num < b.Num
				case a.Kind == value.KindString && b.Kind == value.KindString:
					return a.Str < b.Str
				default:
					sortErr = fmt.Errorf("sort: cannot compare %s with %s", a.TypeName(), b.TypeName())
					return false
				}
			})
			if sortErr != nil {
				return value.Value{}, sortErr
			}
			return value.FromArray(value.NewArray(elems)), nil
		}),
		"map": value.NewHigherOrderNativeFunction("map", 2, func(call value.Caller, args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("map: expected array, got %s", args[0].TypeName())
			}
			out := make([]value.Value, len(args[0].Arr.Elements))
			for i, v := range args[0].Arr.Elements {
				r, err := call.CallValue(args[1], []value.Value{v})
				if err != nil {
					return value.Value{}, err
				}
				out[i] = r
			}
			return value.FromArray(value.NewArray(out)), nil
		}),
		"filter": value.NewHigherOrderNativeFunction("filter", 2, func(call value.Caller, args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("filter: expected array, got %s", args[0].TypeName())
			}
			var out []value.Value
			for _, v := range args[0].Arr.Elements {
				r, err := call.CallValue(args[1], []value.Value{v})
				if err != nil {
					return value.Value{}, err
				}
				if r.Truthy() {
					out = append(out, v)
				}
			}
			return value.FromArray(value.NewArray(out)), nil
		}),
		"reduce": value.NewHigherOrderNativeFunction("reduce", 3, func(call value.Caller, args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("reduce: expected array, got %s", args[0].TypeName())
			}
			acc := args[2]
			for _, v := range args[0].Arr.Elements {
				r, err := call.CallValue(args[1], []value.Value{acc, v})
				if err != nil {
					return value.Value{}, err
				}
				acc = r
			}
			return acc, nil
		}),
	}
}
