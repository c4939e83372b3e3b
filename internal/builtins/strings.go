package builtins

import (
	"fmt"
	"strings"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// stringBuiltins mirrors the teacher's "string" module (upper/lower/
// contains/split/join) plus trim and a generic len that also covers
// Array/Object/Table (spec's container-length convention).
func stringBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"upper": native("upper", 1, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("upper", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.String(strings.ToUpper(s)), nil
		}),
		"lower": native("lower", 1, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("lower", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.String(strings.ToLower(s)), nil
		}),
		"trim": native("trim", 1, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("trim", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			return value.String(strings.TrimSpace(s)), nil
		}),
		"contains": native("contains", 2, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("contains", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			sub, err := stringArg("contains", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Bool(strings.Contains(s, sub)), nil
		}),
		"split": native("split", 2, func(args []value.Value) (value.Value, error) {
			s, err := stringArg("split", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			sep, err := stringArg("split", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			parts := strings.Split(s, sep)
			elems := make([]value.Value, len(parts))
			for i, p := range parts {
				elems[i] = value.String(p)
			}
			return value.FromArray(value.NewArray(elems)), nil
		}),
		"join": native("join", 2, func(args []value.Value) (value.Value, error) {
			if args[0].Kind != value.KindArray {
				return value.Value{}, fmt.Errorf("join: expected array, got %s", args[0].TypeName())
			}
			sep, err := stringArg("join", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			parts := make([]string, len(args[0].Arr.Elements))
			for i, e := range args[0].Arr.Elements {
				parts[i] = e.String()
			}
			return value.String(strings.Join(parts, sep)), nil
		}),
		"len": native("len", 1, func(args []value.Value) (value.Value, error) {
			switch args[0].Kind {
			case value.KindString, value.KindPath, value.KindCurrency:
				return value.Number(float64(len([]rune(args[0].Str)))), nil
			case value.KindArray:
				return value.Number(float64(len(args[0].Arr.Elements))), nil
			case value.KindObject:
				return value.Number(float64(args[0].Obj.Len())), nil
			case value.KindTable:
				return value.Number(float64(args[0].Tbl.NumRows())), nil
			default:
				return value.Value{}, fmt.Errorf("len: unsupported type %s", args[0].TypeName())
			}
		}),
		"str": native("str", 1, func(args []value.Value) (value.Value, error) {
			return value.String(args[0].String()), nil
		}),
	}
}

func stringArg(fnName string, args []value.Value, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: missing argument %d", fnName, i)
	}
	if args[i].Kind != value.KindString && args[i].Kind != value.KindPath && args[i].Kind != value.KindCurrency {
		return "", fmt.Errorf("%s: argument %d: expected string, got %s", fnName, i, args[i].TypeName())
	}
	return args[i].Str, nil
}
