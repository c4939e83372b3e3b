package builtins

import (
	"fmt"
	"math"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// mathBuiltins mirrors the teacher's "math" module exports (sqrt/sin/cos;
// there is no random) plus the arithmetic helpers a table-free scripting language
// needs for everyday numeric work (abs/floor/ceil/round/pow/min/max).
func mathBuiltins() map[string]*value.Function {
	return map[string]*value.Function{
		"sqrt":  native("sqrt", 1, unaryMath(math.Sqrt)),
		"sin":   native("sin", 1, unaryMath(math.Sin)),
		"cos":   native("cos", 1, unaryMath(math.Cos)),
		"abs":   native("abs", 1, unaryMath(math.Abs)),
		"floor": native("floor", 1, unaryMath(math.Floor)),
		"ceil":  native("ceil", 1, unaryMath(math.Ceil)),
		"round": native("round", 1, unaryMath(math.Round)),
		"pow": native("pow", 2, func(args []value.Value) (value.Value, error) {
			base, err := numberArg("pow", args, 0)
			if err != nil {
				return value.Value{}, err
			}
			exp, err := numberArg("pow", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			return value.Number(math.Pow(base, exp)), nil
		}),
		"min": native("min", -1, reduceNumbers("min", math.Min, math.Inf(1))),
		"max": native("max", -1, reduceNumbers("max", math.Max, math.Inf(-1))),
	}
}

func unaryMath(fn func(float64) float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		n, err := numberArg("", args, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Number(fn(n)), nil
	}
}

func reduceNumbers(name string, fn func(a, b float64) float64, seed float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Value{}, fmt.Errorf("%s expects at least 1 argument", name)
		}
		acc := seed
		for i, a := range args {
			if a.Kind != value.KindNumber {
				return value.Value{}, fmt.Errorf("%s argument %d: expected number, got %s", name, i, a.TypeName())
			}
			acc = fn(acc, a.Num)
		}
		return value.Number(acc), nil
	}
}

func numberArg(fnName string, args []value.Value, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%s: missing argument %d", fnName, i)
	}
	if args[i].Kind != value.KindNumber {
		return 0, fmt.Errorf("%s: argument %d: expected number, got %s", fnName, i, args[i].TypeName())
	}
	return args[i].Num, nil
}
