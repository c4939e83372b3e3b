package vm

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/errors"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// iterState is the opaque iterator spec §4.4's IterStart pushes — held on
// a VM-side stack rather than the value stack, since value.Value has no
// iterator variant. Grounded on spec §4.4's iteration contract: Array,
// Object, Table, String and numeric ranges are all iterable, Object
// iteration always walks ascending sorted keys.
type iterState struct {
	idx int
	n   int

	arr    []value.Value // Array, String (one entry per rune, pre-split)
	keys   []string      // Object
	obj    *value.Object
	table  *value.Table

	isRange  bool
	rangeCur float64
	rangeEnd float64
	step     float64
}

func newIterator(v value.Value, line int) (*iterState, *errors.Error) {
	switch v.Kind {
	case value.KindArray:
		return &iterState{arr: v.Arr.Elements, n: len(v.Arr.Elements)}, nil
	case value.KindObject:
		keys := v.Obj.Keys()
		return &iterState{keys: keys, obj: v.Obj, n: len(keys)}, nil
	case value.KindTable:
		return &iterState{table: v.Tbl, n: v.Tbl.NumRows()}, nil
	case value.KindString:
		runes := []rune(v.Str)
		elems := make([]value.Value, len(runes))
		for i, r := range runes {
			elems[i] = value.String(string(r))
		}
		return &iterState{arr: elems, n: len(elems)}, nil
	default:
		return nil, errors.NewTypeError("Array, Object, Table, String or range", v.TypeName(), line)
	}
}

// newRangeIterator builds a lazily stepped numeric range iterator (spec §9
// edge case: `range(n)` empty for n==0, negative step allowed, zero step
// is a runtime error). Nothing in the VM calls it: the `range(...)`
// built-in returns an Array, which newIterator handles.
func newRangeIterator(start, end, step float64, line int) (*iterState, *errors.Error) {
	if step == 0 {
		return nil, errors.NewRuntimeError("range step must not be zero", line)
	}
	n := 0
	if step > 0 {
		for v := start; v < end; v += step {
			n++
		}
	} else {
		for v := start; v > end; v += step {
			n++
		}
	}
	return &iterState{isRange: true, rangeCur: start, rangeEnd: end, step: step, n: n}, nil
}

func (it *iterState) done() bool { return it.idx >= it.n }

// single returns the value a one-variable `for` binds: the element itself
// for Array/String/range, the row as a column->value Object for Table, and
// a [key, value] pair for Object (spec supplement: single-bind Object
// iteration yields a 2-element array).
func (it *iterState) single() value.Value {
	switch {
	case it.isRange:
		v := it.rangeCur
		it.rangeCur += it.step
		it.idx++
		return value.Number(v)
	case it.obj != nil:
		k := it.keys[it.idx]
		v, _ := it.obj.Get(k)
		it.idx++
		return value.FromArray(value.NewArray([]value.Value{value.String(k), v}))
	case it.table != nil:
		row := it.rowObject(it.idx)
		it.idx++
		return row
	default:
		v := it.arr[it.idx]
		it.idx++
		return v
	}
}

// kv returns (key, value) for a two-variable `for`.
func (it *iterState) kv() (value.Value, value.Value) {
	switch {
	case it.isRange:
		idx := it.idx
		v := it.rangeCur
		it.rangeCur += it.step
		it.idx++
		return value.Number(float64(idx)), value.Number(v)
	case it.obj != nil:
		k := it.keys[it.idx]
		v, _ := it.obj.Get(k)
		it.idx++
		return value.String(k), v
	case it.table != nil:
		idx := it.idx
		row := it.rowObject(it.idx)
		it.idx++
		return value.Number(float64(idx)), row
	default:
		idx := it.idx
		v := it.arr[it.idx]
		it.idx++
		return value.Number(float64(idx)), v
	}
}

func (it *iterState) rowObject(row int) value.Value {
	obj := value.NewObject()
	for _, col := range it.table.ColumnNames {
		v, _ := it.table.Get(row, col)
		obj.Set(col, v)
	}
	return value.FromObject(obj)
}
