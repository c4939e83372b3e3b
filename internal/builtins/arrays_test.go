package builtins

import (
	"errors"
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// fakeCaller stands in for the VM in tests: it applies a plain Go function
// to the arguments instead of dispatching into a DataCode closure, since
// higher-order builtins only depend on the value.Caller interface.
type fakeCaller struct {
	apply func(args []value.Value) (value.Value, error)
}

func (c fakeCaller) CallValue(fn value.Value, args []value.Value) (value.Value, error) {
	return c.apply(args)
}

func arr(nums ...float64) value.Value {
	elems := make([]value.Value, len(nums))
	for i, n := range nums {
		elems[i] = value.Number(n)
	}
	return value.FromArray(value.NewArray(elems))
}

func TestArrayPushPop(t *testing.T) {
	a := arrayBuiltins()
	pushed := call(t, a, "push", arr(1, 2), value.Number(3))
	if got := pushed.Arr.Elements; len(got) != 3 || got[2].Num != 3 {
		t.Errorf("push result = %v", got)
	}
	popped := call(t, a, "pop", arr(1, 2, 3))
	if popped.Num != 3 {
		t.Errorf("pop = %v, want 3", popped.Num)
	}
}

func TestArrayPopEmptyErrors(t *testing.T) {
	a := arrayBuiltins()
	if _, err := a["pop"].Call([]value.Value{arr()}); err == nil {
		t.Fatal("expected error popping an empty array")
	}
}

func TestArrayRangeVariants(t *testing.T) {
	a := arrayBuiltins()
	r1 := call(t, a, "range", value.Number(3))
	if len(r1.Arr.Elements) != 3 {
		t.Errorf("range(3) = %v", r1.Arr.Elements)
	}
	r2 := call(t, a, "range", value.Number(1), value.Number(4))
	if len(r2.Arr.Elements) != 3 || r2.Arr.Elements[0].Num != 1 {
		t.Errorf("range(1,4) = %v", r2.Arr.Elements)
	}
	r3 := call(t, a, "range", value.Number(0), value.Number(10), value.Number(5))
	if len(r3.Arr.Elements) != 2 {
		t.Errorf("range(0,10,5) = %v", r3.Arr.Elements)
	}
}

func TestArrayRangeRejectsZeroStep(t *testing.T) {
	a := arrayBuiltins()
	if _, err := a["range"].Call([]value.Value{value.Number(0), value.Number(10), value.Number(0)}); err == nil {
		t.Fatal("expected error for zero step")
	}
}

func TestArraySortNumbersAndStrings(t *testing.T) {
	a := arrayBuiltins()
	sorted := call(t, a, "sort", arr(3, 1, 2))
	want := []float64{1, 2, 3}
	for i, v := range sorted.Arr.Elements {
		if v.Num != want[i] {
			t.Errorf("sort = %v", sorted.Arr.Elements)
		}
	}

	strs := value.FromArray(value.NewArray([]value.Value{value.String("b"), value.String("a")}))
	sortedStrs := call(t, a, "sort", strs)
	if sortedStrs.Arr.Elements[0].Str != "a" {
		t.Errorf("sort strings = %v", sortedStrs.Arr.Elements)
	}
}

func TestArraySortRejectsMixedKinds(t *testing.T) {
	a := arrayBuiltins()
	mixed := value.FromArray(value.NewArray([]value.Value{value.Number(1), value.String("a")}))
	if _, err := a["sort"].Call([]value.Value{mixed}); err == nil {
		t.Fatal("expected error sorting mixed kinds")
	}
}

func TestArrayMapAppliesCallbackToEachElement(t *testing.T) {
	a := arrayBuiltins()
	double := fakeCaller{apply: func(args []value.Value) (value.Value, error) {
		return value.Number(args[0].Num * 2), nil
	}}
	result, err := a["map"].CallWithCaller(double, []value.Value{arr(1, 2, 3), value.Null()})
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	want := []float64{2, 4, 6}
	for i, v := range result.Arr.Elements {
		if v.Num != want[i] {
			t.Errorf("map result = %v", result.Arr.Elements)
		}
	}
}

func TestArrayFilterKeepsTruthyElements(t *testing.T) {
	a := arrayBuiltins()
	isEven := fakeCaller{apply: func(args []value.Value) (value.Value, error) {
		return value.Bool(int(args[0].Num)%2 == 0), nil
	}}
	result, err := a["filter"].CallWithCaller(isEven, []value.Value{arr(1, 2, 3, 4), value.Null()})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(result.Arr.Elements) != 2 || result.Arr.Elements[0].Num != 2 || result.Arr.Elements[1].Num != 4 {
		t.Errorf("filter result = %v", result.Arr.Elements)
	}
}

func TestArrayReduceFoldsLeft(t *testing.T) {
	a := arrayBuiltins()
	sum := fakeCaller{apply: func(args []value.Value) (value.Value, error) {
		return value.Number(args[0].Num + args[1].Num), nil
	}}
	result, err := a["reduce"].CallWithCaller(sum, []value.Value{arr(1, 2, 3), value.Null(), value.Number(0)})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if result.Num != 6 {
		t.Errorf("reduce = %v, want 6", result.Num)
	}
}

func TestArrayMapForwardsCallbackErrorUnchanged(t *testing.T) {
	a := arrayBuiltins()
	boom := errors.New("boom")
	failing := fakeCaller{apply: func(args []value.Value) (value.Value, error) {
		return value.Value{}, boom
	}}
	_, err := a["map"].CallWithCaller(failing, []value.Value{arr(1), value.Null()})
	if err != boom {
		t.Fatalf("expected the exact callback error to propagate unchanged, got %v", err)
	}
}
