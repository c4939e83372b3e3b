package builtins

import (
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

func TestStringUpperLowerTrim(t *testing.T) {
	s := stringBuiltins()
	if got := call(t, s, "upper", value.String("abc")).Str; got != "ABC" {
		t.Errorf("upper = %q", got)
	}
	if got := call(t, s, "lower", value.String("ABC")).Str; got != "abc" {
		t.Errorf("lower = %q", got)
	}
	if got := call(t, s, "trim", value.String("  hi  ")).Str; got != "hi" {
		t.Errorf("trim = %q", got)
	}
}

func TestStringContainsSplitJoin(t *testing.T) {
	s := stringBuiltins()
	if got := call(t, s, "contains", value.String("hello"), value.String("ell")).Bool; !got {
		t.Error("contains should be true")
	}
	arr := call(t, s, "split", value.String("a,b,c"), value.String(","))
	if len(arr.Arr.Elements) != 3 || arr.Arr.Elements[1].Str != "b" {
		t.Errorf("split = %v", arr.Arr.Elements)
	}
	joined := call(t, s, "join", arr, value.String("-"))
	if joined.Str != "a-b-c" {
		t.Errorf("join = %q", joined.Str)
	}
}

func TestStringLenAcrossKinds(t *testing.T) {
	s := stringBuiltins()
	if got := call(t, s, "len", value.String("hello")).Num; got != 5 {
		t.Errorf("len(string) = %v", got)
	}
	arr := value.FromArray(value.NewArray([]value.Value{value.Number(1), value.Number(2)}))
	if got := call(t, s, "len", arr).Num; got != 2 {
		t.Errorf("len(array) = %v", got)
	}
	obj := value.NewObject()
	obj.Set("a", value.Number(1))
	if got := call(t, s, "len", value.FromObject(obj)).Num; got != 1 {
		t.Errorf("len(object) = %v", got)
	}
}

func TestStringLenRejectsUnsupportedType(t *testing.T) {
	s := stringBuiltins()
	if _, err := s["len"].Call([]value.Value{value.Number(1)}); err == nil {
		t.Fatal("expected error for len(number)")
	}
}

func TestStringStrFormatsNumber(t *testing.T) {
	s := stringBuiltins()
	if got := call(t, s, "str", value.Number(42)).Str; got != "42" {
		t.Errorf("str(42) = %q", got)
	}
}
