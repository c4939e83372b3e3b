package value

import "github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"

// Function is DataCode's callable value (spec §3). Most Functions wrap an
// immutable bytecode.FunctionProto plus, for memoized functions, a shared
// MemoCache reached via a pointer — copying a Function value (assigning
// it, passing it around) shares the same cache, exactly as spec §9
// requires. Each load of the proto constant builds a new Function, and
// with it a new cache. A Function may
// instead wrap a native Go implementation (see NewNativeFunction) — the
// mechanism internal/builtins registers math/string/table/... built-ins
// under, grounded on the teacher's NativeFunction{Name, Arity, Function}
// convention (internal/vm/vm.go's registerBuiltins).
type Function struct {
	Proto *bytecode.FunctionProto
	Cache *MemoCache // nil unless Proto.IsCached

	native *nativeFunc // nil for compiled (Proto-backed) functions
}

type nativeFunc struct {
	name  string
	arity int // -1 means variadic; any positional count is accepted
	fn    func(args []Value) (Value, error)
	callerFn func(call Caller, args []Value) (Value, error) // set instead of fn for higher-order builtins
}

// Caller lets a higher-order native builtin (map/filter/reduce, ...) call
// back into a DataCode function value. Implemented by *vm.VM; kept as an
// interface here so internal/value has no dependency on internal/vm.
type Caller interface {
	CallValue(fn Value, args []Value) (Value, error)
}

// NewFunction wraps a compiled proto, allocating a cache if it is memoized.
func NewFunction(proto *bytecode.FunctionProto) *Function {
	f := &Function{Proto: proto}
	if proto.IsCached {
		f.Cache = NewMemoCache()
	}
	return f
}

// NewNativeFunction wraps a Go implementation as a callable Value. arity of
// -1 marks it variadic (no positional-count check at call time).
func NewNativeFunction(name string, arity int, fn func(args []Value) (Value, error)) *Function {
	return &Function{native: &nativeFunc{name: name, arity: arity, fn: fn}}
}

// NewHigherOrderNativeFunction wraps a Go implementation that itself needs
// to call back into DataCode code (map/filter/reduce, ...), given a Caller.
func NewHigherOrderNativeFunction(name string, arity int, fn func(call Caller, args []Value) (Value, error)) *Function {
	return &Function{native: &nativeFunc{name: name, arity: arity, callerFn: fn}}
}

func (f *Function) IsNative() bool { return f.native != nil }

// IsHigherOrder reports whether this native needs a Caller to run.
func (f *Function) IsHigherOrder() bool { return f.native != nil && f.native.callerFn != nil }

// CallWithCaller invokes a higher-order native, giving it call as its
// means of invoking DataCode function-value arguments.
func (f *Function) CallWithCaller(call Caller, args []Value) (Value, error) {
	return f.native.callerFn(call, args)
}

func (f *Function) Name() string {
	if f.native != nil {
		return f.native.name
	}
	return f.Proto.Name
}

func (f *Function) Arity() int {
	if f.native != nil {
		return f.native.arity
	}
	return f.Proto.Arity
}

func (f *Function) ParamNames() []string {
	if f.native != nil {
		return nil
	}
	return f.Proto.ParamNames
}

func (f *Function) Chunk() *bytecode.Chunk {
	if f.native != nil {
		return nil
	}
	return f.Proto.Chunk
}

func (f *Function) IsCached() bool {
	return f.native == nil && f.Proto.IsCached
}

// Call invokes a native function directly. It panics if called on a
// Proto-backed Function — those run through the VM's frame machinery
// instead.
func (f *Function) Call(args []Value) (Value, error) {
	return f.native.fn(args)
}
