package vm

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/errors"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// execCall implements OpCall/OpCallSpread's stack contract: callee on top,
// then named (name,value) pairs, then (for OpCallSpread) one array to
// splice in, then positional args in left-to-right order underneath.
func (vm *VM) execCall(f *Frame, op bytecode.OpCode, line int) {
	chunk := f.chunk()
	argc := int(chunk.Code[f.IP])
	namedc := int(chunk.Code[f.IP+1])
	f.IP += 2

	callee := vm.pop()
	named := make(map[string]value.Value, namedc)
	for i := 0; i < namedc; i++ {
		v := vm.pop()
		name := vm.pop()
		named[name.Str] = v
	}

	var spread []value.Value
	if op == bytecode.OpCallSpread {
		arr := vm.pop()
		if arr.Kind != value.KindArray {
			vm.raise(errors.NewTypeError("array", arr.TypeName(), line))
			return
		}
		spread = arr.Arr.Elements
	}
	positional := vm.popN(argc)
	if spread != nil {
		positional = append(positional, spread...)
	}

	if callee.Kind != value.KindFunction {
		vm.raise(errors.NewTypeError("function", callee.TypeName(), line))
		return
	}
	if callee.Fn.IsNative() {
		vm.invokeNative(callee.Fn, positional, named, line)
		return
	}
	vm.invoke(callee.Fn, positional, named, line)
}

// invokeNative calls a Go-backed builtin directly, with no Frame and no
// memoization — builtins take positional arguments only (the teacher's
// NativeFunction convention has no named-argument support either).
func (vm *VM) invokeNative(fn *value.Function, positional []value.Value, named map[string]value.Value, line int) {
	if len(named) > 0 {
		vm.raise(errors.NewRuntimeError(fn.Name()+" does not accept named arguments", line))
		return
	}
	if arity := fn.Arity(); arity >= 0 && len(positional) != arity {
		vm.raise(errors.NewWrongArgumentCount(fn.Name(), arity, len(positional), line))
		return
	}

	var result value.Value
	var err error
	if fn.IsHigherOrder() {
		result, err = fn.CallWithCaller(vm, positional)
	} else {
		result, err = fn.Call(positional)
	}
	if err != nil {
		if err == errControlEscaped {
			// A callback's exception was caught outside the callback
			// itself; vm.frames/IP already point at the handler.
			return
		}
		vm.raise(errors.NewRuntimeError(err.Error(), line))
		return
	}
	vm.push(result)
}

// invoke binds arguments, probes/inserts into the memoization cache if the
// callee is cached, and pushes a new Frame with closures copied from the
// caller's currently-active frame (spec §4.3: captures are materialized at
// call time by walking back through the call stack, not snapshotted when
// the closure value was created).
func (vm *VM) invoke(fn *value.Function, positional []value.Value, named map[string]value.Value, line int) {
	proto := fn.Proto
	params := proto.ParamNames
	bound := make([]value.Value, len(params))
	set := make([]bool, len(params))

	if len(positional) > len(params) {
		vm.raise(errors.NewWrongArgumentCount(fn.Name(), len(params), len(positional), line))
		return
	}
	for i, v := range positional {
		bound[i] = v
		set[i] = true
	}
	for name, v := range named {
		idx := -1
		for i, p := range params {
			if p == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			vm.raise(errors.NewFunctionNotFound(fn.Name()+"(named arg '"+name+"')", line))
			return
		}
		bound[idx] = v
		set[idx] = true
	}
	for i, ok := range set {
		if ok {
			continue
		}
		d := proto.Defaults[i]
		if !d.Has {
			vm.raise(errors.NewWrongArgumentCount(fn.Name(), len(params), len(positional), line))
			return
		}
		bound[i] = literalValue(d.Value)
		set[i] = true
	}

	var cacheKey value.CacheKey
	hasKey := false
	if fn.IsCached() {
		if k, ok := value.NewCacheKey(bound); ok {
			cacheKey = k
			hasKey = true
			if cached, found := fn.Cache.Get(k); found {
				vm.push(cached)
				return
			}
		}
	}

	callerFrame := vm.current()
	frame := newFrame(fn, line)
	copy(frame.Locals, bound)
	for i, cv := range proto.CapturedVars {
		if cv.FromCaptured {
			frame.Captured[i] = callerFrame.Captured[cv.ParentSlot]
		} else {
			frame.Captured[i] = callerFrame.Locals[cv.ParentSlot]
		}
	}
	frame.cacheKey = cacheKey
	frame.hasCacheKey = hasKey
	vm.frames = append(vm.frames, frame)
}

func literalValue(v interface{}) value.Value {
	switch v := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	default:
		return value.Null()
	}
}

// doReturn pops the current frame, storing into the memoization cache if
// it was a cache miss, and pushes the result onto the caller's stack.
// When the frame stack bottoms out, the result is left on vm.stack for Run.
func (vm *VM) doReturn(result value.Value) {
	frame := vm.current()
	if frame.hasCacheKey {
		frame.Fn.Cache.Put(frame.cacheKey, result)
	}
	vm.lastReturn = frame
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.push(result)
}
