package vm

import (
	"errors"
	"fmt"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// errControlEscaped signals that a DataCode exception thrown inside a
// CallValue callback was caught by a try outside the callback itself
// (at or above the caller's own frame) instead of the call returning
// normally. A native builtin that receives this from CallValue must
// propagate it unchanged and do nothing else — the VM's frame/IP state
// already points at the handler, so the enclosing dispatch loop resumes
// there on its own once the builtin's Go call unwinds.
var errControlEscaped = errors.New("datacode: control escaped a native callback")

// CallValue invokes a DataCode function value (compiled or native)
// synchronously from inside a running native builtin — the mechanism
// higher-order built-ins like reduce use to call back into user code. It
// runs a nested dispatch loop scoped to exactly this one call: calls the
// callback itself makes are handled by the ordinary dispatch loop, not
// any new machinery, so exceptions, further native calls and recursion
// all behave exactly as they would from compiled bytecode.
func (vm *VM) CallValue(fn value.Value, args []value.Value) (value.Value, error) {
	if fn.Kind != value.KindFunction {
		return value.Value{}, fmt.Errorf("attempted to call a %s value", fn.TypeName())
	}
	if fn.Fn.IsHigherOrder() {
		return fn.Fn.CallWithCaller(vm, args)
	}
	if fn.Fn.IsNative() {
		return fn.Fn.Call(args)
	}

	floor := len(vm.frames)
	vm.invoke(fn.Fn, args, nil, 0)

	if len(vm.frames) <= floor {
		// Either a memoization cache hit (result pushed with no frame), or
		// a binding error (wrong arity) that unwound straight into a
		// handler at or above floor before any frame was pushed. Either
		// way exactly one value is now on top of the stack.
		return vm.pop(), nil
	}

	cbFrame := vm.frames[floor]
	vm.loop(floor)

	if len(vm.frames) != floor || vm.lastReturn != cbFrame {
		return value.Value{}, errControlEscaped
	}
	return vm.pop(), nil
}
