package vm

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/errors"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// raise implements the unwind half of try/catch/finally (spec §4.4/§6,
// C7): walk the frame stack from the top, looking for the innermost still-
// open try handler. The handler's own bytecode (compiled by
// stmt_compiler.go's VisitTry) is responsible for consuming or re-raising
// the value raise leaves on the operand stack; raise itself only restores
// the stack depth and repoints IP. Frames with no open handler are popped
// and folded into the error's stack trace; if every frame runs out, the
// error escapes as a Go panic for Run's recover to turn back into an error
// return.
func (vm *VM) raise(e *errors.Error) {
	thrown := vm.thrownValue(e)
	for len(vm.frames) > 0 {
		f := vm.current()
		if len(f.Tries) > 0 {
			th := f.Tries[len(f.Tries)-1]
			f.Tries = f.Tries[:len(f.Tries)-1]
			if th.StackDepth <= len(vm.stack) {
				vm.stack = vm.stack[:th.StackDepth]
			}
			vm.push(thrown)
			f.IP = th.HandlerPC
			return
		}
		e = e.PushFrame(f.Fn.Name(), f.CallLine)
		vm.frames = vm.frames[:len(vm.frames)-1]
	}
	panic(e)
}

func (vm *VM) thrownValue(e *errors.Error) value.Value {
	if v, ok := e.Thrown.(value.Value); ok {
		return v
	}
	return value.String(e.Message)
}
