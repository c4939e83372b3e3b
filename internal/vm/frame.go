// Package vm executes compiled DataCode chunks (spec §4.5/§4.6, C7/C8): a
// single non-recursive fetch-decode-dispatch loop over an explicit frame
// stack, rather than one Go call per DataCode call — grounded on
// sentra-language-sentra/internal/vm/vm.go's array-stack-plus-ip shape,
// generalized with closures (captured-variable copying at call time, per
// spec §4.3's "walking back through the call stack"), exception unwinding
// via an explicit try-handler stack per frame, and per-function
// memoization.
package vm

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// tryHandler is one active try/catch/finally registration within a frame,
// pushed by OpTryPush and popped by OpTryPop (on normal completion) or by
// the unwind path (on an exception it catches).
type tryHandler struct {
	HandlerPC  int
	FinallyPC  int // -1 if the try has no finally clause
	CatchSlot  int // -1 if the catch clause binds no name (or there is none)
	StackDepth int // operand stack length to restore to on unwind
}

// Frame is one active call's execution state (spec §3 Call frame / C7).
type Frame struct {
	Fn       *value.Function
	IP       int
	Locals   []value.Value
	Captured []value.Value
	Tries    []tryHandler
	CallLine int // source line of the call site, for stack traces

	cacheKey    value.CacheKey
	hasCacheKey bool
}

func (f *Frame) chunk() *bytecode.Chunk { return f.Fn.Chunk() }

// protoNumLocals recovers the local-slot count the compiler stashed as the
// chunk's trailing constant (FunctionProto has no NumLocals field of its
// own — see internal/compiler's VisitFunctionDecl).
func protoNumLocals(proto *bytecode.FunctionProto) int {
	cs := proto.Chunk.Constants
	if len(cs) == 0 {
		return len(proto.ParamNames)
	}
	if n, ok := cs[len(cs)-1].(int); ok {
		return n
	}
	return len(proto.ParamNames)
}

func newFrame(fn *value.Function, callLine int) *Frame {
	n := protoNumLocals(fn.Proto)
	if n < fn.Arity() {
		n = fn.Arity()
	}
	return &Frame{
		Fn:       fn,
		Locals:   make([]value.Value, n),
		Captured: make([]value.Value, len(fn.Proto.CapturedVars)),
		CallLine: callLine,
	}
}
