package compiler

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/errors"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/parser"
)

func (c *funcCompiler) VisitVarDecl(s *parser.VarDecl) interface{} {
	s.Value.Accept(c)
	res := c.res.Decls[s]
	c.emitStore(res, s.Name, s.Line)
	return nil
}

func (c *funcCompiler) VisitAssign(s *parser.Assign) interface{} {
	if s.Operator != "=" {
		c.compileCompoundAssign(s)
		return nil
	}
	switch target := s.Target.(type) {
	case *parser.Variable:
		s.Value.Accept(c)
		c.emitStore(c.res.Vars[target], target.Name, s.Line)
	case *parser.Index:
		target.Object.Accept(c)
		target.Key.Accept(c)
		s.Value.Accept(c)
		c.emitOp(bytecode.OpSetIndex, s.Line)
	case *parser.Member:
		target.Object.Accept(c)
		c.emitConstant(target.Name, s.Line)
		s.Value.Accept(c)
		c.emitOp(bytecode.OpSetIndex, s.Line)
	}
	return nil
}

// compileCompoundAssign desugars `target OP= value` into
// `target = target OP value`. Index/Member targets have no dup opcode to
// reuse an already-evaluated object/key pair, so the object (and, for
// Index, the key) are evaluated twice — once left on the stack for the
// final OpSetIndex, once to read the current value out from under it —
// interleaved so OpSetIndex's [object, key, value] stack order comes out
// right once the combined value is computed.
func (c *funcCompiler) compileCompoundAssign(s *parser.Assign) {
	op := s.Operator[:len(s.Operator)-1] // "+=" -> "+"
	switch target := s.Target.(type) {
	case *parser.Variable:
		res := c.res.Vars[target]
		c.emitLoad(res, target.Name, s.Line)
		s.Value.Accept(c)
		c.emitBinaryOp(op, s.Line)
		c.emitStore(res, target.Name, s.Line)
	case *parser.Index:
		target.Object.Accept(c) // for the write
		target.Key.Accept(c)
		target.Object.Accept(c) // for the read
		target.Key.Accept(c)
		c.emitOp(bytecode.OpIndex, s.Line) // -> object, key, oldValue
		s.Value.Accept(c)
		c.emitBinaryOp(op, s.Line) // -> object, key, combinedValue
		c.emitOp(bytecode.OpSetIndex, s.Line)
	case *parser.Member:
		target.Object.Accept(c) // for the write
		c.emitConstant(target.Name, s.Line)
		target.Object.Accept(c) // for the read
		c.emitConstant(target.Name, s.Line)
		c.emitOp(bytecode.OpIndex, s.Line) // -> object, key, oldValue
		s.Value.Accept(c)
		c.emitBinaryOp(op, s.Line) // -> object, key, combinedValue
		c.emitOp(bytecode.OpSetIndex, s.Line)
	}
}

func (c *funcCompiler) emitBinaryOp(op string, line int) {
	switch op {
	case "+":
		c.emitOp(bytecode.OpAdd, line)
	case "-":
		c.emitOp(bytecode.OpSub, line)
	case "*":
		c.emitOp(bytecode.OpMul, line)
	case "/":
		c.emitOp(bytecode.OpDiv, line)
	}
}

func (c *funcCompiler) VisitExprStmt(s *parser.ExprStmt) interface{} {
	s.Expr.Accept(c)
	c.emitOp(bytecode.OpPop, s.Line)
	return nil
}

// VisitFunctionDecl compiles the nested body into its own Chunk, wraps it
// in a FunctionProto constant built from the resolver's FuncInfo/ParamSlots
// (spec §4.3/§4.5), and stores the resulting function value as a global
// bound to the function's name (hoisted by the resolver).
func (c *funcCompiler) VisitFunctionDecl(s *parser.FunctionDecl) interface{} {
	info := c.res.FuncInfos[s]

	sub := newFuncCompiler(c, c.res)
	sub.compileBlock(s.Body)
	sub.emitOp(bytecode.OpReturnNull, s.Line)

	paramNames := make([]string, len(s.Params))
	defaults := make([]bytecode.Default, len(s.Params))
	for i, p := range s.Params {
		paramNames[i] = p.Name
		if p.Default != nil {
			// spec §2/§4.5: default_values is a sequence of plain Values,
			// not expressions, so a default must fold to a constant at
			// compile time.
			lit, ok := p.Default.(*parser.Literal)
			if !ok {
				panic(errors.NewSyntaxError("parameter default must be a constant", s.Line, 0))
			}
			defaults[i] = bytecode.Default{Has: true, Value: lit.Value}
		}
	}

	proto := &bytecode.FunctionProto{
		Name:         s.Name,
		Arity:        len(s.Params),
		ParamNames:   paramNames,
		Defaults:     defaults,
		CapturedVars: info.Captures,
		IsCached:     s.IsCached,
		Chunk:        sub.chunk,
	}
	// NumLocals isn't a FunctionProto field; stash it as a trailing
	// constant so the VM can size the frame's locals slice without
	// widening FunctionProto for a single int.
	sub.chunk.Constants = append(sub.chunk.Constants, info.NumLocals)

	idx := c.chunk.AddConstant(proto)
	c.emitOp(bytecode.OpConstant, s.Line)
	c.emitU16(idx, s.Line)

	nameIdx := c.chunk.AddConstant(s.Name)
	c.emitOp(bytecode.OpSetGlobal, s.Line)
	c.emitU16(nameIdx, s.Line)
	return nil
}

func (c *funcCompiler) VisitIf(s *parser.If) interface{} {
	s.Cond.Accept(c)
	elseJump := c.emitJump(bytecode.JumpIfFalse, s.Line)
	c.emitOp(bytecode.OpPop, s.Line)
	c.compileBlock(s.Then)
	endJump := c.emitJump(bytecode.JumpPlain, s.Line)
	c.patchJumpHere(elseJump)
	c.emitOp(bytecode.OpPop, s.Line)
	c.compileBlock(s.Else)
	c.patchJumpHere(endJump)
	return nil
}

func (c *funcCompiler) VisitWhile(s *parser.While) interface{} {
	loopStart := c.chunk.Len()
	s.Cond.Accept(c)
	exitJump := c.emitJump(bytecode.JumpIfFalse, s.Line)
	c.emitOp(bytecode.OpPop, s.Line)

	c.breaks = append(c.breaks, nil)
	c.continues = append(c.continues, nil)
	c.compileBlock(s.Body)
	c.patchContinuesTo(loopStart)

	c.emitJumpBackTo(loopStart, s.Line)
	c.patchJumpHere(exitJump)
	c.emitOp(bytecode.OpPop, s.Line)
	c.popBreaksHere()
	return nil
}

// emitJumpBackTo emits an unconditional jump to an already-known earlier
// position (a loop head), resolving it immediately since both endpoints
// are fixed.
func (c *funcCompiler) emitJumpBackTo(target int, line int) {
	js := c.emitJump(bytecode.JumpPlain, line)
	c.patchJumpTo(js, target)
}

// patchContinuesTo resolves every continue jump recorded for the innermost
// loop to target, popping that loop's frame off the continue stack.
func (c *funcCompiler) patchContinuesTo(target int) {
	continues := c.continues[len(c.continues)-1]
	c.continues = c.continues[:len(c.continues)-1]
	for _, js := range continues {
		c.patchJumpTo(js, target)
	}
}

// popBreaksHere patches every break recorded for the innermost loop to jump
// to the current (post-loop) position.
func (c *funcCompiler) popBreaksHere() {
	breaks := c.breaks[len(c.breaks)-1]
	c.breaks = c.breaks[:len(c.breaks)-1]
	for _, js := range breaks {
		c.patchJumpHere(js)
	}
}

func (c *funcCompiler) VisitForIn(s *parser.ForIn) interface{} {
	s.Iterable.Accept(c)
	c.emitOp(bytecode.OpIterStart, s.Line)

	slots := c.res.ForSlots[s]
	loopStart := c.chunk.Len()

	var nextOp bytecode.OpCode
	if s.HasValVar {
		nextOp = bytecode.OpIterNextKV
	} else {
		nextOp = bytecode.OpIterNext
	}
	nextPos := c.emitOp(nextOp, s.Line)
	c.emitByte(0, s.Line)
	c.emitByte(0, s.Line)
	donePlaceholder := c.mark(nextPos + 1)

	// IterNextKV pushes key then value (spec §4.4: "pushes key then value"),
	// so value ends up on top — pop it into ValVar before popping key into
	// KeyVar. Single-bind IterNext pushes exactly one value, so order is
	// moot there.
	if s.HasValVar {
		c.storeForSlot(slots[1], s.Line)
	}
	c.storeForSlot(slots[0], s.Line)

	c.breaks = append(c.breaks, nil)
	c.continues = append(c.continues, nil)
	c.compileBlock(s.Body)
	c.patchContinuesTo(loopStart)

	c.emitJumpBackTo(loopStart, s.Line)

	// doneTarget is a marker, not a raw snapshot: popBreaksHere below can
	// patch a break jump that needs widening, which shifts every byte
	// from the insertion point on (including OpIterEnd's own position)
	// forward by the width delta. A plain int would go stale right here.
	doneTarget := c.mark(c.chunk.Len())
	c.emitOp(bytecode.OpIterEnd, s.Line)
	c.popBreaksHere()

	offset := *doneTarget - (*donePlaceholder + 2)
	c.writeI16At(*donePlaceholder, offset)
	return nil
}

func (c *funcCompiler) writeI16At(pos int, offset int) {
	u := uint16(int16(offset))
	c.chunk.Code[pos] = byte(u >> 8)
	c.chunk.Code[pos+1] = byte(u)
}

func (c *funcCompiler) storeForSlot(slot int, line int) {
	if slot <= 0xFF {
		c.emitOp(bytecode.OpSetLocal8, line)
		c.emitByte(byte(slot), line)
	} else {
		c.emitOp(bytecode.OpSetLocal16, line)
		c.emitU16(slot, line)
	}
}

func (c *funcCompiler) VisitReturn(s *parser.Return) interface{} {
	if s.Value != nil {
		s.Value.Accept(c)
		c.emitOp(bytecode.OpReturn, s.Line)
	} else {
		c.emitOp(bytecode.OpReturnNull, s.Line)
	}
	return nil
}

func (c *funcCompiler) VisitBreak(s *parser.Break) interface{} {
	js := c.emitJump(bytecode.JumpPlain, s.Line)
	i := len(c.breaks) - 1
	c.breaks[i] = append(c.breaks[i], js)
	return nil
}

func (c *funcCompiler) VisitContinue(s *parser.Continue) interface{} {
	js := c.emitJump(bytecode.JumpPlain, s.Line)
	i := len(c.continues) - 1
	c.continues[i] = append(c.continues[i], js)
	return nil
}

func (c *funcCompiler) VisitThrow(s *parser.Throw) interface{} {
	s.Value.Accept(c)
	c.emitOp(bytecode.OpThrow, s.Line)
	return nil
}

// VisitTry compiles try/catch/finally using OpTryPush/OpTryPop (spec §4.6,
// C8): OpTryPush registers the catch/finally addresses before the
// protected body runs; OpTryPop unregisters them once it completes
// normally, falling through into the finally body (if any) the same as
// the VM does after a caught exception.
// The finally body is compiled twice when there's no catch clause — once
// inline ahead of the re-raise, once at its normal-path position — trading
// a little code size for finally's always-runs guarantee without a second
// dispatch-time jump.
func (c *funcCompiler) VisitTry(s *parser.Try) interface{} {
	catchSlot := c.res.CatchSlots[s]
	catchSlotByte := byte(0xFF)
	if catchSlot >= 0 {
		catchSlotByte = byte(catchSlot)
	}

	pushPos := c.emitOp(bytecode.OpTryPush, s.Line)
	c.emitByte(0xFF, s.Line) // handler pc hi (patched below)
	c.emitByte(0xFF, s.Line) // handler pc lo
	c.emitByte(0xFF, s.Line) // finally pc hi
	c.emitByte(0xFF, s.Line) // finally pc lo
	c.emitByte(catchSlotByte, s.Line)
	handlerOperand := c.mark(pushPos + 1)
	finallyOperand := c.mark(pushPos + 3)

	c.compileBlock(s.Body)
	c.emitOp(bytecode.OpTryPop, s.Line)

	finallyJump := c.emitJump(bytecode.JumpPlain, s.Line)

	// On dispatch to handlerPos the VM always leaves the thrown value on
	// top of the operand stack (truncated back to this try's entry
	// depth). A named catch clause binds and consumes it; an unnamed one
	// just discards it; no catch clause at all leaves it in place for
	// the bare OpThrow below to re-raise unchanged.
	// handlerPos is a marker, not a raw snapshot: patchJumpHere(finallyJump)
	// just below can widen finallyJump's own encoding, which shifts every
	// byte from its insertion point on (including the catch body that
	// starts right here) forward by the width delta. A plain int would go
	// stale the moment that happens.
	handlerPos := c.mark(c.chunk.Len())
	if s.HasCatch {
		if catchSlot >= 0 {
			c.storeForSlot(catchSlot, s.Line)
		} else {
			c.emitOp(bytecode.OpPop, s.Line)
		}
		c.compileBlock(s.CatchBody)
	} else {
		// No catch clause: an unhandled throw unwinds here, runs `finally`
		// inline (finally must run even when nothing catches), then
		// re-raises the still-on-stack value unchanged.
		if s.HasFinally {
			c.compileBlock(s.FinallyBody)
		}
		c.emitOp(bytecode.OpThrow, s.Line)
	}
	c.patchJumpHere(finallyJump)

	finallyPos := c.mark(c.chunk.Len())
	if s.HasFinally {
		c.compileBlock(s.FinallyBody)
	}

	c.writeU16At(*handlerOperand, *handlerPos)
	if s.HasFinally {
		c.writeU16At(*finallyOperand, *finallyPos)
	} else {
		c.writeU16At(*finallyOperand, 0xFFFF)
	}
	return nil
}

func (c *funcCompiler) writeU16At(pos int, val int) {
	c.chunk.Code[pos] = byte(val >> 8)
	c.chunk.Code[pos+1] = byte(val)
}
