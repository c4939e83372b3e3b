package vm

import (
	"math"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/errors"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

// VM executes one program: the top-level chunk plus every function chunk
// it calls into, sharing one operand stack and one frame stack across
// calls (spec §4.5/§4.6). Construct with New and reuse across repeated
// Run calls (e.g. a REPL) to keep Globals alive between inputs.
type VM struct {
	Globals map[string]value.Value

	stack      []value.Value
	frames     []*Frame
	iters      []*iterState
	lastReturn *Frame // the Frame doReturn most recently popped; see CallValue
}

func New() *VM {
	return &VM{Globals: make(map[string]value.Value)}
}

// Run executes a compiled top-level program's chunk, with numLocals (from
// resolver.Result.TopLevel) local slots, to completion, returning the
// value of its last expression statement or Null.
func (vm *VM) Run(chunk *bytecode.Chunk, numLocals int) (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*errors.Error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	proto := &bytecode.FunctionProto{Name: "<script>", Chunk: chunk}
	fn := value.NewFunction(proto)
	frame := &Frame{Fn: fn, Locals: make([]value.Value, numLocals)}
	vm.frames = append(vm.frames, frame)

	base := len(vm.stack)
	vm.loop(0)
	if len(vm.stack) > base {
		result = vm.stack[len(vm.stack)-1]
		vm.stack = vm.stack[:base]
	}
	return result, nil
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) popN(n int) []value.Value {
	start := len(vm.stack) - n
	vals := append([]value.Value(nil), vm.stack[start:]...)
	vm.stack = vm.stack[:start]
	return vals
}

func (vm *VM) current() *Frame { return vm.frames[len(vm.frames)-1] }

// loop is the single fetch-decode-dispatch cycle every DataCode call runs
// on — no recursive Go call per DataCode call, only frame-stack pushes, so
// a deep DataCode recursion costs a Go slice append, not a Go stack frame
// (spec §4.5/§4.6, C8). It runs until the frame stack is unwound back down
// to floor frames — 0 for the top-level program, or len(vm.frames) at the
// moment a higher-order builtin (map/filter/reduce, ...) calls back into a
// DataCode closure via CallValue, so the nested loop returns control the
// instant that one callback invocation completes rather than running the
// rest of the program.
func (vm *VM) loop(floor int) {
	for len(vm.frames) > floor {
		f := vm.current()
		chunk := f.chunk()
		op := bytecode.OpCode(chunk.Code[f.IP])
		line := chunk.LineAt(f.IP)
		f.IP++

		switch op {
		case bytecode.OpConstant:
			idx := vm.readU16(f)
			vm.push(vm.loadConstant(chunk.Constants[idx]))
		case bytecode.OpNull:
			vm.push(value.Null())
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))

		case bytecode.OpGetLocal8:
			slot := int(chunk.Code[f.IP])
			f.IP++
			vm.push(f.Locals[slot])
		case bytecode.OpSetLocal8:
			slot := int(chunk.Code[f.IP])
			f.IP++
			f.Locals[slot] = vm.pop()
		case bytecode.OpGetLocal16:
			slot := vm.readU16(f)
			vm.push(f.Locals[slot])
		case bytecode.OpSetLocal16:
			slot := vm.readU16(f)
			f.Locals[slot] = vm.pop()
		case bytecode.OpGetGlobal:
			idx := vm.readU16(f)
			name := chunk.Constants[idx].(string)
			v, ok := vm.Globals[name]
			if !ok {
				vm.raise(errors.NewVariableError(name, errors.VarNotFound, line))
				continue
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			idx := vm.readU16(f)
			name := chunk.Constants[idx].(string)
			vm.Globals[name] = vm.pop()
		case bytecode.OpGetCaptured8:
			slot := int(chunk.Code[f.IP])
			f.IP++
			vm.push(f.Captured[slot])
		case bytecode.OpGetCaptured16:
			slot := vm.readU16(f)
			vm.push(f.Captured[slot])

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod:
			b := vm.pop()
			a := vm.pop()
			res, rerr := vm.arith(op, a, b, line)
			if rerr != nil {
				vm.raise(rerr)
				continue
			}
			vm.push(res)
		case bytecode.OpNeg:
			a := vm.pop()
			if a.Kind != value.KindNumber {
				vm.raise(errors.NewTypeError("number", a.TypeName(), line))
				continue
			}
			vm.push(value.Number(-a.Num))
		case bytecode.OpNot:
			vm.push(value.Bool(!vm.pop().Truthy()))
		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(a.Equal(b)))
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!a.Equal(b)))
		case bytecode.OpLess, bytecode.OpLessEqual, bytecode.OpGreater, bytecode.OpGreaterEqual:
			b := vm.pop()
			a := vm.pop()
			res, rerr := vm.compare(op, a, b, line)
			if rerr != nil {
				vm.raise(rerr)
				continue
			}
			vm.push(value.Bool(res))

		case bytecode.OpMakeArray:
			n := vm.readU16(f)
			elems := vm.popN(n)
			vm.push(value.FromArray(value.NewArray(elems)))
		case bytecode.OpMakeObject:
			n := vm.readU16(f)
			pairs := vm.popN(n * 2)
			obj := value.NewObject()
			for i := 0; i < n; i++ {
				k := pairs[i*2]
				v := pairs[i*2+1]
				obj.Set(keyString(k), v)
			}
			vm.push(value.FromObject(obj))
		case bytecode.OpIndex:
			key := vm.pop()
			obj := vm.pop()
			res, rerr := vm.index(obj, key, line)
			if rerr != nil {
				vm.raise(rerr)
				continue
			}
			vm.push(res)
		case bytecode.OpSetIndex:
			val := vm.pop()
			key := vm.pop()
			obj := vm.pop()
			if rerr := vm.setIndex(obj, key, val, line); rerr != nil {
				vm.raise(rerr)
				continue
			}
			vm.push(val)

		case bytecode.OpJump8, bytecode.OpJump16, bytecode.OpJump32,
			bytecode.OpJumpIfFalse8, bytecode.OpJumpIfFalse16, bytecode.OpJumpIfFalse32,
			bytecode.OpJumpIfTrue8, bytecode.OpJumpIfTrue16, bytecode.OpJumpIfTrue32:
			vm.execJump(f, op)

		case bytecode.OpCall, bytecode.OpCallSpread:
			vm.execCall(f, op, line)
		case bytecode.OpReturn:
			result := vm.pop()
			vm.doReturn(result)
		case bytecode.OpReturnNull:
			vm.doReturn(value.Null())
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpIterStart:
			it, rerr := newIterator(vm.pop(), line)
			if rerr != nil {
				vm.raise(rerr)
				continue
			}
			vm.iters = append(vm.iters, it)
		case bytecode.OpIterNext:
			offset := vm.readI16(f)
			it := vm.iters[len(vm.iters)-1]
			if it.done() {
				f.IP += offset
				continue
			}
			vm.push(it.single())
		case bytecode.OpIterNextKV:
			offset := vm.readI16(f)
			it := vm.iters[len(vm.iters)-1]
			if it.done() {
				f.IP += offset
				continue
			}
			k, v := it.kv()
			vm.push(k)
			vm.push(v)
		case bytecode.OpIterEnd:
			vm.iters = vm.iters[:len(vm.iters)-1]

		case bytecode.OpTryPush:
			handlerPC := vm.readU16At(chunk, f.IP)
			finallyPC := vm.readU16At(chunk, f.IP+2)
			catchSlot := int(chunk.Code[f.IP+4])
			f.IP += 5
			th := tryHandler{HandlerPC: handlerPC, CatchSlot: -1, FinallyPC: -1, StackDepth: len(vm.stack)}
			if catchSlot != 0xFF {
				th.CatchSlot = catchSlot
			}
			if finallyPC != 0xFFFF {
				th.FinallyPC = finallyPC
			}
			f.Tries = append(f.Tries, th)
		case bytecode.OpTryPop:
			f.Tries = f.Tries[:len(f.Tries)-1]
		case bytecode.OpThrow:
			thrown := vm.pop()
			vm.raise(errors.NewUserException(thrown.String(), line, thrown))
		}
	}
}

func keyString(v value.Value) string {
	if v.Kind == value.KindString {
		return v.Str
	}
	return v.String()
}

func (vm *VM) readU16(f *Frame) int {
	chunk := f.chunk()
	v := int(chunk.Code[f.IP])<<8 | int(chunk.Code[f.IP+1])
	f.IP += 2
	return v
}

func (vm *VM) readU16At(chunk *bytecode.Chunk, pos int) int {
	return int(chunk.Code[pos])<<8 | int(chunk.Code[pos+1])
}

func (vm *VM) readI16(f *Frame) int {
	u := vm.readU16(f)
	return int(int16(uint16(u)))
}

// loadConstant wraps a *bytecode.FunctionProto constant as a runtime
// Function value (allocating its memoization cache if IsCached); every
// other constant kind (float64/string/bool/nil, or the trailing NumLocals
// int some chunks carry, which is never itself loaded by OpConstant) maps
// straight through.
func (vm *VM) loadConstant(c interface{}) value.Value {
	switch c := c.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(c)
	case float64:
		return value.Number(c)
	case string:
		return value.String(c)
	case *bytecode.FunctionProto:
		return value.FromFunction(value.NewFunction(c))
	default:
		panic(errors.NewRuntimeError("unsupported constant kind", 0))
	}
}

func (vm *VM) execJump(f *Frame, op bytecode.OpCode) {
	_, width, _ := bytecode.IsJump(op)
	chunk := f.chunk()
	var offset int
	switch width {
	case bytecode.Width8:
		offset = int(int8(chunk.Code[f.IP]))
		f.IP++
	case bytecode.Width16:
		u := uint16(chunk.Code[f.IP])<<8 | uint16(chunk.Code[f.IP+1])
		offset = int(int16(u))
		f.IP += 2
	default:
		u := uint32(chunk.Code[f.IP])<<24 | uint32(chunk.Code[f.IP+1])<<16 |
			uint32(chunk.Code[f.IP+2])<<8 | uint32(chunk.Code[f.IP+3])
		offset = int(int32(u))
		f.IP += 4
	}

	switch op {
	case bytecode.OpJump8, bytecode.OpJump16, bytecode.OpJump32:
		f.IP += offset
	case bytecode.OpJumpIfFalse8, bytecode.OpJumpIfFalse16, bytecode.OpJumpIfFalse32:
		if !vm.peek().Truthy() {
			f.IP += offset
		}
	default: // JumpIfTrue
		if vm.peek().Truthy() {
			f.IP += offset
		}
	}
}

func (vm *VM) peek() value.Value { return vm.stack[len(vm.stack)-1] }

func (vm *VM) arith(op bytecode.OpCode, a, b value.Value, line int) (value.Value, *errors.Error) {
	if op == bytecode.OpAdd && a.Kind == value.KindString && b.Kind == value.KindString {
		return value.String(a.Str + b.Str), nil
	}
	if op == bytecode.OpDiv && (a.Kind == value.KindPath || b.Kind == value.KindPath) {
		return vm.pathJoin(a, b), nil
	}
	if a.Kind != value.KindNumber || b.Kind != value.KindNumber {
		bad := a
		if a.Kind == value.KindNumber {
			bad = b
		}
		return value.Value{}, errors.NewTypeError("number", bad.TypeName(), line)
	}
	switch op {
	case bytecode.OpAdd:
		return value.Number(a.Num + b.Num), nil
	case bytecode.OpSub:
		return value.Number(a.Num - b.Num), nil
	case bytecode.OpMul:
		return value.Number(a.Num * b.Num), nil
	case bytecode.OpDiv:
		if b.Num == 0 {
			return value.Value{}, errors.NewRuntimeError("division by zero", line)
		}
		return value.Number(a.Num / b.Num), nil
	default: // OpMod: math.Mod truncates, so the result takes the dividend's sign
		if b.Num == 0 {
			return value.Value{}, errors.NewRuntimeError("modulo by zero", line)
		}
		return value.Number(math.Mod(a.Num, b.Num)), nil
	}
}

// pathJoin implements `a / b`'s path-join reading (spec §4.2): either
// operand being a Path makes the whole expression a Path, joining with a
// single '/' the way Unix path segments combine.
func (vm *VM) pathJoin(a, b value.Value) value.Value {
	left := a.Str
	right := b.Str
	switch {
	case left == "":
		return value.Path(right)
	case right == "":
		return value.Path(left)
	case left[len(left)-1] == '/' || right[0] == '/':
		return value.Path(left + right)
	default:
		return value.Path(left + "/" + right)
	}
}

func (vm *VM) compare(op bytecode.OpCode, a, b value.Value, line int) (bool, *errors.Error) {
	var cmp int
	switch {
	case a.Kind == value.KindNumber && b.Kind == value.KindNumber:
		switch {
		case a.Num < b.Num:
			cmp = -1
		case a.Num > b.Num:
			cmp = 1
		}
	case a.Kind == value.KindString && b.Kind == value.KindString:
		switch {
		case a.Str < b.Str:
			cmp = -1
		case a.Str > b.Str:
			cmp = 1
		}
	default:
		return false, errors.NewTypeError("number or string", a.TypeName()+"/"+b.TypeName(), line)
	}
	switch op {
	case bytecode.OpLess:
		return cmp < 0, nil
	case bytecode.OpLessEqual:
		return cmp <= 0, nil
	case bytecode.OpGreater:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func (vm *VM) index(obj, key value.Value, line int) (value.Value, *errors.Error) {
	switch obj.Kind {
	case value.KindArray:
		if key.Kind != value.KindNumber {
			return value.Value{}, errors.NewTypeError("number", key.TypeName(), line)
		}
		i := int(key.Num)
		if i < 0 || i >= len(obj.Arr.Elements) {
			return value.Value{}, errors.NewRuntimeError("array index out of range", line)
		}
		return obj.Arr.Elements[i], nil
	case value.KindObject:
		v, ok := obj.Obj.Get(keyString(key))
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	case value.KindTable:
		switch key.Kind {
		case value.KindNumber:
			i := int(key.Num)
			if i < 0 || i >= obj.Tbl.NumRows() {
				return value.Value{}, errors.NewRuntimeError("table row index out of range", line)
			}
			row := value.NewObject()
			for _, col := range obj.Tbl.ColumnNames {
				v, _ := obj.Tbl.Get(i, col)
				row.Set(col, v)
			}
			return value.FromObject(row), nil
		default:
			col := keyString(key)
			vals, ok := obj.Tbl.Columns[col]
			if !ok {
				return value.Value{}, errors.NewRuntimeError("unknown column '"+col+"'", line)
			}
			return value.FromArray(value.NewArray(vals)), nil
		}
	case value.KindString:
		if key.Kind != value.KindNumber {
			return value.Value{}, errors.NewTypeError("number", key.TypeName(), line)
		}
		runes := []rune(obj.Str)
		i := int(key.Num)
		if i < 0 || i >= len(runes) {
			return value.Value{}, errors.NewRuntimeError("string index out of range", line)
		}
		return value.String(string(runes[i])), nil
	default:
		return value.Value{}, errors.NewTypeError("Array, Object, Table or String", obj.TypeName(), line)
	}
}

func (vm *VM) setIndex(obj, key, val value.Value, line int) *errors.Error {
	switch obj.Kind {
	case value.KindArray:
		if key.Kind != value.KindNumber {
			return errors.NewTypeError("number", key.TypeName(), line)
		}
		i := int(key.Num)
		if i < 0 || i >= len(obj.Arr.Elements) {
			return errors.NewRuntimeError("array index out of range", line)
		}
		obj.Arr.Elements[i] = val
		return nil
	case value.KindObject:
		obj.Obj.Set(keyString(key), val)
		return nil
	case value.KindTable:
		return errors.NewRuntimeError("table cells are mutated through table operations, not index assignment", line)
	default:
		return errors.NewTypeError("Array, Object or Table", obj.TypeName(), line)
	}
}
