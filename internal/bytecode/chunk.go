// Package bytecode defines the compiled representation DataCode programs
// run on: a flat instruction buffer, a constant pool, and a parallel line
// map for error reporting. Chunk is immutable once compiled.
package bytecode

// CapturedVar is a static record telling the VM how to copy an ancestor
// frame's local into a callee frame's slot on entry. The compiler computes
// these during resolution; the VM only walks the call stack and copies.
type CapturedVar struct {
	Name          string
	AncestorDepth int  // always 0 — see internal/resolver's capture-chaining doc comment
	FromCaptured  bool // ParentSlot indexes the parent frame's Captured array, not its Locals
	ParentSlot    int
	LocalSlot     int
}

// Default describes a parameter's default value, if any. Has is false for
// required parameters.
type Default struct {
	Has   bool
	Value interface{}
}

// FunctionProto is the compile-time, immutable description of a function:
// its chunk plus everything the VM needs to bind a call. It is stored as a
// Chunk constant; the VM wraps it in a new runtime Function value (with a
// new memoization cache, if IsCached) each time OpConstant loads it.
type FunctionProto struct {
	Name          string
	Arity         int
	ParamNames    []string
	Defaults      []Default
	CapturedVars  []CapturedVar
	IsCached      bool
	Chunk         *Chunk
}

// Chunk is an immutable bytecode buffer: a flat byte vector of opcodes and
// their operands, a constant pool indexed by LoadConst-family instructions,
// and a source line map with one entry per byte in Code.
//
// Constants may be: nil (used sparingly — PushNull avoids needing this),
// bool, float64, string, or *FunctionProto for nested function literals.
// A function body's chunk also ends with one int constant holding that
// function's NumLocals, which OpConstant never loads.
type Chunk struct {
	Code      []byte
	Constants []interface{}
	Lines     []int
}

func NewChunk() *Chunk {
	return &Chunk{}
}

func (c *Chunk) WriteByte(b byte, line int) int {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

func (c *Chunk) WriteOp(op OpCode, line int) int {
	return c.WriteByte(byte(op), line)
}

// AddConstant appends val to the constant pool and returns its index.
func (c *Chunk) AddConstant(val interface{}) int {
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// LineAt returns the source line recorded for the instruction byte at ip,
// or 0 if ip is out of range.
func (c *Chunk) LineAt(ip int) int {
	if ip >= 0 && ip < len(c.Lines) {
		return c.Lines[ip]
	}
	return 0
}

// Len returns the current size of the code buffer, in bytes.
func (c *Chunk) Len() int {
	return len(c.Code)
}
