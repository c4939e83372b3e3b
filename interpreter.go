// Package datacode is the host-embedding surface: construct an
// Interpreter, feed it source, read back variables. It wires
// lexer -> parser -> resolver -> compiler -> vm the same way any of
// internal/vm's own tests do, and pre-populates the VM's globals with
// internal/builtins' registry so built-in functions are reachable from
// the first statement run.
//
// Grounded on original_source's `data_code::interpreter::Interpreter`
// (constructor, `exec`, `get_variable`, a `variables` map exposed
// directly in several of its own tests) and, for the overall
// lex/parse/compile/run pipeline shape, sentra-language-sentra's
// cmd/sentra/main.go `run` command.
package datacode

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/builtins"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/compiler"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/lexer"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/parser"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/resolver"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/vm"
)

// Interpreter runs DataCode source against one persistent VM, so globals
// declared by one Exec call are visible to the next — the same
// incremental-session behavior a REPL or an embedding host expects.
type Interpreter struct {
	machine *vm.VM
}

// New returns an Interpreter with every built-in from internal/builtins
// already installed as a global.
func New() *Interpreter {
	m := vm.New()
	for name, fn := range builtins.All() {
		m.Globals[name] = fn
	}
	return &Interpreter{machine: m}
}

// Exec compiles and runs source against the interpreter's persistent VM,
// returning the value of its last expression statement (or Null).
func (i *Interpreter) Exec(source string) (value.Value, error) {
	chunk, numLocals, err := Compile(source)
	if err != nil {
		return value.Value{}, err
	}
	return i.machine.Run(chunk, numLocals)
}

// Eval is an alias for Exec kept for hosts that think in expression terms.
func (i *Interpreter) Eval(source string) (value.Value, error) {
	return i.Exec(source)
}

// GetVariable looks up a global by name.
func (i *Interpreter) GetVariable(name string) (value.Value, bool) {
	v, ok := i.machine.Globals[name]
	return v, ok
}

// SetVariable installs a global directly, bypassing Exec — useful for a
// host injecting values before running user source. isGlobal is accepted
// for symmetry with the original interpreter's signature; DataCode only
// has one persistent binding scope at the host boundary (VM globals), so
// it is otherwise unused.
func (i *Interpreter) SetVariable(name string, v value.Value, isGlobal bool) {
	i.machine.Globals[name] = v
}

// Globals returns the live map backing every global the interpreter
// knows about, built-ins included — an escape hatch for hosts that want
// to enumerate or snapshot interpreter state directly.
func (i *Interpreter) Globals() map[string]value.Value {
	return i.machine.Globals
}

// Compile runs the lexer/parser/resolver/compiler pipeline over source
// and returns the resulting top-level chunk plus its local-slot count
// (what vm.VM.Run needs to execute it).
func Compile(source string) (*bytecode.Chunk, int, error) {
	scanner := lexer.NewScanner(source)
	tokens, err := scanner.ScanTokens()
	if err != nil {
		return nil, 0, err
	}
	stmts, err := parser.NewParser(tokens).Parse()
	if err != nil {
		return nil, 0, err
	}
	res, err := resolver.New().Resolve(stmts)
	if err != nil {
		return nil, 0, err
	}
	chunk := compiler.Compile(stmts, res)
	return chunk, res.TopLevel.NumLocals, nil
}

// Run compiles and executes source against a fresh Interpreter (built-ins
// installed, no prior state) and returns its result value.
func Run(source string) (value.Value, error) {
	return New().Exec(source)
}
