// Package resolver performs DataCode's static scope resolution pass
// (spec §4.3, C4): it walks the parsed AST once, assigning every local
// variable a slot index within its enclosing function and, for variables
// referenced from a nested function but declared in an enclosing one,
// recording a capture descriptor so the compiler can emit the right
// get/set opcode and the VM can copy the value into the callee's frame at
// call time.
//
// Grounded on original_source/semantic/scope.rs's `Scope{locals, parent}`
// chain, generalized from sentra-language-sentra/internal/compiler's flat
// `locals []string` linear scan (stmt_compiler.go) into a proper nested
// scope chain with capture tracking. Implemented as an ExprVisitor/
// StmtVisitor, mirroring internal/compiler/compiler.go's own visitor
// shape, so the two passes read the same way.
package resolver

import (
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/bytecode"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/errors"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/parser"
)

// VarKind says how a resolved variable reference should be compiled.
type VarKind int

const (
	VarLocal VarKind = iota
	VarGlobal
	VarCaptured
)

// Resolution is what the compiler looks up for each Variable node and
// assignment target: where the value lives.
type Resolution struct {
	Kind VarKind
	Slot int // local slot, capture index, or unused for VarGlobal
}

// FuncInfo is what the compiler needs to build a bytecode.FunctionProto:
// how many local slots to reserve and which ancestor values to capture.
type FuncInfo struct {
	NumLocals int
	Captures  []bytecode.CapturedVar
}

// Result is the full output of a resolution pass over one program or
// function body.
type Result struct {
	Vars       map[*parser.Variable]Resolution
	Decls      map[*parser.VarDecl]Resolution
	ParamSlots map[*parser.FunctionDecl][]int
	ForSlots   map[*parser.ForIn][2]int // [keySlot, valSlot]
	CatchSlots map[*parser.Try]int      // -1 if the catch clause binds no name
	FuncInfos  map[*parser.FunctionDecl]*FuncInfo
	TopLevel   *FuncInfo
}

func newResult() *Result {
	return &Result{
		Vars:       make(map[*parser.Variable]Resolution),
		Decls:      make(map[*parser.VarDecl]Resolution),
		ParamSlots: make(map[*parser.FunctionDecl][]int),
		ForSlots:   make(map[*parser.ForIn][2]int),
		CatchSlots: make(map[*parser.Try]int),
		FuncInfos:  make(map[*parser.FunctionDecl]*FuncInfo),
	}
}

type funcScope struct {
	parent     *funcScope
	blocks     []map[string]int
	numSlots   int
	captures   []bytecode.CapturedVar
	captureIdx map[string]int // name -> index into captures
}

func newFuncScope(parent *funcScope) *funcScope {
	return &funcScope{parent: parent, captureIdx: make(map[string]int)}
}

func (f *funcScope) pushBlock()  { f.blocks = append(f.blocks, make(map[string]int)) }
func (f *funcScope) popBlock()   { f.blocks = f.blocks[:len(f.blocks)-1] }
func (f *funcScope) top() map[string]int { return f.blocks[len(f.blocks)-1] }

func (f *funcScope) declare(name string) int {
	slot := f.numSlots
	f.numSlots++
	f.top()[name] = slot
	return slot
}

// findLocal searches this function's block stack, innermost first.
func (f *funcScope) findLocal(name string) (int, bool) {
	for i := len(f.blocks) - 1; i >= 0; i-- {
		if slot, ok := f.blocks[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// Resolver walks a program, producing a Result. Construct with New.
type Resolver struct {
	cur       *funcScope
	globals   map[string]bool
	res       *Result
	loopDepth int
}

func New() *Resolver {
	return &Resolver{globals: make(map[string]bool), res: newResult()}
}

// Resolve walks the whole program (its implicit top-level function) and
// returns the completed Result, or the first scope error encountered
// (break/continue outside a loop; duplicate parameter names).
func (r *Resolver) Resolve(stmts []parser.Stmt) (res *Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(*errors.Error); ok {
				err = e
				return
			}
			panic(rec)
		}
	}()
	r.cur = newFuncScope(nil)
	r.cur.pushBlock()
	r.resolveStmts(stmts)
	r.res.TopLevel = &FuncInfo{NumLocals: r.cur.numSlots, Captures: r.cur.captures}
	return r.res, nil
}

func (r *Resolver) resolveStmts(stmts []parser.Stmt) {
	for _, s := range stmts {
		s.Accept(r)
	}
}

// --- declarations --------------------------------------------------------

func (r *Resolver) VisitVarDecl(s *parser.VarDecl) interface{} {
	s.Value.Accept(r)
	if s.Scope == parser.ScopeGlobal {
		r.globals[s.Name] = true
		r.res.Decls[s] = Resolution{Kind: VarGlobal}
		return nil
	}
	slot := r.cur.declare(s.Name)
	r.res.Decls[s] = Resolution{Kind: VarLocal, Slot: slot}
	return nil
}

func (r *Resolver) VisitFunctionDecl(s *parser.FunctionDecl) interface{} {
	// The function's own name is bound as a global so recursive and
	// forward calls resolve (spec §4.2: function declarations are
	// hoisted to the enclosing scope).
	r.globals[s.Name] = true

	parent := r.cur
	r.cur = newFuncScope(parent)
	r.cur.pushBlock()

	var paramSlots []int
	for _, p := range s.Params {
		if p.Default != nil {
			// Defaults are evaluated in the *enclosing* scope's shape
			// (no access to sibling params), matching spec §4.5 step 2.
			savedCur := r.cur
			r.cur = parent
			p.Default.Accept(r)
			r.cur = savedCur
		}
		if _, dup := r.cur.findLocal(p.Name); dup {
			panic(errors.NewSyntaxError("duplicate parameter name '"+p.Name+"'", s.Line, 0))
		}
		paramSlots = append(paramSlots, r.cur.declare(p.Name))
	}
	r.res.ParamSlots[s] = paramSlots

	savedLoop := r.loopDepth
	r.loopDepth = 0
	r.resolveStmts(s.Body)
	r.loopDepth = savedLoop

	r.res.FuncInfos[s] = &FuncInfo{NumLocals: r.cur.numSlots, Captures: r.cur.captures}
	r.cur = parent
	return nil
}

// --- statements ------------------------------------------------------------

func (r *Resolver) VisitAssign(s *parser.Assign) interface{} {
	s.Value.Accept(r)
	s.Target.Accept(r)
	return nil
}

func (r *Resolver) VisitExprStmt(s *parser.ExprStmt) interface{} {
	s.Expr.Accept(r)
	return nil
}

func (r *Resolver) VisitIf(s *parser.If) interface{} {
	s.Cond.Accept(r)
	r.cur.pushBlock()
	r.resolveStmts(s.Then)
	r.cur.popBlock()
	r.cur.pushBlock()
	r.resolveStmts(s.Else)
	r.cur.popBlock()
	return nil
}

func (r *Resolver) VisitWhile(s *parser.While) interface{} {
	s.Cond.Accept(r)
	r.loopDepth++
	r.cur.pushBlock()
	r.resolveStmts(s.Body)
	r.cur.popBlock()
	r.loopDepth--
	return nil
}

func (r *Resolver) VisitForIn(s *parser.ForIn) interface{} {
	s.Iterable.Accept(r)
	r.loopDepth++
	r.cur.pushBlock()
	keySlot := r.cur.declare(s.KeyVar)
	valSlot := -1
	if s.HasValVar {
		valSlot = r.cur.declare(s.ValVar)
	}
	r.res.ForSlots[s] = [2]int{keySlot, valSlot}
	r.resolveStmts(s.Body)
	r.cur.popBlock()
	r.loopDepth--
	return nil
}

func (r *Resolver) VisitReturn(s *parser.Return) interface{} {
	if s.Value != nil {
		s.Value.Accept(r)
	}
	return nil
}

func (r *Resolver) VisitBreak(s *parser.Break) interface{} {
	if r.loopDepth == 0 {
		panic(errors.NewSyntaxError("'break' outside a loop", s.Line, 0))
	}
	return nil
}

func (r *Resolver) VisitContinue(s *parser.Continue) interface{} {
	if r.loopDepth == 0 {
		panic(errors.NewSyntaxError("'continue' outside a loop", s.Line, 0))
	}
	return nil
}

func (r *Resolver) VisitThrow(s *parser.Throw) interface{} {
	s.Value.Accept(r)
	return nil
}

func (r *Resolver) VisitTry(s *parser.Try) interface{} {
	r.cur.pushBlock()
	r.resolveStmts(s.Body)
	r.cur.popBlock()

	r.res.CatchSlots[s] = -1
	if s.HasCatch {
		r.cur.pushBlock()
		if s.CatchName != "" {
			r.res.CatchSlots[s] = r.cur.declare(s.CatchName)
		}
		r.resolveStmts(s.CatchBody)
		r.cur.popBlock()
	}
	if s.HasFinally {
		r.cur.pushBlock()
		r.resolveStmts(s.FinallyBody)
		r.cur.popBlock()
	}
	return nil
}

// --- expressions -----------------------------------------------------------

func (r *Resolver) VisitLiteral(e *parser.Literal) interface{} { return nil }

func (r *Resolver) VisitVariable(e *parser.Variable) interface{} {
	r.res.Vars[e] = r.resolveName(r.cur, e.Name)
	return nil
}

// resolveName finds name starting at scope, climbing ancestor functions and
// recording a capture chain as needed. Every intervening function between
// the reference and the declaring function gets its own capture entry, so
// the VM only ever needs to copy from its immediate parent frame at call
// time — ancestorDepth is always 0 relative to each capturing function's
// own call, and the value is re-copied one frame at a time down the chain.
func (r *Resolver) resolveName(scope *funcScope, name string) Resolution {
	if slot, ok := scope.findLocal(name); ok {
		return Resolution{Kind: VarLocal, Slot: slot}
	}
	if scope.parent == nil {
		return Resolution{Kind: VarGlobal}
	}
	parentRes := r.resolveName(scope.parent, name)
	switch parentRes.Kind {
	case VarGlobal:
		return parentRes
	case VarLocal:
		return Resolution{Kind: VarCaptured, Slot: r.addCapture(scope, name, parentRes.Slot, false)}
	default: // VarCaptured in the parent: chain through its own capture slot
		return Resolution{Kind: VarCaptured, Slot: r.addCapture(scope, name, parentRes.Slot, true)}
	}
}

func (r *Resolver) addCapture(scope *funcScope, name string, parentSlot int, fromCaptured bool) int {
	if idx, ok := scope.captureIdx[name]; ok {
		return idx
	}
	idx := len(scope.captures)
	scope.captures = append(scope.captures, bytecode.CapturedVar{
		Name: name, AncestorDepth: 0, FromCaptured: fromCaptured, ParentSlot: parentSlot, LocalSlot: idx,
	})
	scope.captureIdx[name] = idx
	return idx
}

func (r *Resolver) VisitBinary(e *parser.Binary) interface{} {
	e.Left.Accept(r)
	e.Right.Accept(r)
	return nil
}

func (r *Resolver) VisitLogical(e *parser.Logical) interface{} {
	e.Left.Accept(r)
	e.Right.Accept(r)
	return nil
}

func (r *Resolver) VisitUnary(e *parser.Unary) interface{} {
	e.Operand.Accept(r)
	return nil
}

func (r *Resolver) VisitCall(e *parser.Call) interface{} {
	e.Callee.Accept(r)
	for _, a := range e.Args {
		a.Value.Accept(r)
	}
	return nil
}

func (r *Resolver) VisitIndex(e *parser.Index) interface{} {
	e.Object.Accept(r)
	e.Key.Accept(r)
	return nil
}

func (r *Resolver) VisitMember(e *parser.Member) interface{} {
	e.Object.Accept(r)
	return nil
}

func (r *Resolver) VisitArrayLit(e *parser.ArrayLit) interface{} {
	for _, el := range e.Elements {
		el.Accept(r)
	}
	return nil
}

func (r *Resolver) VisitObjectLit(e *parser.ObjectLit) interface{} {
	for _, ent := range e.Entries {
		ent.Key.Accept(r)
		ent.Value.Accept(r)
	}
	return nil
}
