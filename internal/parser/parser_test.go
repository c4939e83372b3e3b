package parser

import (
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/lexer"
)

func parseString(input string) ([]Stmt, error) {
	scanner := lexer.NewScanner(input)
	tokens, err := scanner.ScanTokens()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

func assertParseSuccess(t *testing.T, input, description string) []Stmt {
	t.Helper()
	stmts, err := parseString(input)
	if err != nil {
		t.Fatalf("%s: parsing failed: %v", description, err)
	}
	return stmts
}

func assertParseError(t *testing.T, input, description string) {
	t.Helper()
	_, err := parseString(input)
	if err == nil {
		t.Fatalf("%s: expected parse error, got none", description)
	}
}

func TestVariableDeclarations(t *testing.T) {
	cases := []string{
		`global x = 1`,
		`local y = "hi"`,
		`let z = [1, 2, 3]`,
	}
	for _, src := range cases {
		stmts := assertParseSuccess(t, src, src)
		if len(stmts) != 1 {
			t.Fatalf("%s: expected 1 statement, got %d", src, len(stmts))
		}
		if _, ok := stmts[0].(*VarDecl); !ok {
			t.Fatalf("%s: expected *VarDecl, got %T", src, stmts[0])
		}
	}
}

func TestFunctionDecl(t *testing.T) {
	src := `
function add(a, b = 1) do
    return a + b
endfunction
`
	stmts := assertParseSuccess(t, src, "function decl")
	fn, ok := stmts[0].(*FunctionDecl)
	if !ok {
		t.Fatalf("expected *FunctionDecl, got %T", stmts[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if fn.Params[1].Default == nil {
		t.Fatalf("expected default value on second param")
	}
}

func TestCachedFunctionDecl(t *testing.T) {
	src := `
cached function ack(m, n) do
    return m
endfunction
`
	stmts := assertParseSuccess(t, src, "cached function decl")
	fn := stmts[0].(*FunctionDecl)
	if !fn.IsCached {
		t.Fatalf("expected IsCached = true")
	}
}

func TestIfElseIf(t *testing.T) {
	src := `
if a > 1 do
    x = 1
else if a > 0 do
    x = 2
else
    x = 3
endif
`
	stmts := assertParseSuccess(t, src, "if/else if/else")
	ifStmt := stmts[0].(*If)
	if len(ifStmt.Else) != 1 {
		t.Fatalf("expected else-if chain to be a single nested If")
	}
	if _, ok := ifStmt.Else[0].(*If); !ok {
		t.Fatalf("expected nested *If in Else branch, got %T", ifStmt.Else[0])
	}
}

func TestForInTwoBind(t *testing.T) {
	src := `
for k, v in obj do
    x = k
forend
`
	stmts := assertParseSuccess(t, src, "for k, v in obj")
	f := stmts[0].(*ForIn)
	if !f.HasValVar || f.ValVar != "v" || f.KeyVar != "k" {
		t.Fatalf("unexpected for-in shape: %+v", f)
	}
}

func TestForInSingleBindNext(t *testing.T) {
	src := `
for item in arr do
    x = item
next
`
	stmts := assertParseSuccess(t, src, "for item in arr .. next")
	f := stmts[0].(*ForIn)
	if f.HasValVar {
		t.Fatalf("expected single-bind for loop")
	}
}

func TestWhileLoop(t *testing.T) {
	src := `
while x < 10 do
    x = x + 1
endwhile
`
	assertParseSuccess(t, src, "while loop")
}

func TestTryCatchFinally(t *testing.T) {
	src := `
try
    throw "boom"
catch err
    x = err
finally
    y = 1
endtry
`
	stmts := assertParseSuccess(t, src, "try/catch/finally")
	tr := stmts[0].(*Try)
	if !tr.HasCatch || tr.CatchName != "err" || !tr.HasFinally {
		t.Fatalf("unexpected try shape: %+v", tr)
	}
}

func TestCallWithNamedAndSpreadArgs(t *testing.T) {
	src := `f(1, name: "a", *rest)`
	stmts := assertParseSuccess(t, src, "call with named/spread args")
	es := stmts[0].(*ExprStmt)
	call := es.Expr.(*Call)
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
	if call.Args[1].Name != "name" {
		t.Fatalf("expected named arg 'name'")
	}
	if !call.Args[2].Spread {
		t.Fatalf("expected spread arg")
	}
}

func TestObjectAndArrayLiterals(t *testing.T) {
	src := `x = {a: 1, "b": [1, 2, 3]}`
	stmts := assertParseSuccess(t, src, "object/array literal")
	assign := stmts[0].(*Assign)
	obj := assign.Value.(*ObjectLit)
	if len(obj.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(obj.Entries))
	}
}

func TestCompoundAssignment(t *testing.T) {
	src := `x += 1`
	stmts := assertParseSuccess(t, src, "compound assignment")
	assign := stmts[0].(*Assign)
	if assign.Operator != "+=" {
		t.Fatalf("expected +=, got %s", assign.Operator)
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	assertParseError(t, `1 + 2 = 3`, "assigning to non-lvalue")
}

func TestMissingEndifIsError(t *testing.T) {
	assertParseError(t, `if x do
    y = 1
`, "missing endif")
}

func TestPrecedence(t *testing.T) {
	src := `x = 1 + 2 * 3`
	stmts := assertParseSuccess(t, src, "precedence")
	assign := stmts[0].(*Assign)
	bin := assign.Value.(*Binary)
	if bin.Operator != "+" {
		t.Fatalf("expected top-level '+', got %s", bin.Operator)
	}
	if _, ok := bin.Right.(*Binary); !ok {
		t.Fatalf("expected right operand to be nested '*' binary")
	}
}
