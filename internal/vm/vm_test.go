package vm

import (
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/lexer"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/parser"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/resolver"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/compiler"
	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

func run(t *testing.T, src string) (value.Value, *VM) {
	t.Helper()
	scanner := lexer.NewScanner(src)
	tokens, err := scanner.ScanTokens()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	stmts, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := resolver.New().Resolve(stmts)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	chunk := compiler.Compile(stmts, res)
	m := New()
	result, err := m.Run(chunk, res.TopLevel.NumLocals)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return result, m
}

func runExpectError(t *testing.T, src string) error {
	t.Helper()
	scanner := lexer.NewScanner(src)
	tokens, err := scanner.ScanTokens()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	stmts, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := resolver.New().Resolve(stmts)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	chunk := compiler.Compile(stmts, res)
	_, err = New().Run(chunk, res.TopLevel.NumLocals)
	if err == nil {
		t.Fatalf("expected a runtime error, got none")
	}
	return err
}

func TestArithmeticAndGlobals(t *testing.T) {
	_, m := run(t, `
global x = 2 + 3 * 4
global y = (2 + 3) * 4
`)
	if m.Globals["x"].Num != 14 {
		t.Fatalf("expected x=14, got %v", m.Globals["x"])
	}
	if m.Globals["y"].Num != 20 {
		t.Fatalf("expected y=20, got %v", m.Globals["y"])
	}
}

func TestIfElseBranching(t *testing.T) {
	_, m := run(t, `
global result = ""
if 1 < 2 do
    result = "yes"
else
    result = "no"
endif
`)
	if m.Globals["result"].Str != "yes" {
		t.Fatalf("expected yes, got %v", m.Globals["result"])
	}
}

func TestWhileLoopWithBreakContinue(t *testing.T) {
	_, m := run(t, `
global total = 0
global i = 0
while i < 10 do
    i = i + 1
    if i == 5 do
        continue
    endif
    if i == 8 do
        break
    endif
    total = total + i
endwhile
`)
	// 1+2+3+4 (skip 5) +6+7 = 23, stop before 8
	if m.Globals["total"].Num != 23 {
		t.Fatalf("expected total=23, got %v", m.Globals["total"])
	}
}

func TestForInArraySingleBind(t *testing.T) {
	_, m := run(t, `
global sum = 0
for v in [1, 2, 3, 4] do
    sum = sum + v
forend
`)
	if m.Globals["sum"].Num != 10 {
		t.Fatalf("expected sum=10, got %v", m.Globals["sum"])
	}
}

func TestForInTwoBindYieldsIndexAndValue(t *testing.T) {
	_, m := run(t, `
global idxSum = 0
global valSum = 0
for i, v in [10, 20, 30] do
    idxSum = idxSum + i
    valSum = valSum + v
forend
`)
	if m.Globals["idxSum"].Num != 3 {
		t.Fatalf("expected idxSum=3, got %v", m.Globals["idxSum"])
	}
	if m.Globals["valSum"].Num != 60 {
		t.Fatalf("expected valSum=60, got %v", m.Globals["valSum"])
	}
}

func TestFunctionCallWithDefaultAndNamedArgs(t *testing.T) {
	_, m := run(t, `
function add(a, b = 10) do
    return a + b
endfunction
global x = add(1)
global y = add(1, 2)
global z = add(a: 5, b: 1)
`)
	if m.Globals["x"].Num != 11 {
		t.Fatalf("expected x=11, got %v", m.Globals["x"])
	}
	if m.Globals["y"].Num != 3 {
		t.Fatalf("expected y=3, got %v", m.Globals["y"])
	}
	if m.Globals["z"].Num != 6 {
		t.Fatalf("expected z=6, got %v", m.Globals["z"])
	}
}

func TestClosureCaptureChaining(t *testing.T) {
	_, m := run(t, `
function makeAdder(n) do
    function adder(x) do
        return x + n
    endfunction
    return adder
endfunction
global add5 = makeAdder(5)
global result = add5(10)
`)
	if m.Globals["result"].Num != 15 {
		t.Fatalf("expected result=15, got %v", m.Globals["result"])
	}
}

func TestNestedClosureTwoLevelsDeep(t *testing.T) {
	_, m := run(t, `
function outer(a) do
    function middle(b) do
        function inner(c) do
            return a + b + c
        endfunction
        return inner
    endfunction
    return middle
endfunction
global result = outer(1)(2)(3)
`)
	if m.Globals["result"].Num != 6 {
		t.Fatalf("expected result=6, got %v", m.Globals["result"])
	}
}

func TestMemoizedRecursion(t *testing.T) {
	_, m := run(t, `
cached function fib(n) do
    if n < 2 do
        return n
    endif
    return fib(n - 1) + fib(n - 2)
endfunction
global result = fib(20)
`)
	if m.Globals["result"].Num != 6765 {
		t.Fatalf("expected fib(20)=6765, got %v", m.Globals["result"])
	}
}

func TestTryCatchBindsThrownValue(t *testing.T) {
	_, m := run(t, `
global caught = ""
try
    throw "boom"
catch e
    caught = e
endtry
`)
	if m.Globals["caught"].Str != "boom" {
		t.Fatalf("expected caught=boom, got %v", m.Globals["caught"])
	}
}

func TestTryFinallyRunsOnNormalCompletion(t *testing.T) {
	_, m := run(t, `
global ran = false
try
    global x = 1
finally
    ran = true
endtry
`)
	if !m.Globals["ran"].Bool {
		t.Fatalf("expected finally to run on normal completion")
	}
}

func TestTryFinallyRunsOnCaughtException(t *testing.T) {
	_, m := run(t, `
global ran = false
global caught = ""
try
    throw "err"
catch e
    caught = e
finally
    ran = true
endtry
`)
	if !m.Globals["ran"].Bool {
		t.Fatalf("expected finally to run alongside catch")
	}
	if m.Globals["caught"].Str != "err" {
		t.Fatalf("expected caught=err, got %v", m.Globals["caught"])
	}
}

func TestTryFinallyRunsOnUncaughtException(t *testing.T) {
	scanner := lexer.NewScanner(`
global ran = false
function boom() do
    try
        throw "uncaught"
    finally
        ran = true
    endtry
endfunction
boom()
`)
	tokens, err := scanner.ScanTokens()
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	stmts, err := parser.NewParser(tokens).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	res, err := resolver.New().Resolve(stmts)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	chunk := compiler.Compile(stmts, res)
	vm := New()
	_, runErr := vm.Run(chunk, res.TopLevel.NumLocals)
	if runErr == nil {
		t.Fatalf("expected the uncaught throw to escape Run")
	}
	if !vm.Globals["ran"].Bool {
		t.Fatalf("expected finally to run even though nothing caught the exception")
	}
}

func TestIndexAndMemberDesugarToSameAccess(t *testing.T) {
	_, m := run(t, `
global obj = {"a": 1, "b": 2}
global viaMember = obj.a
global viaIndex = obj["a"]
`)
	if m.Globals["viaMember"].Num != 1 || m.Globals["viaIndex"].Num != 1 {
		t.Fatalf("expected both member and index access to read 1, got %v / %v",
			m.Globals["viaMember"], m.Globals["viaIndex"])
	}
}

func TestCompoundAssignOnIndexTarget(t *testing.T) {
	_, m := run(t, `
global arr = [1, 2, 3]
arr[1] += 10
`)
	if m.Globals["arr"].Arr.Elements[1].Num != 12 {
		t.Fatalf("expected arr[1]=12, got %v", m.Globals["arr"].Arr.Elements[1])
	}
}

func TestSpreadCallArgument(t *testing.T) {
	_, m := run(t, `
function sum3(a, b, c) do
    return a + b + c
endfunction
global args = [1, 2, 3]
global result = sum3(*args)
`)
	if m.Globals["result"].Num != 6 {
		t.Fatalf("expected result=6, got %v", m.Globals["result"])
	}
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	runExpectError(t, `global x = 1 / 0`)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	runExpectError(t, `global x = undefinedName + 1`)
}

func TestWrongArgumentCountIsRuntimeError(t *testing.T) {
	runExpectError(t, `
function needsTwo(a, b) do
    return a + b
endfunction
global x = needsTwo(1)
`)
}

func TestJumpWidthUpgradeOverLargeIfBody(t *testing.T) {
	var src string
	src += "global total = 0\n"
	src += "if true do\n"
	for i := 0; i < 200; i++ {
		src += "    total = total + 1\n"
	}
	src += "endif\n"
	_, m := run(t, src)
	if m.Globals["total"].Num != 200 {
		t.Fatalf("expected total=200 after a large if body (exercising jump-width upgrade), got %v", m.Globals["total"])
	}
}
