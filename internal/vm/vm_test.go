package vm

import (
	"testing"

	"github.com/loxvm/lox/internal/compiler"
	"github.com/loxvm/lox/internal/diag"
	"github.com/loxvm/lox/internal/intern"
	"github.com/loxvm/lox/internal/kernel"
	"github.com/loxvm/lox/internal/lexer"
	"github.com/loxvm/lox/internal/parser"
)

type vmTestCase struct {
	input string
	want  string
}

func runVMTests(t *testing.T, tests []vmTestCase) {
	t.Helper()
	for _, tt := range tests {
		l := lexer.New(tt.input)
		p := parser.New(l)
		prog := p.ParseProgram()
		if len(p.Errors()) > 0 {
			t.Fatalf("%q: unexpected parse errors: %v", tt.input, p.Errors())
		}
		diags := &diag.Bag{}
		pool := intern.New(8)
		fn := compiler.New(diags, pool, "test.lox").Compile(prog)
		if diags.HasErrors() {
			t.Fatalf("%q: unexpected compile diagnostics: %v", tt.input, diags.All())
		}
		out := kernel.NewBufferKernel()
		machine := New(out, pool)
		if err := machine.Run(fn); err != nil {
			t.Fatalf("%q: unexpected runtime error: %v", tt.input, err)
		}
		if got := out.String(); got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`print 1 + 2 * 3;`, "7\n"},
		{`print (1 + 2) * 3;`, "9\n"},
		{`print 2 * (5 + 10);`, "30\n"},
		{`print 10 / 2 - 1;`, "4\n"},
	})
}

func TestBlockScopeShadowing(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`
			var a = "outer";
			{
				var a = "inner";
				print a;
			}
			print a;
		`, "inner\nouter\n"},
	})
}

func TestWhileLoop(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`
			var i = 0;
			var sum = 0;
			while (i < 5) {
				sum = sum + i;
				i = i + 1;
			}
			print sum;
		`, "10\n"},
	})
}

func TestLogicalOrShortCircuit(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`print nil or "fallback";`, "fallback\n"},
		{`print "left" or "unreached";`, "left\n"},
		{`print false and "unreached";`, "false\n"},
	})
}

func TestClosureCapturesParameter(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`
			fun make(x) {
				fun inner() {
					return x;
				}
				return inner;
			}
			var f = make(42);
			print f();
		`, "42\n"},
	})
}

func TestClosureCounterPersistsAcrossCalls(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`
			fun counter() {
				var n = 0;
				fun inc() {
					n = n + 1;
					return n;
				}
				return inc;
			}
			var c = counter();
			print c();
			print c();
			print c();
		`, "1\n2\n3\n"},
	})
}

func TestClosureCapturesForLoopVariableAcrossIterations(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`
			var f = nil;
			for (var i = 0; i < 3; i = i + 1) {
				fun grab() {
					return i;
				}
				f = grab;
			}
			print f();
		`, "3\n"},
	})
}

func TestUndefinedGlobalAssignmentIsRuntimeError(t *testing.T) {
	l := lexer.New(`x = 1;`)
	p := parser.New(l)
	prog := p.ParseProgram()
	diags := &diag.Bag{}
	pool := intern.New(8)
	fn := compiler.New(diags, pool, "test.lox").Compile(prog)
	machine := New(kernel.NewBufferKernel(), pool)
	if err := machine.Run(fn); err == nil {
		t.Fatalf("expected a runtime error assigning to an undefined global")
	}
}

func TestDivisionByZeroPreservesIEEE754(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`print 1 / 0;`, "inf\n"},
	})
}
