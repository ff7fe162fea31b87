package parser

import (
	"testing"

	"github.com/loxvm/lox/internal/ast"
	"github.com/loxvm/lox/internal/lexer"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := New(lexer.New(src))
	prog := p.ParseProgram()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, p.Errors())
	}
	return prog
}

func TestParseArithmeticPrecedence(t *testing.T) {
	prog := parseProgram(t, "1 + 2 * 3;")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	stmt, ok := prog.Statements[0].(*ast.ExpressionStmt)
	if !ok {
		t.Fatalf("expected ExpressionStmt, got %T", prog.Statements[0])
	}
	bin, ok := stmt.Expression.(*ast.BinaryExpr)
	if !ok || bin.Operator != "+" {
		t.Fatalf("expected top-level '+', got %#v", stmt.Expression)
	}
	right, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || right.Operator != "*" {
		t.Fatalf("expected '*' nested under '+', got %#v", bin.Right)
	}
}

func TestParseVarDeclarationWithoutInitializer(t *testing.T) {
	prog := parseProgram(t, "var x;")
	stmt, ok := prog.Statements[0].(*ast.VarStmt)
	if !ok {
		t.Fatalf("expected VarStmt, got %T", prog.Statements[0])
	}
	if stmt.Name != "x" || stmt.Value != nil {
		t.Fatalf("got name=%q value=%v, want name=x value=nil", stmt.Name, stmt.Value)
	}
}

func TestParseIfElse(t *testing.T) {
	prog := parseProgram(t, `if (x) { print 1; } else { print 2; }`)
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Statements[0])
	}
	if stmt.Then == nil || stmt.Else == nil {
		t.Fatalf("expected both branches to be parsed")
	}
}

func TestParseFunctionWithParams(t *testing.T) {
	prog := parseProgram(t, `fun add(a, b) { return a + b; }`)
	stmt, ok := prog.Statements[0].(*ast.FunStmt)
	if !ok {
		t.Fatalf("expected FunStmt, got %T", prog.Statements[0])
	}
	if stmt.Name != "add" || len(stmt.Params) != 2 {
		t.Fatalf("got name=%q params=%v", stmt.Name, stmt.Params)
	}
}

func TestParseCallExpression(t *testing.T) {
	prog := parseProgram(t, `add(1, 2 + 3);`)
	stmt := prog.Statements[0].(*ast.ExpressionStmt)
	call, ok := stmt.Expression.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected CallExpr, got %T", stmt.Expression)
	}
	if len(call.Arguments) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(call.Arguments))
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	prog := parseProgram(t, `a = b = 1;`)
	stmt := prog.Statements[0].(*ast.ExpressionStmt)
	assign, ok := stmt.Expression.(*ast.AssignExpr)
	if !ok || assign.Name != "a" {
		t.Fatalf("expected outer assignment to 'a', got %#v", stmt.Expression)
	}
	if _, ok := assign.Value.(*ast.AssignExpr); !ok {
		t.Fatalf("expected nested assignment as the value, got %#v", assign.Value)
	}
}

func TestParseInvalidAssignmentTargetReportsDiagnostic(t *testing.T) {
	p := New(lexer.New(`1 = 2;`))
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a diagnostic for an invalid assignment target")
	}
}

func TestParseMissingSemicolonReportsDiagnostic(t *testing.T) {
	p := New(lexer.New(`var x = 1`))
	p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a diagnostic for a missing ';'")
	}
}

func TestParseLogicalOperatorsStayDistinctFromBinary(t *testing.T) {
	prog := parseProgram(t, `a or b and c;`)
	stmt := prog.Statements[0].(*ast.ExpressionStmt)
	logical, ok := stmt.Expression.(*ast.LogicalExpr)
	if !ok || logical.Operator != "or" {
		t.Fatalf("expected top-level 'or' LogicalExpr, got %#v", stmt.Expression)
	}
	if _, ok := logical.Right.(*ast.LogicalExpr); !ok {
		t.Fatalf("expected nested 'and' LogicalExpr, got %#v", logical.Right)
	}
}
