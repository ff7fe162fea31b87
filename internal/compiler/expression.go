package compiler

import (
	"github.com/loxvm/lox/internal/ast"
	"github.com/loxvm/lox/internal/bytecode"
	"github.com/loxvm/lox/internal/value"
)

func (c *Compiler) compileExpr(expr ast.Expression) {
	if expr == nil {
		c.emit(bytecode.OpNil, 0)
		return
	}
	c.setLine(expr.Span().Line)
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emit(bytecode.OpConstant, c.chunk.AddConstant(value.NewNumber(e.Value)))
	case *ast.StringLiteral:
		c.emit(bytecode.OpString, c.chunk.AddConstant(value.NewString(c.pool.Intern(e.Value))))
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(bytecode.OpTrue, 0)
		} else {
			c.emit(bytecode.OpFalse, 0)
		}
	case *ast.NilLiteral:
		c.emit(bytecode.OpNil, 0)
	case *ast.Identifier:
		c.compileNameRead(e.Value)
	case *ast.UnaryExpr:
		c.compileExpr(e.Right)
		switch e.Operator {
		case "-":
			c.emit(bytecode.OpNegate, 0)
		case "!":
			c.emit(bytecode.OpNot, 0)
		}
	case *ast.BinaryExpr:
		c.compileExpr(e.Left)
		c.compileExpr(e.Right)
		c.emitBinaryOp(e.Operator)
	case *ast.LogicalExpr:
		c.compileLogicalExpr(e)
	case *ast.AssignExpr:
		c.compileExpr(e.Value)
		c.compileNameWrite(e.Name)
	case *ast.CallExpr:
		c.compileExpr(e.Callee)
		for _, arg := range e.Arguments {
			c.compileExpr(arg)
		}
		c.emit(bytecode.OpCall, len(e.Arguments))
	}
}

func (c *Compiler) emitBinaryOp(operator string) {
	switch operator {
	case "+":
		c.emit(bytecode.OpAdd, 0)
	case "-":
		c.emit(bytecode.OpSubtract, 0)
	case "*":
		c.emit(bytecode.OpMultiply, 0)
	case "/":
		c.emit(bytecode.OpDivide, 0)
	case "==":
		c.emit(bytecode.OpEqual, 0)
	case "!=":
		c.emit(bytecode.OpNotEqual, 0)
	case "<":
		c.emit(bytecode.OpLess, 0)
	case "<=":
		c.emit(bytecode.OpLessEqual, 0)
	case ">":
		c.emit(bytecode.OpGreater, 0)
	case ">=":
		c.emit(bytecode.OpGreaterEqual, 0)
	}
}

// compileLogicalExpr emits short-circuit jumps for 'and'/'or' instead of
// unconditionally evaluating both sides.
func (c *Compiler) compileLogicalExpr(e *ast.LogicalExpr) {
	c.compileExpr(e.Left)
	switch e.Operator {
	case "and":
		endJump := c.emitJump(bytecode.OpJumpIfFalse)
		c.emit(bytecode.OpPop, 0)
		c.compileExpr(e.Right)
		c.patchJump(endJump)
	case "or":
		elseJump := c.emitJump(bytecode.OpJumpIfFalse)
		endJump := c.emitJump(bytecode.OpJump)
		c.patchJump(elseJump)
		c.emit(bytecode.OpPop, 0)
		c.compileExpr(e.Right)
		c.patchJump(endJump)
	}
}

func (c *Compiler) compileNameRead(name string) {
	if idx, ok := c.resolveLocal(name); ok {
		c.emit(bytecode.OpGetLocal, idx)
		return
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emit(bytecode.OpGetUpvalue, idx)
		return
	}
	c.emit(bytecode.OpGetGlobal, c.stringConstant(name))
}

func (c *Compiler) compileNameWrite(name string) {
	if idx, ok := c.resolveLocal(name); ok {
		c.emit(bytecode.OpSetLocal, idx)
		return
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		c.emit(bytecode.OpSetUpvalue, idx)
		return
	}
	c.emit(bytecode.OpSetGlobal, c.stringConstant(name))
}
