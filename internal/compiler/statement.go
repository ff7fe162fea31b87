package compiler

import (
	"github.com/loxvm/lox/internal/ast"
	"github.com/loxvm/lox/internal/bytecode"
)

func (c *Compiler) compileStatement(stmt ast.Statement) {
	if stmt == nil {
		return
	}
	c.setLine(stmt.Span().Line)
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		c.compileExpr(s.Expression)
		c.emit(bytecode.OpPop, 0)
	case *ast.PrintStmt:
		c.compileExpr(s.Value)
		c.emit(bytecode.OpPrint, 0)
	case *ast.VarStmt:
		c.compileVarStmt(s)
	case *ast.BlockStmt:
		c.beginScope()
		for _, st := range s.Statements {
			c.compileStatement(st)
		}
		c.endScope()
	case *ast.IfStmt:
		c.compileIfStmt(s)
	case *ast.WhileStmt:
		c.compileWhileStmt(s)
	case *ast.ForStmt:
		c.compileForStmt(s)
	case *ast.FunStmt:
		c.compileFunStmt(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.emit(bytecode.OpNil, 0)
		}
		c.emit(bytecode.OpReturn, 0)
	}
}

func (c *Compiler) compileVarStmt(s *ast.VarStmt) {
	if s.Value != nil {
		c.compileExpr(s.Value)
	} else {
		c.emit(bytecode.OpNil, 0)
	}
	if c.scopeDepth > 0 {
		c.addLocal(s.Name)
		return
	}
	idx := c.stringConstant(s.Name)
	c.emit(bytecode.OpDefineGlobal, idx)
}

func (c *Compiler) compileIfStmt(s *ast.IfStmt) {
	c.compileExpr(s.Condition)
	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop, 0)
	c.compileStatement(s.Then)
	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emit(bytecode.OpPop, 0)
	if s.Else != nil {
		c.compileStatement(s.Else)
	}
	c.patchJump(elseJump)
}

func (c *Compiler) compileWhileStmt(s *ast.WhileStmt) {
	loopStart := c.chunk.Len()
	c.compileExpr(s.Condition)
	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop, 0)
	c.compileStatement(s.Body)
	c.emit(bytecode.OpJump, loopStart)
	c.patchJump(exitJump)
	c.emit(bytecode.OpPop, 0)
}

// compileForStmt wraps the whole statement in its own scope: an Init clause
// that declares a local (the common `for (var i = 0; ...)` form) must have
// that local torn down — and closed, if captured — when the loop exits,
// exactly like any other block-scoped local.
func (c *Compiler) compileForStmt(s *ast.ForStmt) {
	c.beginScope()
	if s.Init != nil {
		c.compileStatement(s.Init)
	}

	loopStart := c.chunk.Len()
	if s.Condition != nil {
		c.compileExpr(s.Condition)
	} else {
		c.emit(bytecode.OpTrue, 0)
	}
	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emit(bytecode.OpPop, 0)

	c.compileStatement(s.Body)

	if s.Post != nil {
		c.compileExpr(s.Post)
		c.emit(bytecode.OpPop, 0)
	}
	c.emit(bytecode.OpJump, loopStart)

	c.patchJump(exitJump)
	c.emit(bytecode.OpPop, 0)
	c.endScope()
}

func (c *Compiler) compileFunStmt(s *ast.FunStmt) {
	fn := c.compileFunction(s.Name, s.Params, s.Body)
	idx := c.chunk.AddFunction(fn)
	c.chunk.Emit(bytecode.Instr{Op: bytecode.OpClosure, Operand: idx, Upvalues: fn.UpvalueSpecs}, c.line)

	if c.scopeDepth > 0 {
		c.addLocal(s.Name)
		return
	}
	nameIdx := c.stringConstant(s.Name)
	c.emit(bytecode.OpDefineGlobal, nameIdx)
}

// compileFunction compiles body as a nested function and returns its
// template. The enclosing Compiler's own upvalue/local bookkeeping is
// updated by resolveUpvalue calls made while compiling body.
func (c *Compiler) compileFunction(name string, params []string, body *ast.BlockStmt) *bytecode.Function {
	child := newChild(c)
	for _, p := range params {
		child.addLocal(p)
	}
	for _, st := range body.Statements {
		child.compileStatement(st)
	}
	child.emit(bytecode.OpNil, 0)
	child.emit(bytecode.OpReturn, 0)

	return &bytecode.Function{
		Name:         name,
		Arity:        len(params),
		Chunk:        child.chunk,
		UpvalueSpecs: child.upvalues,
	}
}
