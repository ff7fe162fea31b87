// Package compiler lowers a parsed statement tree into a bytecode.Chunk,
// resolving variable references to local slots, upvalue indices, or named
// globals, and patching forward jumps for control flow.
//
// One Compiler exists per function being compiled. Nested function
// declarations push a child Compiler that holds a one-way pointer back to
// its enclosing Compiler — never the reverse — so there is no cyclic
// compiler<->enclosing-compiler reference to manage; resolution simply
// walks that chain outward.
package compiler

import (
	"github.com/loxvm/lox/internal/ast"
	"github.com/loxvm/lox/internal/bytecode"
	"github.com/loxvm/lox/internal/diag"
	"github.com/loxvm/lox/internal/intern"
	"github.com/loxvm/lox/internal/token"
	"github.com/loxvm/lox/internal/value"
)

const (
	maxLocals   = 256
	maxUpvalues = 256
)

// local is a compile-time record of a declared local variable: its name,
// the scope depth it was declared at, and whether any nested closure
// captures it (which changes how its slot is torn down on scope exit).
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// Compiler compiles one function body (or the top-level script) into a
// bytecode.Chunk.
type Compiler struct {
	enclosing *Compiler

	chunk      *bytecode.Chunk
	locals     []local
	scopeDepth int
	upvalues   []bytecode.UpvalueSpec

	line  int
	diags *diag.Bag
	pool  *intern.Pool
}

// New returns a Compiler for the top-level script.
func New(diags *diag.Bag, pool *intern.Pool, fileName string) *Compiler {
	c := &Compiler{
		chunk: bytecode.New(),
		diags: diags,
		pool:  pool,
		line:  1,
	}
	c.chunk.FileName = fileName
	// Slot 0 is reserved for the running closure itself (see spec §4.3).
	c.locals = append(c.locals, local{name: "", depth: 0})
	return c
}

func newChild(enclosing *Compiler) *Compiler {
	c := &Compiler{
		enclosing:  enclosing,
		chunk:      bytecode.New(),
		diags:      enclosing.diags,
		pool:       enclosing.pool,
		scopeDepth: 1,
		line:       enclosing.line,
	}
	c.chunk.FileName = enclosing.chunk.FileName
	c.locals = append(c.locals, local{name: "", depth: 1})
	return c
}

// Compile compiles prog into the top-level Function template. It never
// stops at the first error; inspect diags.HasErrors() after return.
func (c *Compiler) Compile(prog *ast.Program) *bytecode.Function {
	for _, stmt := range prog.Statements {
		c.compileStatement(stmt)
	}
	c.emit(bytecode.OpNil, 0)
	c.emit(bytecode.OpReturn, 0)
	return &bytecode.Function{Name: "script", Arity: 0, Chunk: c.chunk}
}

// --- emission helpers ---

func (c *Compiler) setLine(line int) {
	if line > 0 {
		c.line = line
	}
}

func (c *Compiler) emit(op bytecode.OpCode, operand int) int {
	return c.chunk.Emit(bytecode.Instr{Op: op, Operand: operand}, c.line)
}

// emitJump emits a jump with a placeholder target and returns its index so
// the caller can patchJump it once the real target is known.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	return c.emit(op, -1)
}

// patchJump rewrites the jump at idx to target the chunk's current end.
func (c *Compiler) patchJump(idx int) {
	instr := c.chunk.Read(idx)
	instr.Operand = c.chunk.Len()
	c.chunk.Patch(idx, instr)
}

func (c *Compiler) stringConstant(s string) int {
	return c.chunk.AddConstant(value.NewString(c.pool.Intern(s)))
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

// endScope pops (or closes, for captured locals) every local declared at a
// depth deeper than the scope being left, per spec §4.1's Block rule.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		last := c.locals[len(c.locals)-1]
		if last.isCaptured {
			c.emit(bytecode.OpCloseUpvalue, 0)
		} else {
			c.emit(bytecode.OpPop, 0)
		}
		c.locals = c.locals[:len(c.locals)-1]
	}
}

func (c *Compiler) addLocal(name string) int {
	if len(c.locals) >= maxLocals {
		c.diags.Add(token.Span{}, "too many local variables in one function")
		return len(c.locals) - 1
	}
	c.locals = append(c.locals, local{name: name, depth: c.scopeDepth})
	return len(c.locals) - 1
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if idx, ok := c.enclosing.resolveLocal(name); ok {
		c.enclosing.locals[idx].isCaptured = true
		return c.addUpvalue(idx, true), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(idx, false), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(index int, isLocal bool) int {
	for i, u := range c.upvalues {
		if u.Index == index && u.IsLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		c.diags.Add(token.Span{}, "too many captured variables in one function")
	}
	c.upvalues = append(c.upvalues, bytecode.UpvalueSpec{Index: index, IsLocal: isLocal})
	return len(c.upvalues) - 1
}
