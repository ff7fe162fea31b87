package bytecode

import (
	"strings"
	"testing"

	"github.com/loxvm/lox/internal/value"
)

func TestEmitAndPatchJump(t *testing.T) {
	c := New()
	jumpIdx := c.Emit(Instr{Op: OpJumpIfFalse, Operand: -1}, 1)
	c.Emit(Instr{Op: OpPop}, 1)
	target := c.Len()
	c.Patch(jumpIdx, Instr{Op: OpJumpIfFalse, Operand: target})

	if got := c.Read(jumpIdx).Operand; got != target {
		t.Errorf("patched jump target = %d, want %d", got, target)
	}
}

func TestAddConstantAndFunctionPools(t *testing.T) {
	c := New()
	idx := c.AddConstant(value.NewNumber(42))
	if c.Constants[idx].Num != 42 {
		t.Errorf("constant pool mismatch at %d", idx)
	}

	fn := &Function{Name: "f", Arity: 0, Chunk: New()}
	fnIdx := c.AddFunction(fn)
	if c.Functions[fnIdx] != fn {
		t.Errorf("function pool mismatch at %d", fnIdx)
	}
}

func TestDisassembleIncludesUpvalueLines(t *testing.T) {
	inner := &Function{Name: "inner", Arity: 0, Chunk: New()}
	c := New()
	fnIdx := c.AddFunction(inner)
	c.Emit(Instr{
		Op:       OpClosure,
		Operand:  fnIdx,
		Upvalues: []UpvalueSpec{{Index: 0, IsLocal: true}},
	}, 1)

	out := c.Disassemble("main")
	if !strings.Contains(out, "<func inner>") {
		t.Errorf("disassembly missing function name:\n%s", out)
	}
	if !strings.Contains(out, "local 0") {
		t.Errorf("disassembly missing upvalue spec line:\n%s", out)
	}
}
