// Package vm executes a compiled bytecode.Function: a stack of values, a
// stack of call frames, a globals table, and a dispatch loop over the
// closed bytecode.OpCode set.
//
// Upvalues are identified by arena handles (indices into VM.upvalues)
// rather than pointers into the value stack. A Go slice backing the stack
// can grow and reallocate; a raw *value.Value captured before a grow would
// point at stale memory. Handles stay valid across any stack resize.
package vm

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/google/uuid"

	"github.com/loxvm/lox/internal/bytecode"
	"github.com/loxvm/lox/internal/intern"
	"github.com/loxvm/lox/internal/kernel"
	"github.com/loxvm/lox/internal/value"
)

const (
	stackMax  = 4096
	framesMax = 256
)

// CallFrame is one activation record: the closure being executed, its
// instruction pointer, and the stack index its local slot 0 starts at.
type CallFrame struct {
	Closure *bytecode.Closure
	IP      int
	Base    int
}

// upvalueCell is one arena slot. While open is true, reads/writes go
// through stackIdx into the live stack; once closed, the value has been
// copied out and stackIdx is no longer meaningful.
type upvalueCell struct {
	open     bool
	stackIdx int
	closed   value.Value
}

// FrameView is a read-only snapshot of a CallFrame, handed to StepHook so
// tracing code can observe execution without being able to mutate it.
type FrameView struct {
	IP       int
	Base     int
	Function *bytecode.Function
}

// StepHook, if set, is invoked after every instruction executes, with a
// read-only view of the frame it ran in. It must never mutate VM state;
// it exists for tracing tools and tests, and production runs leave it nil.
type StepHook func(frame FrameView, instr bytecode.Instr)

// VM executes one program. Run resets the stack, frames and upvalues but
// keeps the globals table, so unrelated runs need a fresh VM to start with
// clean globals.
type VM struct {
	stack      []value.Value
	frames     []*CallFrame
	globals    *swiss.Map[string, value.Value]
	upvalues   []upvalueCell
	openByIdx  map[int]int
	strings    *intern.Pool
	out        kernel.Kernel
	RunID      string
	StepHook   StepHook
}

// New returns a VM that prints via k and interns global names in pool.
func New(k kernel.Kernel, pool *intern.Pool) *VM {
	return &VM{
		stack:     make([]value.Value, 0, 256),
		globals:   swiss.NewMap[string, value.Value](64),
		openByIdx: make(map[int]int),
		strings:   pool,
		out:       k,
	}
}

// RuntimeError carries the source file and line the VM was executing when
// a fault occurred.
type RuntimeError struct {
	File    string
	Line    int
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[%s:%d] %s", e.File, e.Line, e.Message)
}

// Run wraps fn in a synthetic top-level closure and executes it to
// completion. Each call stores a fresh random RunID on the VM.
func (vm *VM) Run(fn *bytecode.Function) error {
	vm.RunID = uuid.New().String()
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.upvalues = vm.upvalues[:0]
	vm.openByIdx = make(map[int]int)

	script := &bytecode.Closure{Function: fn}
	vm.push(value.NewClosure(script))
	frame := &CallFrame{Closure: script, IP: 0, Base: 0}
	vm.frames = append(vm.frames, frame)

	return vm.run()
}

func (vm *VM) push(v value.Value) {
	if len(vm.stack) >= stackMax {
		panic("stack overflow")
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	last := len(vm.stack) - 1
	v := vm.stack[last]
	vm.stack = vm.stack[:last]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) currentFrame() *CallFrame {
	return vm.frames[len(vm.frames)-1]
}

func (vm *VM) runtimeError(frame *CallFrame, format string, args ...interface{}) error {
	chunk := frame.Closure.Function.Chunk
	line := 0
	if idx := frame.IP - 1; idx >= 0 && idx < len(chunk.Lines) {
		line = chunk.Lines[idx]
	}
	return &RuntimeError{File: chunk.FileName, Line: line, Message: fmt.Sprintf(format, args...)}
}

// run is the main fetch-dispatch-execute loop. It returns when the
// outermost frame returns or a runtime error occurs.
func (vm *VM) run() error {
	for {
		frame := vm.currentFrame()
		chunk := frame.Closure.Function.Chunk
		if frame.IP >= chunk.Len() {
			if done := vm.returnFromFrame(frame, value.NewNil()); done {
				return nil
			}
			continue
		}
		instr := chunk.Read(frame.IP)
		frame.IP++

		switch instr.Op {
		case bytecode.OpConstant, bytecode.OpString:
			vm.push(chunk.Constants[instr.Operand])

		case bytecode.OpTrue:
			vm.push(value.NewBoolean(true))
		case bytecode.OpFalse:
			vm.push(value.NewBoolean(false))
		case bytecode.OpNil:
			vm.push(value.NewNil())

		case bytecode.OpAdd:
			b, a := vm.pop(), vm.pop()
			res, err := value.Add(a, b)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)
		case bytecode.OpSubtract:
			if err := vm.binaryArith(frame, value.Subtract); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.binaryArith(frame, value.Multiply); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.binaryArith(frame, value.Divide); err != nil {
				return err
			}

		case bytecode.OpNegate:
			a := vm.pop()
			res, err := value.Negate(a)
			if err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			vm.push(res)
		case bytecode.OpNot:
			vm.push(value.Not(vm.pop()))

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.NewBoolean(value.Equal(a, b)))
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.NewBoolean(!value.Equal(a, b)))

		case bytecode.OpGreater, bytecode.OpGreaterEqual, bytecode.OpLess, bytecode.OpLessEqual:
			if err := vm.binaryCompare(frame, instr.Op); err != nil {
				return err
			}

		case bytecode.OpPrint:
			vm.out.Print(vm.pop().String())

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpDefineGlobal:
			name := chunk.Constants[instr.Operand].Str
			vm.globals.Put(vm.strings.Intern(name), vm.pop())

		case bytecode.OpGetGlobal:
			name := chunk.Constants[instr.Operand].Str
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(frame, "undefined variable '%s'", name)
			}
			vm.push(v)

		case bytecode.OpSetGlobal:
			name := chunk.Constants[instr.Operand].Str
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError(frame, "undefined variable '%s'", name)
			}
			vm.globals.Put(name, vm.peek(0))

		case bytecode.OpGetLocal:
			vm.push(vm.stack[frame.Base+instr.Operand])

		case bytecode.OpSetLocal:
			vm.stack[frame.Base+instr.Operand] = vm.peek(0)

		case bytecode.OpGetUpvalue:
			handle := frame.Closure.Upvalues[instr.Operand]
			vm.push(vm.readUpvalue(handle))

		case bytecode.OpSetUpvalue:
			handle := frame.Closure.Upvalues[instr.Operand]
			vm.writeUpvalue(handle, vm.peek(0))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalue(len(vm.stack) - 1)
			vm.pop()

		case bytecode.OpJump:
			frame.IP = instr.Operand

		case bytecode.OpJumpIfFalse:
			if !value.Truthy(vm.peek(0)) {
				frame.IP = instr.Operand
			}

		case bytecode.OpCall:
			if err := vm.callValue(vm.peek(instr.Operand), instr.Operand); err != nil {
				return err
			}

		case bytecode.OpClosure:
			fn := chunk.Functions[instr.Operand]
			closure := &bytecode.Closure{Function: fn, Upvalues: make([]int, len(instr.Upvalues))}
			for i, spec := range instr.Upvalues {
				if spec.IsLocal {
					closure.Upvalues[i] = vm.captureUpvalue(frame.Base + spec.Index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[spec.Index]
				}
			}
			vm.push(value.NewClosure(closure))

		case bytecode.OpReturn:
			if done := vm.returnFromFrame(frame, vm.pop()); done {
				if vm.StepHook != nil {
					vm.StepHook(FrameView{IP: frame.IP, Base: frame.Base, Function: frame.Closure.Function}, instr)
				}
				return nil
			}

		default:
			return vm.runtimeError(frame, "unknown opcode %s", instr.Op)
		}

		if vm.StepHook != nil {
			vm.StepHook(FrameView{IP: frame.IP, Base: frame.Base, Function: frame.Closure.Function}, instr)
		}
	}
}

func (vm *VM) binaryArith(frame *CallFrame, f func(a, b value.Value) (value.Value, error)) error {
	b, a := vm.pop(), vm.pop()
	res, err := f(a, b)
	if err != nil {
		return vm.runtimeError(frame, "%s", err)
	}
	vm.push(res)
	return nil
}

func (vm *VM) binaryCompare(frame *CallFrame, op bytecode.OpCode) error {
	b, a := vm.pop(), vm.pop()
	cmp, err := value.Compare(a, b)
	if err != nil {
		return vm.runtimeError(frame, "%s", err)
	}
	var result bool
	switch op {
	case bytecode.OpGreater:
		result = cmp > 0
	case bytecode.OpGreaterEqual:
		result = cmp >= 0
	case bytecode.OpLess:
		result = cmp < 0
	case bytecode.OpLessEqual:
		result = cmp <= 0
	}
	vm.push(value.NewBoolean(result))
	return nil
}

// callValue dispatches a call to whatever is on the stack at
// stack[len-argCount-1], which must be a Closure value.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if callee.Type != value.Closure {
		return vm.runtimeError(vm.currentFrame(), "can only call functions")
	}
	closure := callee.Obj.(*bytecode.Closure)
	if argCount != closure.Function.Arity {
		return vm.runtimeError(vm.currentFrame(), "expected %d arguments but got %d", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= framesMax {
		return vm.runtimeError(vm.currentFrame(), "stack overflow")
	}
	frame := &CallFrame{
		Closure: closure,
		IP:      0,
		Base:    len(vm.stack) - argCount - 1,
	}
	vm.frames = append(vm.frames, frame)
	return nil
}

// captureUpvalue returns the arena handle for stackIdx, reusing an already
// open upvalue over that slot if one exists (so two closures that both
// capture the same local share one cell, as spec §4.4 requires).
func (vm *VM) captureUpvalue(stackIdx int) int {
	if handle, ok := vm.openByIdx[stackIdx]; ok {
		return handle
	}
	vm.upvalues = append(vm.upvalues, upvalueCell{open: true, stackIdx: stackIdx})
	handle := len(vm.upvalues) - 1
	vm.openByIdx[stackIdx] = handle
	return handle
}

func (vm *VM) readUpvalue(handle int) value.Value {
	cell := &vm.upvalues[handle]
	if cell.open {
		return vm.stack[cell.stackIdx]
	}
	return cell.closed
}

func (vm *VM) writeUpvalue(handle int, v value.Value) {
	cell := &vm.upvalues[handle]
	if cell.open {
		vm.stack[cell.stackIdx] = v
	} else {
		cell.closed = v
	}
}

// closeUpvalue hoists the single open upvalue at stackIdx (if any) off the
// stack and into its cell, for the OpCloseUpvalue emitted when one captured
// local goes out of scope.
func (vm *VM) closeUpvalue(stackIdx int) {
	handle, ok := vm.openByIdx[stackIdx]
	if !ok {
		return
	}
	cell := &vm.upvalues[handle]
	cell.closed = vm.stack[stackIdx]
	cell.open = false
	delete(vm.openByIdx, stackIdx)
}

// closeUpvaluesFrom hoists every open upvalue at or above fromIdx, used on
// OpReturn since a function's own top-level locals never get an explicit
// per-local OpCloseUpvalue (no block scope wraps the whole function body).
func (vm *VM) closeUpvaluesFrom(fromIdx int) {
	for idx := range vm.openByIdx {
		if idx >= fromIdx {
			vm.closeUpvalue(idx)
		}
	}
}

// returnFromFrame pops the current frame and delivers result to its caller,
// the shared tail of an explicit OpReturn and of running off the end of a
// chunk (an implicit Return Nil). It reports whether that was the outermost
// frame, in which case run's loop must stop instead of pushing into a
// nonexistent caller.
func (vm *VM) returnFromFrame(frame *CallFrame, result value.Value) bool {
	vm.closeUpvaluesFrom(frame.Base)
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:frame.Base]
	if len(vm.frames) == 0 {
		return true
	}
	vm.push(result)
	return false
}

// Globals exposes the global table for host-side inspection (tests, REPL
// introspection).
func (vm *VM) Globals() *swiss.Map[string, value.Value] {
	return vm.globals
}
