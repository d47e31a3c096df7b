package vm

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"nilan/chunk"
	"nilan/value"
)

// VM is a stack-based virtual machine: the runtime environment where a
// compiled Chunk gets executed. It owns the operand stack and the
// globals table exclusively; the object allocator is shared with
// whatever Compiler produced the Chunk, so that a string interned at
// compile time and one allocated by run-time concatenation compare
// equal by identity.
type VM struct {
	stack     Stack
	globals   value.Table
	allocator *value.Allocator
	out       io.Writer
	debug     bool
}

// Option configures a VM at construction time.
type Option func(*VM)

// WithOutput redirects `print` output away from os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithDebugTrace enables the per-instruction stack/disassembly trace,
// emitted through logrus at Debug level so it never mixes with the
// program's own `print` output.
func WithDebugTrace(enabled bool) Option {
	return func(vm *VM) { vm.debug = enabled }
}

// New returns a VM sharing allocator with whatever compiled the Chunk
// it will run.
func New(allocator *value.Allocator, opts ...Option) *VM {
	vm := &VM{allocator: allocator, out: os.Stdout}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Interpret runs c from its first instruction to its terminating
// OP_RETURN. A non-nil error is a RuntimeError, or an OutputError when
// writing to the output sink fails; compile errors never reach this
// call since Compile is expected to have already failed before
// Interpret is invoked. The globals table and allocator
// survive a failed Interpret call, so a REPL can keep going after a
// runtime error on one line.
func (vm *VM) Interpret(c *chunk.Chunk) error {
	ip := 0

	for {
		if vm.debug {
			vm.traceInstruction(c, ip)
		}

		op := chunk.OpCode(c.Code[ip])
		line := c.Lines[ip]
		ip++

		switch op {
		case chunk.OpReturn:
			return nil

		case chunk.OpConstant:
			idx := c.Code[ip]
			ip++
			vm.stack.Push(c.Constants[idx])

		case chunk.OpNil:
			vm.stack.Push(value.Nil())
		case chunk.OpTrue:
			vm.stack.Push(value.Bool(true))
		case chunk.OpFalse:
			vm.stack.Push(value.Bool(false))

		case chunk.OpPop:
			vm.stack.Pop()

		case chunk.OpDefineGlobal:
			idx := c.Code[ip]
			ip++
			name := c.Constants[idx].AsObject()
			v, _ := vm.stack.Pop()
			vm.globals.Set(name, v)

		case chunk.OpGetGlobal:
			idx := c.Code[ip]
			ip++
			name := c.Constants[idx].AsObject()
			v, ok := vm.globals.Get(name)
			if !ok {
				return UndefinedVariable{Name: name.Chars, AtLine: line}
			}
			vm.stack.Push(v)

		case chunk.OpEqual:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			vm.stack.Push(value.Bool(value.Equal(a, b)))

		case chunk.OpGreater:
			if err := vm.binaryNumeric(">", line, func(a, b float64) value.Value {
				return value.Bool(a > b)
			}); err != nil {
				return err
			}
		case chunk.OpLess:
			if err := vm.binaryNumeric("<", line, func(a, b float64) value.Value {
				return value.Bool(a < b)
			}); err != nil {
				return err
			}

		case chunk.OpAdd:
			if err := vm.add(line); err != nil {
				return err
			}
		case chunk.OpSubtract:
			if err := vm.binaryNumeric("-", line, func(a, b float64) value.Value {
				return value.Number(a - b)
			}); err != nil {
				return err
			}
		case chunk.OpMultiply:
			if err := vm.binaryNumeric("*", line, func(a, b float64) value.Value {
				return value.Number(a * b)
			}); err != nil {
				return err
			}
		case chunk.OpDivide:
			if err := vm.binaryNumeric("/", line, func(a, b float64) value.Value {
				return value.Number(a / b)
			}); err != nil {
				return err
			}

		case chunk.OpNot:
			v, _ := vm.stack.Pop()
			vm.stack.Push(value.Bool(v.IsFalsey()))

		case chunk.OpNegate:
			v, _ := vm.stack.Pop()
			if !v.IsNumber() {
				return InvalidType{Operand: v, Op: "-", AtLine: line}
			}
			vm.stack.Push(value.Number(-v.AsNumber()))

		case chunk.OpPrint:
			v, _ := vm.stack.Pop()
			if _, err := io.WriteString(vm.out, v.String()); err != nil {
				return OutputError{Err: err}
			}

		default:
			return UnknownOpCode{Op: byte(op), AtLine: line}
		}
	}
}

// add implements the one polymorphic operator: numeric addition when
// both operands are numbers, string concatenation (interned through
// the shared allocator) when both are strings, InvalidTypes otherwise.
func (vm *VM) add(line int) error {
	b, _ := vm.stack.Pop()
	a, _ := vm.stack.Pop()

	switch {
	case a.IsNumber() && b.IsNumber():
		vm.stack.Push(value.Number(a.AsNumber() + b.AsNumber()))
		return nil
	case a.IsString() && b.IsString():
		concat := vm.allocator.CopyString(a.AsString() + b.AsString())
		vm.stack.Push(value.Object(concat))
		return nil
	default:
		return InvalidTypes{Left: a, Right: b, Op: "+", AtLine: line}
	}
}

// binaryNumeric pops two operands, requires both be numbers, and
// pushes combine(a, b). It covers every numeric binary op except Add,
// which also accepts strings.
func (vm *VM) binaryNumeric(op string, line int, combine func(a, b float64) value.Value) error {
	b, _ := vm.stack.Pop()
	a, _ := vm.stack.Pop()
	if !a.IsNumber() || !b.IsNumber() {
		return InvalidTypes{Left: a, Right: b, Op: op, AtLine: line}
	}
	vm.stack.Push(combine(a.AsNumber(), b.AsNumber()))
	return nil
}

// traceInstruction logs the current stack contents and the
// disassembly of the instruction about to execute, at Debug level, per
// spec's optional debug-trace format.
func (vm *VM) traceInstruction(c *chunk.Chunk, ip int) {
	rendered := make([]string, 0, len(vm.stack))
	for _, v := range vm.stack {
		rendered = append(rendered, "["+v.String()+"]")
	}
	instr, _ := c.DisassembleInstruction(ip)
	logrus.WithField("stack", rendered).Debug(instr)
}
