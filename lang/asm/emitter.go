// Package asm defines the instruction emitter that stack manipulations write
// to, an in-memory recorder of emitted instructions, and a human-readable
// listing format for classes made of recorded instructions.
package asm

import (
	"fmt"
	"strconv"

	"github.com/mna/classgen/lang/descr"
)

// Emitter receives instructions in program order. The operands are in the
// symbolic form used by the class-file constant pool (internal names and
// descriptors); resolving them to pool indices is up to the implementation.
type Emitter interface {
	// Insn emits an instruction without operand.
	Insn(op Opcode)
	// IntInsn emits BIPUSH or SIPUSH.
	IntInsn(op Opcode, operand int)
	// TypeInsn emits an instruction that takes a class operand (NEW,
	// ANEWARRAY, CHECKCAST), identified by its internal name.
	TypeInsn(op Opcode, internalName string)
	// LdcInsn emits a load of a constant from the constant pool. The value
	// must be a string, an int32 or a descr.Type.
	LdcInsn(v any)
	// FieldInsn emits a field access instruction.
	FieldInsn(op Opcode, owner, name, desc string)
	// MethodInsn emits a method invocation instruction. The iface flag is
	// true if the owner is an interface.
	MethodInsn(op Opcode, owner, name, desc string, iface bool)
}

// Insn is a recorded instruction. Which fields are set depends on the kind of
// the opcode.
type Insn struct {
	Op Opcode

	// Operand is the immediate operand of KindInt instructions.
	Operand int

	// Const is the constant of KindLdc instructions: a string, an int32 or a
	// descr.Type.
	Const any

	// Owner is the internal name of the class operand of KindType
	// instructions, and the owner of the member of KindField and KindMethod
	// instructions.
	Owner string
	Name  string
	Desc  string

	Interface bool
}

// Emit emits the instruction to e.
func (i Insn) Emit(e Emitter) {
	switch i.Op.Kind() {
	case KindInt:
		e.IntInsn(i.Op, i.Operand)
	case KindType:
		e.TypeInsn(i.Op, i.Owner)
	case KindLdc:
		e.LdcInsn(i.Const)
	case KindField:
		e.FieldInsn(i.Op, i.Owner, i.Name, i.Desc)
	case KindMethod:
		e.MethodInsn(i.Op, i.Owner, i.Name, i.Desc, i.Interface)
	default:
		e.Insn(i.Op)
	}
}

func (i Insn) String() string {
	switch i.Op.Kind() {
	case KindInt:
		return fmt.Sprintf("%s %d", i.Op, i.Operand)
	case KindType:
		return fmt.Sprintf("%s %s", i.Op, i.Owner)
	case KindLdc:
		return fmt.Sprintf("%s %s", i.Op, formatConst(i.Const))
	case KindField:
		return fmt.Sprintf("%s %s.%s %s", i.Op, i.Owner, i.Name, i.Desc)
	case KindMethod:
		s := fmt.Sprintf("%s %s.%s %s", i.Op, i.Owner, i.Name, i.Desc)
		if i.Interface && i.Op != INVOKEINTERFACE {
			s += " +interface"
		}
		return s
	default:
		return i.Op.String()
	}
}

func formatConst(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case int32:
		return "int " + strconv.FormatInt(int64(v), 10)
	case descr.Type:
		return "type " + v.Descriptor()
	default:
		return fmt.Sprintf("invalid(%T)", v)
	}
}

// Recorder is an Emitter that records the instructions in memory. The zero
// value is ready to use.
type Recorder struct {
	Insns []Insn
}

var _ Emitter = (*Recorder)(nil)

func (r *Recorder) Insn(op Opcode) {
	r.Insns = append(r.Insns, Insn{Op: op})
}

func (r *Recorder) IntInsn(op Opcode, operand int) {
	r.Insns = append(r.Insns, Insn{Op: op, Operand: operand})
}

func (r *Recorder) TypeInsn(op Opcode, internalName string) {
	r.Insns = append(r.Insns, Insn{Op: op, Owner: internalName})
}

func (r *Recorder) LdcInsn(v any) {
	r.Insns = append(r.Insns, Insn{Op: LDC, Const: v})
}

func (r *Recorder) FieldInsn(op Opcode, owner, name, desc string) {
	r.Insns = append(r.Insns, Insn{Op: op, Owner: owner, Name: name, Desc: desc})
}

func (r *Recorder) MethodInsn(op Opcode, owner, name, desc string, iface bool) {
	r.Insns = append(r.Insns, Insn{Op: op, Owner: owner, Name: name, Desc: desc, Interface: iface})
}

// Replay emits all recorded instructions to e, in order.
func (r *Recorder) Replay(e Emitter) {
	for _, insn := range r.Insns {
		insn.Emit(e)
	}
}
