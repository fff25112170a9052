package stack

import (
	"math"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
)

// TextConstant pushes a string constant.
type TextConstant string

func (t TextConstant) Apply(e asm.Emitter, _ Context) Size {
	e.LdcInsn(string(t))
	return increasing(1)
}

// ClassConstant pushes the Class object of a type. Reference types are loaded
// from the constant pool, primitive types (and void) are read from the TYPE
// field of their wrapper class.
type ClassConstant descr.Type

func (c ClassConstant) Apply(e asm.Emitter, _ Context) Size {
	t := descr.Type(c)
	if t.IsPrimitive() {
		e.FieldInsn(asm.GETSTATIC, t.Wrapper(), "TYPE", descr.Class.Descriptor())
	} else {
		e.LdcInsn(t)
	}
	return increasing(1)
}

// IntegerConstant pushes an int constant using the shortest instruction.
type IntegerConstant int32

func (i IntegerConstant) Apply(e asm.Emitter, _ Context) Size {
	switch v := int32(i); {
	case v >= -1 && v <= 5:
		e.Insn(asm.Opcode(int32(asm.ICONST_0) + v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		e.IntInsn(asm.BIPUSH, int(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		e.IntInsn(asm.SIPUSH, int(v))
	default:
		e.LdcInsn(v)
	}
	return increasing(1)
}

// NullConstant pushes null.
type NullConstant struct{}

func (NullConstant) Apply(e asm.Emitter, _ Context) Size {
	e.Insn(asm.ACONST_NULL)
	return increasing(1)
}

// Duplication duplicates the value on top of the stack.
type Duplication descr.StackSize

func (d Duplication) Apply(e asm.Emitter, _ Context) Size {
	switch descr.StackSize(d) {
	case descr.StackZero:
		return Size{}
	case descr.StackSingle:
		e.Insn(asm.DUP)
	case descr.StackDouble:
		e.Insn(asm.DUP2)
	default:
		panic("invalid stack size for duplication: " + descr.StackSize(d).String())
	}
	return increasing(int(d))
}

// Removal pops the value on top of the stack.
type Removal descr.StackSize

func (r Removal) Apply(e asm.Emitter, _ Context) Size {
	switch descr.StackSize(r) {
	case descr.StackZero:
		return Size{}
	case descr.StackSingle:
		e.Insn(asm.POP)
	case descr.StackDouble:
		e.Insn(asm.POP2)
	default:
		panic("invalid stack size for removal: " + descr.StackSize(r).String())
	}
	return increasing(-int(r))
}

// ArrayStore stores a reference into an array: it consumes the array, the
// index and the value.
type ArrayStore struct{}

func (ArrayStore) Apply(e asm.Emitter, _ Context) Size {
	e.Insn(asm.AASTORE)
	return increasing(-3)
}

// NewArray creates an array of Length references of the Component type.
type NewArray struct {
	Component descr.Type
	Length    int32
}

func (a NewArray) Apply(e asm.Emitter, ctx Context) Size {
	size := IntegerConstant(a.Length).Apply(e, ctx)
	// the length is replaced by the array
	e.TypeInsn(asm.ANEWARRAY, a.Component.InternalName())
	return size
}

// ArrayOf creates an array of the Component type initialized with the
// values pushed by each of its Values.
type ArrayOf struct {
	Component descr.Type
	Values    []Manipulation
}

func (a ArrayOf) Apply(e asm.Emitter, ctx Context) Size {
	size := NewArray{Component: a.Component, Length: int32(len(a.Values))}.Apply(e, ctx)
	for i, v := range a.Values {
		size = size.Aggregate(Compound{
			Duplication(descr.StackSingle),
			IntegerConstant(int32(i)),
			v,
			ArrayStore{},
		}.Apply(e, ctx))
	}
	return size
}

// MethodReturn returns from the method with a value of the given type (or
// without a value for void).
type MethodReturn descr.Type

var returnOps = map[byte]asm.Opcode{
	'V': asm.RETURN,
	'J': asm.LRETURN,
	'F': asm.FRETURN,
	'D': asm.DRETURN,
	'Z': asm.IRETURN, 'B': asm.IRETURN, 'C': asm.IRETURN, 'S': asm.IRETURN, 'I': asm.IRETURN,
}

func (r MethodReturn) Apply(e asm.Emitter, _ Context) Size {
	t := descr.Type(r)
	op, ok := returnOps[t.Descriptor()[0]]
	if !ok {
		op = asm.ARETURN
	}
	e.Insn(op)
	return increasing(-int(t.StackSize()))
}

// Invoke invokes a method. The receiver (unless the method is static) and the
// arguments must be on the stack, they are replaced by the return value.
type Invoke descr.Method

func (i Invoke) Apply(e asm.Emitter, _ Context) Size {
	m := descr.Method(i)

	var op asm.Opcode
	receiver := 1
	switch {
	case m.IsStatic():
		op = asm.INVOKESTATIC
		receiver = 0
	case m.IsConstructor() || m.Modifiers.Has(descr.Private):
		op = asm.INVOKESPECIAL
	case m.Interface:
		op = asm.INVOKEINTERFACE
	default:
		op = asm.INVOKEVIRTUAL
	}
	e.MethodInsn(op, m.Owner.InternalName(), m.Name, m.Descriptor(), m.Interface)
	return increasing(int(m.Return().StackSize()) - m.ParamsSize() - receiver)
}

// FieldAccess accesses a static field.
type FieldAccess descr.Field

// Read returns the Manipulation that pushes the value of the field.
func (f FieldAccess) Read() Manipulation { return fieldGetter(f) }

// Write returns the Manipulation that pops a value and stores it in the
// field.
func (f FieldAccess) Write() Manipulation { return fieldPutter(f) }

type fieldGetter descr.Field

func (f fieldGetter) Apply(e asm.Emitter, _ Context) Size {
	fd := descr.Field(f)
	e.FieldInsn(asm.GETSTATIC, fd.Owner.InternalName(), fd.Name, fd.Descriptor())
	return increasing(int(fd.StackSize()))
}

type fieldPutter descr.Field

func (f fieldPutter) Apply(e asm.Emitter, _ Context) Size {
	fd := descr.Field(f)
	e.FieldInsn(asm.PUTSTATIC, fd.Owner.InternalName(), fd.Name, fd.Descriptor())
	return increasing(-int(fd.StackSize()))
}
