package classfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
)

// Code is an asm.Emitter that encodes instructions as JVM bytecode, adding
// the constants they reference to the constant pool of the class file being
// written. The first encoding error is recorded and reported by Err; once
// an error is recorded, further instructions are ignored.
type Code struct {
	pool *pool
	buf  []byte
	err  error
}

var _ asm.Emitter = (*Code)(nil)

// Bytes returns the encoded bytecode.
func (c *Code) Bytes() []byte { return c.buf }

// Err returns the first error encountered while encoding.
func (c *Code) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.pool.err
}

func (c *Code) fail(op asm.Opcode, format string, args ...any) {
	if c.err == nil {
		c.err = fmt.Errorf("%s at offset %d: %s", op, len(c.buf), fmt.Sprintf(format, args...))
	}
}

func (c *Code) check(op asm.Opcode, kind asm.Kind) bool {
	if c.err != nil {
		return false
	}
	if op.Kind() != kind {
		c.fail(op, "unexpected opcode for this instruction form")
		return false
	}
	return true
}

func (c *Code) u1(v uint8) { c.buf = append(c.buf, v) }

func (c *Code) u2(v uint16) { c.buf = binary.BigEndian.AppendUint16(c.buf, v) }

func (c *Code) Insn(op asm.Opcode) {
	if c.check(op, asm.KindInsn) {
		c.u1(uint8(op))
	}
}

func (c *Code) IntInsn(op asm.Opcode, operand int) {
	if !c.check(op, asm.KindInt) {
		return
	}
	switch op {
	case asm.BIPUSH:
		if operand < math.MinInt8 || operand > math.MaxInt8 {
			c.fail(op, "operand out of range: %d", operand)
			return
		}
		c.u1(uint8(op))
		c.u1(uint8(int8(operand)))
	case asm.SIPUSH:
		if operand < math.MinInt16 || operand > math.MaxInt16 {
			c.fail(op, "operand out of range: %d", operand)
			return
		}
		c.u1(uint8(op))
		c.u2(uint16(int16(operand)))
	}
}

func (c *Code) TypeInsn(op asm.Opcode, internalName string) {
	if c.check(op, asm.KindType) {
		c.u1(uint8(op))
		c.u2(c.pool.class(internalName))
	}
}

func (c *Code) LdcInsn(v any) {
	if !c.check(asm.LDC, asm.KindLdc) {
		return
	}

	var ix uint16
	switch v := v.(type) {
	case string:
		ix = c.pool.string(v)
	case int32:
		ix = c.pool.integer(v)
	case descr.Type:
		if v.IsZero() || v.IsPrimitive() {
			c.fail(asm.LDC, "invalid class constant: %q", v.Descriptor())
			return
		}
		ix = c.pool.class(v.InternalName())
	default:
		c.fail(asm.LDC, "unsupported constant type %T", v)
		return
	}

	if ix <= math.MaxUint8 {
		c.u1(uint8(asm.LDC))
		c.u1(uint8(ix))
		return
	}
	c.u1(uint8(asm.LDC_W))
	c.u2(ix)
}

func (c *Code) FieldInsn(op asm.Opcode, owner, name, desc string) {
	if c.check(op, asm.KindField) {
		c.u1(uint8(op))
		c.u2(c.pool.fieldref(owner, name, desc))
	}
}

func (c *Code) MethodInsn(op asm.Opcode, owner, name, desc string, iface bool) {
	if !c.check(op, asm.KindMethod) {
		return
	}

	c.u1(uint8(op))
	c.u2(c.pool.methodref(owner, name, desc, iface || op == asm.INVOKEINTERFACE))
	if op == asm.INVOKEINTERFACE {
		m, err := descr.NewMethod(descr.ObjectType(owner), name, desc, 0)
		if err != nil {
			c.fail(op, "%s", err)
			return
		}
		// count of argument slots including the receiver, then a zero byte
		c.u1(uint8(m.ParamsSize() + 1))
		c.u1(0)
	}
}
