// Package classfile writes JVM class files. It encodes the listing of a
// class (an asm.Class) to the binary class-file format, and provides the
// Builder that generates the methods of a class with stack manipulations and
// merges the synthetic fields and initializer code of its generation context
// into it.
package classfile

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
)

// Class file header.
const (
	Magic        = 0xCAFEBABE
	MajorVersion = 52 // Java 8
	MinorVersion = 0
)

const accSuper = 0x0020

// Encode encodes the class c to the class-file format. The class is public
// and has no interface and no attribute other than the Code of its methods.
func Encode(c *asm.Class) ([]byte, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("missing class name")
	}
	super := c.Super
	if super == "" {
		super = descr.Object.InternalName()
	}

	p := newPool()
	thisIx, superIx := p.class(c.Name), p.class(super)
	codeIx := p.utf8("Code")

	// the body is encoded first as it fills the constant pool
	var body []byte
	body = binary.BigEndian.AppendUint16(body, uint16(descr.Public|accSuper))
	body = binary.BigEndian.AppendUint16(body, thisIx)
	body = binary.BigEndian.AppendUint16(body, superIx)
	body = binary.BigEndian.AppendUint16(body, 0) // interfaces

	if len(c.Fields) > math.MaxUint16 {
		return nil, fmt.Errorf("%s: too many fields: %d", c.Name, len(c.Fields))
	}
	body = binary.BigEndian.AppendUint16(body, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		if _, err := descr.ParseType(f.Desc); err != nil {
			return nil, fmt.Errorf("%s: field %s: %w", c.Name, f.Name, err)
		}
		body = binary.BigEndian.AppendUint16(body, uint16(f.Modifiers))
		body = binary.BigEndian.AppendUint16(body, p.utf8(f.Name))
		body = binary.BigEndian.AppendUint16(body, p.utf8(f.Desc))
		body = binary.BigEndian.AppendUint16(body, 0) // attributes
	}

	if len(c.Methods) > math.MaxUint16 {
		return nil, fmt.Errorf("%s: too many methods: %d", c.Name, len(c.Methods))
	}
	body = binary.BigEndian.AppendUint16(body, uint16(len(c.Methods)))
	for _, fn := range c.Methods {
		b, err := encodeMethod(p, codeIx, fn)
		if err != nil {
			return nil, fmt.Errorf("%s: method %s%s: %w", c.Name, fn.Name, fn.Desc, err)
		}
		body = append(body, b...)
	}
	body = binary.BigEndian.AppendUint16(body, 0) // attributes

	if p.err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, p.err)
	}

	out := make([]byte, 0, 10+len(p.buf)+len(body))
	out = binary.BigEndian.AppendUint32(out, Magic)
	out = binary.BigEndian.AppendUint16(out, MinorVersion)
	out = binary.BigEndian.AppendUint16(out, MajorVersion)
	out = binary.BigEndian.AppendUint16(out, uint16(p.count))
	out = append(out, p.buf...)
	return append(out, body...), nil
}

func encodeMethod(p *pool, codeIx uint16, fn *asm.Function) ([]byte, error) {
	if _, err := descr.NewMethod(descr.Object, fn.Name, fn.Desc, fn.Modifiers); err != nil {
		return nil, err
	}
	if fn.MaxStack < 0 || fn.MaxStack > math.MaxUint16 {
		return nil, fmt.Errorf("invalid max stack: %d", fn.MaxStack)
	}
	if fn.MaxLocals < 0 || fn.MaxLocals > math.MaxUint16 {
		return nil, fmt.Errorf("invalid max locals: %d", fn.MaxLocals)
	}

	code := &Code{pool: p}
	fn.Emit(code)
	if err := code.Err(); err != nil {
		return nil, err
	}
	if n := len(code.Bytes()); n == 0 || n > math.MaxUint16 {
		return nil, fmt.Errorf("invalid code length: %d", n)
	}

	var b []byte
	b = binary.BigEndian.AppendUint16(b, uint16(fn.Modifiers))
	b = binary.BigEndian.AppendUint16(b, p.utf8(fn.Name))
	b = binary.BigEndian.AppendUint16(b, p.utf8(fn.Desc))
	b = binary.BigEndian.AppendUint16(b, 1) // attributes

	// Code attribute: max_stack, max_locals, code_length, code,
	// exception_table_length, attributes_count
	bc := code.Bytes()
	b = binary.BigEndian.AppendUint16(b, codeIx)
	b = binary.BigEndian.AppendUint32(b, uint32(2+2+4+len(bc)+2+2))
	b = binary.BigEndian.AppendUint16(b, uint16(fn.MaxStack))
	b = binary.BigEndian.AppendUint16(b, uint16(fn.MaxLocals))
	b = binary.BigEndian.AppendUint32(b, uint32(len(bc)))
	b = append(b, bc...)
	b = binary.BigEndian.AppendUint16(b, 0)
	b = binary.BigEndian.AppendUint16(b, 0)
	return b, nil
}
