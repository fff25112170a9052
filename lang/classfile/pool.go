package classfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
)

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
)

type poolKey struct {
	tag     uint8
	a, b, c string
}

// pool is the constant pool of a class file. Constants are interned: adding
// the same constant twice returns the index of the first one.
type pool struct {
	index map[poolKey]uint16
	buf   []byte // encoded entries
	count int    // number of entries, index 0 is unused
	err   error
}

func newPool() *pool {
	return &pool{index: make(map[poolKey]uint16), count: 1}
}

func (p *pool) intern(key poolKey, encode func(b []byte) []byte) uint16 {
	if ix, ok := p.index[key]; ok {
		return ix
	}
	if p.count >= math.MaxUint16 {
		if p.err == nil {
			p.err = fmt.Errorf("constant pool overflow: more than %d entries", math.MaxUint16-1)
		}
		return 0
	}
	ix := uint16(p.count)
	p.buf = encode(append(p.buf, key.tag))
	p.count++
	p.index[key] = ix
	return ix
}

func (p *pool) utf8(s string) uint16 {
	return p.intern(poolKey{tag: tagUtf8, a: s}, func(b []byte) []byte {
		enc := modifiedUTF8(s)
		if len(enc) > math.MaxUint16 {
			if p.err == nil {
				p.err = fmt.Errorf("constant string too long: %d bytes", len(enc))
			}
			enc = enc[:0]
		}
		b = binary.BigEndian.AppendUint16(b, uint16(len(enc)))
		return append(b, enc...)
	})
}

func (p *pool) integer(v int32) uint16 {
	return p.intern(poolKey{tag: tagInteger, a: fmt.Sprint(v)}, func(b []byte) []byte {
		return binary.BigEndian.AppendUint32(b, uint32(v))
	})
}

func (p *pool) class(internalName string) uint16 {
	name := p.utf8(internalName)
	return p.intern(poolKey{tag: tagClass, a: internalName}, func(b []byte) []byte {
		return binary.BigEndian.AppendUint16(b, name)
	})
}

func (p *pool) string(s string) uint16 {
	val := p.utf8(s)
	return p.intern(poolKey{tag: tagString, a: s}, func(b []byte) []byte {
		return binary.BigEndian.AppendUint16(b, val)
	})
}

func (p *pool) nameAndType(name, desc string) uint16 {
	n, d := p.utf8(name), p.utf8(desc)
	return p.intern(poolKey{tag: tagNameAndType, a: name, b: desc}, func(b []byte) []byte {
		b = binary.BigEndian.AppendUint16(b, n)
		return binary.BigEndian.AppendUint16(b, d)
	})
}

func (p *pool) member(tag uint8, owner, name, desc string) uint16 {
	cls, nt := p.class(owner), p.nameAndType(name, desc)
	return p.intern(poolKey{tag: tag, a: owner, b: name, c: desc}, func(b []byte) []byte {
		b = binary.BigEndian.AppendUint16(b, cls)
		return binary.BigEndian.AppendUint16(b, nt)
	})
}

func (p *pool) fieldref(owner, name, desc string) uint16 {
	return p.member(tagFieldref, owner, name, desc)
}

func (p *pool) methodref(owner, name, desc string, iface bool) uint16 {
	if iface {
		return p.member(tagInterfaceMethodref, owner, name, desc)
	}
	return p.member(tagMethodref, owner, name, desc)
}

// modifiedUTF8 encodes s in the modified UTF-8 format of class files: NUL is
// encoded on two bytes and supplementary characters as surrogate pairs.
func modifiedUTF8(s string) []byte {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			b = append(b, byte(r))
		case r < 0x800:
			b = append(b, 0xc0|byte(r>>6), 0x80|byte(r&0x3f))
		case r < 0x10000:
			b = appendUnit3(b, r)
		default:
			r1, r2 := utf16.EncodeRune(r)
			b = appendUnit3(appendUnit3(b, r1), r2)
		}
	}
	return b
}

func appendUnit3(b []byte, r rune) []byte {
	return append(b, 0xe0|byte(r>>12), 0x80|byte((r>>6)&0x3f), 0x80|byte(r&0x3f))
}
