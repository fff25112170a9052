package asm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mna/classgen/lang/descr"
)

// This listing file implements a human-readable/writable form of a generated
// class. It supports testing of the generation layer without going through
// the binary class-file encoding, and it is what the dasm command prints.
//
// The listing format looks like this (indentation and spacing is arbitrary,
// but order of sections is important):
//
// 	class: NAME SUPER                    # required
// 		fields:                            # optional, list of fields
// 			private static final cachedValue$0 Ljava/lang/reflect/Field;
//
// 	method: NAME DESC <stack> <locals> [<modifier>...]
// 		code:                              # required, list of instructions
// 			ldc "foo"
// 			ldc int 12
// 			ldc type Ljava/lang/String;
// 			bipush 12
// 			anewarray java/lang/Class
// 			getstatic java/lang/System.out Ljava/io/PrintStream;
// 			invokevirtual java/lang/Class.getDeclaredField (Ljava/lang/String;)Ljava/lang/reflect/Field;
// 			invokestatic java/util/List.of ()Ljava/util/List; +interface

var sections = map[string]bool{
	"class:":  true,
	"fields:": true,
	"method:": true,
	"code:":   true,
}

// Class is the listing of a generated class.
type Class struct {
	Name    string // internal name
	Super   string // internal name
	Fields  []FieldDecl
	Methods []*Function
}

// FieldDecl is a field declaration in a class listing.
type FieldDecl struct {
	Modifiers descr.Modifiers
	Name      string
	Desc      string
}

// Function is the listing of a method of a class.
type Function struct {
	Name      string
	Desc      string
	Modifiers descr.Modifiers
	MaxStack  int
	MaxLocals int
	Code      []Insn
}

// Emit emits the function's code to e.
func (fn *Function) Emit(e Emitter) {
	for _, insn := range fn.Code {
		insn.Emit(e)
	}
}

var modifiersByName = func() map[string]descr.Modifiers {
	m := make(map[string]descr.Modifiers)
	for _, mn := range []descr.Modifiers{descr.Public, descr.Private, descr.Protected,
		descr.Static, descr.Final, descr.Synthetic} {
		m[mn.String()] = mn
	}
	return m
}()

// Asm loads a class from its listing textual format.
func Asm(b []byte) (*Class, error) {
	asm := asm{s: bufio.NewScanner(bytes.NewReader(b))}

	// must start with the class: section
	fields := asm.next()
	asm.class(fields)

	fields = asm.next()
	fields = asm.fields(fields)

	for asm.err == nil && len(fields) > 0 && fields[0] == "method:" {
		fields = asm.method(fields)
	}

	if asm.err == nil && len(fields) > 0 {
		asm.err = fmt.Errorf("unexpected section: %s", fields[0])
	}
	return asm.c, asm.err
}

type asm struct {
	s       *bufio.Scanner
	rawLine string // current raw line (not split in fields)
	c       *Class
	err     error
}

func (a *asm) class(fields []string) {
	if a.err != nil {
		return
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "class:") {
		msg := "expected class section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return
	}
	if len(fields) != 3 {
		a.err = fmt.Errorf("invalid class: want 3 fields: 'class: NAME SUPER', got %d fields (%s)", len(fields), strings.Join(fields, " "))
		return
	}
	a.c = &Class{Name: fields[1], Super: fields[2]}
}

func (a *asm) fields(fields []string) []string {
	if a.err != nil || len(fields) == 0 || !strings.EqualFold(fields[0], "fields:") {
		return fields
	}

	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		if len(fields) < 2 {
			a.err = fmt.Errorf("invalid field: want at least name and descriptor, got %d fields", len(fields))
			return fields
		}
		n := len(fields)
		a.c.Fields = append(a.c.Fields, FieldDecl{
			Modifiers: a.modifiers(fields[:n-2]),
			Name:      fields[n-2],
			Desc:      fields[n-1],
		})
	}
	return fields
}

func (a *asm) method(fields []string) []string {
	if len(fields) < 5 {
		a.err = fmt.Errorf("invalid method: want at least 5 fields: 'method: NAME DESC <stack> <locals> [<modifier>...]', got %d fields (%s)", len(fields), strings.Join(fields, " "))
		return a.next()
	}
	fn := Function{
		Name:      fields[1],
		Desc:      fields[2],
		MaxStack:  int(a.uint(fields[3])),
		MaxLocals: int(a.uint(fields[4])),
		Modifiers: a.modifiers(fields[5:]),
	}

	fields = a.next()
	fields = a.code(&fn, fields)
	if a.err == nil {
		a.c.Methods = append(a.c.Methods, &fn)
	}
	return fields
}

var rxLdcString = regexp.MustCompile(`^\s*ldc(?:_w)?\s+(".*)$`)

func (a *asm) code(fn *Function, fields []string) []string {
	if a.err != nil {
		return fields
	}
	if len(fields) == 0 || !strings.EqualFold(fields[0], "code:") {
		msg := "expected code section"
		if len(fields) > 0 {
			msg += ", found " + fields[0]
		}
		a.err = errors.New(msg)
		return fields
	}

	for fields = a.next(); len(fields) > 0 && !sections[fields[0]]; fields = a.next() {
		op, ok := reverseLookupOpcode[strings.ToLower(fields[0])]
		if !ok {
			a.err = fmt.Errorf("invalid opcode: %s", fields[0])
			return fields
		}

		insn := Insn{Op: op}
		want := 1
		switch op.Kind() {
		case KindInt:
			want = 2
			if len(fields) == want {
				insn.Operand = int(a.int(fields[1]))
			}
		case KindType:
			want = 2
			if len(fields) == want {
				insn.Owner = fields[1]
			}
		case KindLdc:
			insn.Const, want = a.ldc(fields)
		case KindField, KindMethod:
			want = 3
			if op.Kind() == KindMethod && len(fields) == 4 && fields[3] == "+interface" {
				insn.Interface = true
				want = 4
			}
			if len(fields) == want {
				insn.Owner, insn.Name = a.member(fields[1])
				insn.Desc = fields[2]
			}
			if op == INVOKEINTERFACE {
				insn.Interface = true
			}
		}
		if len(fields) != want {
			a.err = fmt.Errorf("expected %d fields for opcode %s, got %d", want, fields[0], len(fields))
			return fields
		}
		if a.err != nil {
			return fields
		}
		fn.Code = append(fn.Code, insn)
	}
	return fields
}

// ldc parses the constant of a ldc instruction and returns it along with the
// number of fields that the instruction should have.
func (a *asm) ldc(fields []string) (any, int) {
	// string constants may have whitespace in the value, need to extract the
	// whole quoted value from the raw line.
	if strVal := rxLdcString.FindStringSubmatch(a.rawLine); strVal != nil {
		qs, err := strconv.QuotedPrefix(strVal[1])
		if err != nil {
			a.err = fmt.Errorf("invalid string: %q: %w", strVal[1], err)
			return nil, len(fields)
		}
		s, err := strconv.Unquote(qs)
		if err != nil {
			a.err = fmt.Errorf("invalid string: %q: %w", qs, err)
		}
		return s, len(fields)
	}

	if len(fields) != 3 {
		return nil, 3
	}
	switch fields[1] {
	case "int":
		return int32(a.int(fields[2])), 3
	case "type":
		t, err := descr.ParseType(fields[2])
		if err != nil {
			a.err = err
		}
		return t, 3
	default:
		a.err = fmt.Errorf("invalid constant type: %s", fields[1])
		return nil, 3
	}
}

func (a *asm) member(s string) (owner, name string) {
	ix := strings.LastIndexByte(s, '.')
	if ix <= 0 || ix == len(s)-1 {
		a.err = fmt.Errorf("invalid member reference: %s", s)
		return "", ""
	}
	return s[:ix], s[ix+1:]
}

func (a *asm) modifiers(fields []string) descr.Modifiers {
	var m descr.Modifiers
	for _, fld := range fields {
		mm, ok := modifiersByName[fld]
		if !ok {
			a.err = fmt.Errorf("invalid modifier: %s", fld)
			return m
		}
		m |= mm
	}
	return m
}

func (a *asm) int(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		a.err = fmt.Errorf("invalid integer: %s: %w", s, err)
	}
	return i
}

func (a *asm) uint(s string) uint64 {
	u, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		a.err = fmt.Errorf("invalid unsigned integer: %s: %w", s, err)
	}
	return u
}

// returns the fields for the next non-empty, non-comment-only line, so that
// fields[0] will contain the line identification if it is a section.
func (a *asm) next() []string {
	a.rawLine = ""
	if a.err != nil {
		return nil
	}
	for a.s.Scan() {
		line := a.s.Text()
		fields := strings.Fields(line)
		if len(fields) != 0 && !strings.HasPrefix(fields[0], "#") {
			// strip comments to make rest of parsing simpler
			for i, fld := range fields {
				if strings.HasPrefix(fld, "#") {
					fields = fields[:i]
					break
				}
			}
			a.rawLine = line
			return fields
		}
	}
	a.err = a.s.Err()
	return nil
}

// Dasm writes a class to its listing textual format.
func Dasm(c *Class) ([]byte, error) {
	d := dasm{buf: new(bytes.Buffer)}
	d.writef("class: %s %s\n", c.Name, c.Super)
	if len(c.Fields) > 0 {
		d.write("\tfields:\n")
		for i, f := range c.Fields {
			d.write("\t\t")
			if f.Modifiers != 0 {
				d.writef("%s ", f.Modifiers)
			}
			d.writef("%s %s\t# %03d\n", f.Name, f.Desc, i)
		}
	}
	for _, fn := range c.Methods {
		d.write("\n")
		d.function(fn)
	}
	return d.buf.Bytes(), d.err
}

type dasm struct {
	buf *bytes.Buffer
	err error
}

func (d *dasm) function(fn *Function) {
	d.writef("method: %s %s %d %d", fn.Name, fn.Desc, fn.MaxStack, fn.MaxLocals)
	if fn.Modifiers != 0 {
		d.writef(" %s", fn.Modifiers)
	}
	d.write("\n")

	d.write("\tcode:\n")
	for i, insn := range fn.Code {
		if insn.Op.Kind() == KindIllegal {
			d.err = fmt.Errorf("invalid opcode %d in method %s, instruction %d", insn.Op, fn.Name, i)
			return
		}
		if insn.Op.Kind() == KindLdc {
			switch insn.Const.(type) {
			case string, int32, descr.Type:
			default:
				d.err = fmt.Errorf("unsupported constant type in method %s, instruction %d: %T", fn.Name, i, insn.Const)
				return
			}
		}
		d.writef("\t\t%s\t# %03d\n", insn, i)
	}
}

func (d *dasm) writef(s string, args ...any) {
	d.write(fmt.Sprintf(s, args...))
}

func (d *dasm) write(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.buf.WriteString(s)
}
