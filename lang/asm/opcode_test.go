package asm

import (
	"strings"
	"testing"
)

func TestOpcodeString(t *testing.T) {
	for op, name := range opcodeNames {
		if name == "" {
			continue
		}
		if s := Opcode(op).String(); strings.Contains(s, "illegal") {
			t.Errorf("invalid string representation of opcode %d", op)
		}
		if got := reverseLookupOpcode[name]; got != Opcode(op) {
			t.Errorf("reverse lookup of %s: want %d, got %d", name, op, got)
		}
		if Opcode(op).Kind() == KindIllegal {
			t.Errorf("opcode %s has illegal kind", name)
		}
	}
	if s := Opcode(0xff).String(); !strings.Contains(s, "illegal") {
		t.Errorf("want illegal opcode, got %s", s)
	}
	if k := Opcode(0x20).Kind(); k != KindIllegal {
		t.Errorf("want illegal kind for undefined opcode, got %d", k)
	}
}
