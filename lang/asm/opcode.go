package asm

import "fmt"

// Opcode is a JVM instruction opcode. Only the opcodes that the stack
// manipulations emit are defined.
type Opcode uint8

// "x DUP x x" is a "stack picture" that describes the state of the stack
// before and after execution of the instruction.
const ( //nolint:revive
	NOP         Opcode = 0x00 // - NOP -
	ACONST_NULL Opcode = 0x01 // - ACONST_NULL null
	ICONST_M1   Opcode = 0x02 // - ICONST_M1 -1
	ICONST_0    Opcode = 0x03 // - ICONST_0 0
	ICONST_1    Opcode = 0x04
	ICONST_2    Opcode = 0x05
	ICONST_3    Opcode = 0x06
	ICONST_4    Opcode = 0x07
	ICONST_5    Opcode = 0x08
	BIPUSH      Opcode = 0x10 // - BIPUSH<byte> int
	SIPUSH      Opcode = 0x11 // - SIPUSH<short> int
	LDC         Opcode = 0x12 // - LDC<constant> value
	LDC_W       Opcode = 0x13 // - LDC_W<constant> value
	LDC2_W      Opcode = 0x14 // - LDC2_W<constant> value (long, double)
	ALOAD_0     Opcode = 0x2a // - ALOAD_0 this

	AASTORE Opcode = 0x53 // array index value AASTORE -
	POP     Opcode = 0x57 // x POP -
	POP2    Opcode = 0x58 // x y POP2 -   (or a single long/double)
	DUP     Opcode = 0x59 // x DUP x x
	DUP2    Opcode = 0x5c // x y DUP2 x y x y   (or a single long/double)

	IRETURN Opcode = 0xac // value IRETURN -
	LRETURN Opcode = 0xad
	FRETURN Opcode = 0xae
	DRETURN Opcode = 0xaf
	ARETURN Opcode = 0xb0
	RETURN  Opcode = 0xb1 // - RETURN -

	GETSTATIC       Opcode = 0xb2 //                - GETSTATIC<field>     value
	PUTSTATIC       Opcode = 0xb3 //            value PUTSTATIC<field>     -
	GETFIELD        Opcode = 0xb4 //              obj GETFIELD<field>      value
	PUTFIELD        Opcode = 0xb5 //        obj value PUTFIELD<field>      -
	INVOKEVIRTUAL   Opcode = 0xb6 //  obj arg1...argN INVOKEVIRTUAL<method> result
	INVOKESPECIAL   Opcode = 0xb7 //  obj arg1...argN INVOKESPECIAL<method> result
	INVOKESTATIC    Opcode = 0xb8 //      arg1...argN INVOKESTATIC<method>  result
	INVOKEINTERFACE Opcode = 0xb9 //  obj arg1...argN INVOKEINTERFACE<method> result

	NEW       Opcode = 0xbb //       - NEW<class>       obj
	ANEWARRAY Opcode = 0xbd //  length ANEWARRAY<class> array
	CHECKCAST Opcode = 0xc0 //     obj CHECKCAST<class> obj

	OpcodeMax = CHECKCAST
)

var opcodeNames = [...]string{
	AASTORE:         "aastore",
	ACONST_NULL:     "aconst_null",
	ALOAD_0:         "aload_0",
	ANEWARRAY:       "anewarray",
	ARETURN:         "areturn",
	BIPUSH:          "bipush",
	CHECKCAST:       "checkcast",
	DRETURN:         "dreturn",
	DUP2:            "dup2",
	DUP:             "dup",
	FRETURN:         "freturn",
	GETFIELD:        "getfield",
	GETSTATIC:       "getstatic",
	ICONST_0:        "iconst_0",
	ICONST_1:        "iconst_1",
	ICONST_2:        "iconst_2",
	ICONST_3:        "iconst_3",
	ICONST_4:        "iconst_4",
	ICONST_5:        "iconst_5",
	ICONST_M1:       "iconst_m1",
	INVOKEINTERFACE: "invokeinterface",
	INVOKESPECIAL:   "invokespecial",
	INVOKESTATIC:    "invokestatic",
	INVOKEVIRTUAL:   "invokevirtual",
	IRETURN:         "ireturn",
	LDC2_W:          "ldc2_w",
	LDC:             "ldc",
	LDC_W:           "ldc_w",
	LRETURN:         "lreturn",
	NEW:             "new",
	NOP:             "nop",
	POP2:            "pop2",
	POP:             "pop",
	PUTFIELD:        "putfield",
	PUTSTATIC:       "putstatic",
	RETURN:          "return",
	SIPUSH:          "sipush",
}

var reverseLookupOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, s := range opcodeNames {
		if s != "" {
			m[s] = Opcode(op)
		}
	}
	return m
}()

// Kind classifies opcodes by the Emitter method that emits them.
type Kind uint8

//nolint:revive
const (
	KindIllegal Kind = iota
	KindInsn         // no operand
	KindInt          // BIPUSH, SIPUSH
	KindType         // NEW, ANEWARRAY, CHECKCAST
	KindLdc          // LDC, LDC_W, LDC2_W
	KindField        // GET/PUT STATIC/FIELD
	KindMethod       // INVOKE*
)

// Kind returns the kind of the opcode.
func (op Opcode) Kind() Kind {
	switch op {
	case BIPUSH, SIPUSH:
		return KindInt
	case NEW, ANEWARRAY, CHECKCAST:
		return KindType
	case LDC, LDC_W, LDC2_W:
		return KindLdc
	case GETSTATIC, PUTSTATIC, GETFIELD, PUTFIELD:
		return KindField
	case INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC, INVOKEINTERFACE:
		return KindMethod
	}
	if op <= OpcodeMax && opcodeNames[op] != "" {
		return KindInsn
	}
	return KindIllegal
}

func (op Opcode) String() string {
	if op <= OpcodeMax {
		if name := opcodeNames[op]; name != "" {
			return name
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}
