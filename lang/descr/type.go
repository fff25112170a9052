// Package descr describes the types and members that generated code refers
// to. Descriptions are plain comparable values: two descriptions are equal if
// and only if they describe the same type or member, which makes them usable
// as (parts of) map keys.
package descr

import (
	"fmt"
	"strings"
)

// StackSize is the number of operand stack slots a value occupies.
type StackSize int

const (
	StackZero   StackSize = 0 // void
	StackSingle StackSize = 1 // references, int, float, ...
	StackDouble StackSize = 2 // long and double
)

func (s StackSize) String() string {
	switch s {
	case StackZero:
		return "zero"
	case StackSingle:
		return "single"
	case StackDouble:
		return "double"
	default:
		return fmt.Sprintf("illegal stack size (%d)", int(s))
	}
}

// Type describes a JVM type by its descriptor, e.g. "I", "Ljava/lang/String;"
// or "[J". The zero value is an invalid type.
type Type struct {
	desc string
}

// Well-known types.
var (
	Void    = Type{"V"}
	Boolean = Type{"Z"}
	Byte    = Type{"B"}
	Char    = Type{"C"}
	Short   = Type{"S"}
	Int     = Type{"I"}
	Long    = Type{"J"}
	Float   = Type{"F"}
	Double  = Type{"D"}

	Object = ObjectType("java/lang/Object")
	String = ObjectType("java/lang/String")
	Class  = ObjectType("java/lang/Class")

	ReflectField       = ObjectType("java/lang/reflect/Field")
	ReflectMethod      = ObjectType("java/lang/reflect/Method")
	ReflectConstructor = ObjectType("java/lang/reflect/Constructor")
)

// wrappers maps primitive descriptors to the internal name of their boxed
// class, whose static TYPE field holds the primitive's Class object.
var wrappers = map[byte]string{
	'V': "java/lang/Void",
	'Z': "java/lang/Boolean",
	'B': "java/lang/Byte",
	'C': "java/lang/Character",
	'S': "java/lang/Short",
	'I': "java/lang/Integer",
	'J': "java/lang/Long",
	'F': "java/lang/Float",
	'D': "java/lang/Double",
}

// ObjectType returns the type of the class or interface with the given
// internal name (e.g. "java/lang/String"). If internalName starts with '[',
// it is treated as an array descriptor. An empty name returns the zero Type.
func ObjectType(internalName string) Type {
	if internalName == "" {
		return Type{}
	}
	if strings.HasPrefix(internalName, "[") {
		return Type{internalName}
	}
	return Type{"L" + internalName + ";"}
}

// ArrayOf returns the type of a one-dimensional array of elem.
func ArrayOf(elem Type) Type {
	return Type{"[" + elem.desc}
}

// ParseType parses a field descriptor (or "V") into a Type.
func ParseType(desc string) (Type, error) {
	if desc == "V" {
		return Void, nil
	}
	end, err := scanFieldDesc(desc, 0)
	if err != nil {
		return Type{}, err
	}
	if end != len(desc) {
		return Type{}, fmt.Errorf("invalid type descriptor %q: unexpected trailing characters", desc)
	}
	return Type{desc}, nil
}

// MustType is like ParseType but panics if desc is invalid.
func MustType(desc string) Type {
	t, err := ParseType(desc)
	if err != nil {
		panic(err)
	}
	return t
}

// IsZero returns true if t is the zero (invalid) Type.
func (t Type) IsZero() bool { return t.desc == "" }

// Descriptor returns the type descriptor.
func (t Type) Descriptor() string { return t.desc }

// IsPrimitive returns true for the primitive types and void.
func (t Type) IsPrimitive() bool {
	return len(t.desc) == 1
}

// IsArray returns true for array types.
func (t Type) IsArray() bool {
	return strings.HasPrefix(t.desc, "[")
}

// InternalName returns the name used to refer to the type in the constant
// pool: the slash-separated class name for classes, the descriptor for arrays
// and primitives.
func (t Type) InternalName() string {
	if strings.HasPrefix(t.desc, "L") {
		return t.desc[1 : len(t.desc)-1]
	}
	return t.desc
}

// Name returns the dotted, source-level name of the type.
func (t Type) Name() string {
	switch {
	case t.IsPrimitive():
		return primitiveNames[t.desc[0]]
	case t.IsArray():
		return Type{t.desc[1:]}.Name() + "[]"
	default:
		return strings.ReplaceAll(t.InternalName(), "/", ".")
	}
}

var primitiveNames = map[byte]string{
	'V': "void", 'Z': "boolean", 'B': "byte", 'C': "char", 'S': "short",
	'I': "int", 'J': "long", 'F': "float", 'D': "double",
}

// Wrapper returns the internal name of the boxing class of a primitive type,
// or the empty string if t is not primitive.
func (t Type) Wrapper() string {
	if !t.IsPrimitive() {
		return ""
	}
	return wrappers[t.desc[0]]
}

// StackSize returns the number of operand stack slots a value of the type
// occupies.
func (t Type) StackSize() StackSize {
	switch t.desc {
	case "V":
		return StackZero
	case "J", "D":
		return StackDouble
	default:
		return StackSingle
	}
}

func (t Type) String() string { return t.Name() }

// scanFieldDesc validates the field descriptor starting at s[i] and returns
// the index right after it.
func scanFieldDesc(s string, i int) (int, error) {
	start := i
	for i < len(s) && s[i] == '[' {
		i++
	}
	if i-start > 255 {
		return 0, fmt.Errorf("invalid type descriptor %q: too many array dimensions", s)
	}
	if i >= len(s) {
		return 0, fmt.Errorf("invalid type descriptor %q: unexpected end", s)
	}

	switch c := s[i]; c {
	case 'Z', 'B', 'C', 'S', 'I', 'J', 'F', 'D':
		return i + 1, nil
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi <= 1 {
			return 0, fmt.Errorf("invalid type descriptor %q: unterminated or empty class name", s)
		}
		name := s[i+1 : i+semi]
		if strings.ContainsAny(name, ".[") {
			return 0, fmt.Errorf("invalid type descriptor %q: invalid class name %q", s, name)
		}
		return i + semi + 1, nil
	default:
		return 0, fmt.Errorf("invalid type descriptor %q: unexpected character %q", s, c)
	}
}
