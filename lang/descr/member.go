package descr

import (
	"fmt"
	"strings"
)

// Modifiers is the set of access flags of a class member, with the values
// defined by the class-file format.
type Modifiers uint16

const (
	Public    Modifiers = 0x0001
	Private   Modifiers = 0x0002
	Protected Modifiers = 0x0004
	Static    Modifiers = 0x0008
	Final     Modifiers = 0x0010
	Synthetic Modifiers = 0x1000
)

var modifierNames = [...]struct {
	m    Modifiers
	name string
}{
	{Public, "public"},
	{Private, "private"},
	{Protected, "protected"},
	{Static, "static"},
	{Final, "final"},
	{Synthetic, "synthetic"},
}

// Has returns true if all modifiers in m2 are set in m.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

func (m Modifiers) String() string {
	var parts []string
	for _, mn := range modifierNames {
		if m.Has(mn.m) {
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}

// Field describes a field declared on a type.
type Field struct {
	Owner     Type
	Name      string
	Type      Type
	Modifiers Modifiers
}

// Descriptor returns the field's type descriptor.
func (f Field) Descriptor() string { return f.Type.Descriptor() }

// IsStatic returns true if the field is static.
func (f Field) IsStatic() bool { return f.Modifiers.Has(Static) }

// StackSize returns the stack size of the field's value.
func (f Field) StackSize() StackSize { return f.Type.StackSize() }

func (f Field) String() string {
	return fmt.Sprintf("%s.%s:%s", f.Owner.InternalName(), f.Name, f.Descriptor())
}

// Method describes a method or constructor declared on a type. Build it with
// NewMethod so that its descriptor is validated.
type Method struct {
	Owner     Type
	Name      string
	Modifiers Modifiers

	// Interface is true if Owner is an interface, which selects the
	// interface variant of the invocation instructions.
	Interface bool

	desc string
}

// ConstructorName is the name of instance initializers.
const ConstructorName = "<init>"

// NewMethod returns the description of the method name with the given method
// descriptor, declared on owner.
func NewMethod(owner Type, name, desc string, mods Modifiers) (Method, error) {
	if _, _, err := parseMethodDesc(desc); err != nil {
		return Method{}, err
	}
	return Method{Owner: owner, Name: name, Modifiers: mods, desc: desc}, nil
}

// MustMethod is like NewMethod but panics if desc is invalid.
func MustMethod(owner Type, name, desc string, mods Modifiers) Method {
	m, err := NewMethod(owner, name, desc, mods)
	if err != nil {
		panic(err)
	}
	return m
}

// Descriptor returns the method descriptor, e.g. "(Ljava/lang/String;)V".
func (m Method) Descriptor() string { return m.desc }

// IsStatic returns true if the method is static.
func (m Method) IsStatic() bool { return m.Modifiers.Has(Static) }

// IsConstructor returns true if the method is an instance initializer.
func (m Method) IsConstructor() bool { return m.Name == ConstructorName }

// Params returns the types of the method's parameters.
func (m Method) Params() []Type {
	params, _, _ := parseMethodDesc(m.desc)
	return params
}

// Return returns the method's return type.
func (m Method) Return() Type {
	_, ret, _ := parseMethodDesc(m.desc)
	return ret
}

// ParamsSize returns the total stack size of the method's parameters, not
// including the receiver.
func (m Method) ParamsSize() int {
	var n int
	for _, p := range m.Params() {
		n += int(p.StackSize())
	}
	return n
}

func (m Method) String() string {
	return fmt.Sprintf("%s.%s%s", m.Owner.InternalName(), m.Name, m.desc)
}

func parseMethodDesc(desc string) (params []Type, ret Type, err error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, Type{}, fmt.Errorf("invalid method descriptor %q: missing '('", desc)
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		end, err := scanFieldDesc(desc, i)
		if err != nil {
			return nil, Type{}, fmt.Errorf("invalid method descriptor %q: %w", desc, err)
		}
		params = append(params, Type{desc[i:end]})
		i = end
	}
	if i >= len(desc) {
		return nil, Type{}, fmt.Errorf("invalid method descriptor %q: missing ')'", desc)
	}
	ret, err = ParseType(desc[i+1:])
	if err != nil {
		return nil, Type{}, fmt.Errorf("invalid method descriptor %q: %w", desc, err)
	}
	return params, ret, nil
}
