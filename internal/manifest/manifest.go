// Package manifest loads the TOML description of a class to generate and
// generates it. A manifest names the class, the members it declares
// explicitly and, for each of its methods, the constants that the method
// pushes.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/classfile"
	"github.com/mna/classgen/lang/constant"
	"github.com/mna/classgen/lang/descr"
	"github.com/mna/classgen/lang/gen"
	"github.com/mna/classgen/lang/stack"
	"github.com/pelletier/go-toml/v2"
)

// Kinds of constants.
const (
	KindField  = "field"
	KindMethod = "method"
)

// Manifest is the description of a class to generate.
type Manifest struct {
	Class   Class    `toml:"class"`
	Methods []Method `toml:"method"`
}

// Class describes the generated class.
type Class struct {
	// Name is the internal name of the class, e.g. "com/example/Lookups".
	Name string `toml:"name"`

	// Super is the internal name of the super class, java/lang/Object if
	// empty.
	Super string `toml:"super"`

	// Declared lists the names of the members declared explicitly on the
	// class. Synthetic fields never take one of those names.
	Declared []string `toml:"declared"`

	// Suffix overrides the suffix of the synthetic field names.
	Suffix string `toml:"suffix"`
}

// Method describes a generated method. The method is private and static, it
// pushes each of its constants in order and returns the last one.
type Method struct {
	Name      string     `toml:"name"`
	Constants []Constant `toml:"constants"`
}

// Constant describes a reflective constant: a field (with its type) or a
// method or constructor (with its descriptor).
type Constant struct {
	Kind       string `toml:"kind"`
	Owner      string `toml:"owner"`
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	Descriptor string `toml:"descriptor"`
	Static     bool   `toml:"static"`
	Interface  bool   `toml:"interface"`
}

// Load reads and parses the manifest file at path.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse parses and validates the manifest in b. Unknown keys are rejected.
func Parse(b []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var (
			derr *toml.DecodeError
			serr *toml.StrictMissingError
		)
		switch {
		case errors.As(err, &derr):
			row, col := derr.Position()
			return nil, fmt.Errorf("%d:%d: %w", row, col, err)
		case errors.As(err, &serr):
			errs := make([]error, len(serr.Errors))
			for i := range serr.Errors {
				row, col := serr.Errors[i].Position()
				errs[i] = fmt.Errorf("%d:%d: unknown key %s", row, col, strings.Join(serr.Errors[i].Key(), "."))
			}
			return nil, errors.Join(errs...)
		}
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate returns the errors of the manifest joined together, or nil if it
// is valid.
func (m *Manifest) Validate() error {
	var errs []error
	if _, err := internalName(m.Class.Name); err != nil {
		errs = append(errs, fmt.Errorf("class name: %w", err))
	}
	if m.Class.Super != "" {
		if _, err := internalName(m.Class.Super); err != nil {
			errs = append(errs, fmt.Errorf("class super: %w", err))
		}
	}

	names := make(map[string]bool)
	for _, d := range m.Class.Declared {
		names[d] = true
	}
	for i, meth := range m.Methods {
		if meth.Name == "" {
			errs = append(errs, fmt.Errorf("method %d: missing name", i+1))
			continue
		}
		if names[meth.Name] {
			errs = append(errs, fmt.Errorf("method %s: name already declared", meth.Name))
		}
		names[meth.Name] = true
		for j, c := range meth.Constants {
			if _, err := c.Recipe(); err != nil {
				errs = append(errs, fmt.Errorf("method %s: constant %d: %w", meth.Name, j+1, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Recipe returns the recipe of the constant.
func (c Constant) Recipe() (constant.Recipe, error) {
	owner, err := internalName(c.Owner)
	if err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}

	switch c.Kind {
	case KindField:
		if c.Descriptor != "" || c.Interface {
			return nil, errors.New("descriptor and interface are only valid for methods")
		}
		if c.Type == "" {
			return nil, errors.New("missing field type")
		}
		typ, err := descr.ParseType(c.Type)
		if err != nil {
			return nil, err
		}
		var mods descr.Modifiers
		if c.Static {
			mods |= descr.Static
		}
		return constant.NewField(descr.Field{Owner: owner, Name: c.Name, Type: typ, Modifiers: mods})

	case KindMethod:
		if c.Type != "" {
			return nil, errors.New("type is only valid for fields")
		}
		if c.Descriptor == "" {
			return nil, errors.New("missing method descriptor")
		}
		var mods descr.Modifiers
		if c.Static {
			mods |= descr.Static
		}
		m, err := descr.NewMethod(owner, c.Name, c.Descriptor, mods)
		if err != nil {
			return nil, err
		}
		m.Interface = c.Interface
		return constant.NewMethod(m)

	case "":
		return nil, errors.New("missing kind")
	default:
		return nil, fmt.Errorf("invalid kind: %q", c.Kind)
	}
}

func internalName(s string) (descr.Type, error) {
	if s == "" {
		return descr.Type{}, errors.New("missing internal name")
	}
	t, err := descr.ParseType("L" + s + ";")
	if err != nil {
		return descr.Type{}, fmt.Errorf("invalid internal name %q", s)
	}
	return t, nil
}

// MethodDescriptor is the descriptor of the generated methods.
const MethodDescriptor = "()Ljava/lang/Object;"

// Generate generates the class described by the manifest. Constants are
// cached in synthetic fields unless direct is true. The options configure
// the generation context of the class, the suffix of the manifest takes
// precedence over a WithSuffix option.
func (m *Manifest) Generate(direct bool, opts ...gen.Option) (*asm.Class, error) {
	name, err := internalName(m.Class.Name)
	if err != nil {
		return nil, err
	}
	var super descr.Type
	if m.Class.Super != "" {
		if super, err = internalName(m.Class.Super); err != nil {
			return nil, err
		}
	}

	opts = append(opts, gen.WithDeclaredMembers(m.Class.Declared...))
	if m.Class.Suffix != "" {
		opts = append(opts, gen.WithSuffix(m.Class.Suffix))
	}
	b := classfile.NewBuilder(name, super, opts...)

	for _, meth := range m.Methods {
		body, err := methodBody(meth, direct)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", meth.Name, err)
		}
		if err := b.DefineMethod(meth.Name, MethodDescriptor, descr.Private|descr.Static, body); err != nil {
			return nil, fmt.Errorf("method %s: %w", meth.Name, err)
		}
	}
	return b.Build()
}

// methodBody returns the manipulation that pushes each constant, drops all
// but the last and returns it (or null if there is no constant).
func methodBody(meth Method, direct bool) (stack.Manipulation, error) {
	if len(meth.Constants) == 0 {
		return stack.Compound{stack.NullConstant{}, stack.MethodReturn(descr.Object)}, nil
	}

	body := make(stack.Compound, 0, 2*len(meth.Constants))
	for i, c := range meth.Constants {
		r, err := c.Recipe()
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i+1, err)
		}
		if i > 0 {
			body = append(body, stack.Removal(descr.StackSingle))
		}
		if direct {
			body = append(body, r)
		} else {
			body = append(body, r.Cached())
		}
	}
	return append(body, stack.MethodReturn(descr.Object)), nil
}
