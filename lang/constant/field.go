package constant

import (
	"errors"
	"fmt"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
	"github.com/mna/classgen/lang/stack"
)

var getDeclaredField = descr.MustMethod(descr.Class, "getDeclaredField",
	"(Ljava/lang/String;)Ljava/lang/reflect/Field;", descr.Public)

// Field is the recipe of the java.lang.reflect.Field object of a field. It is
// looked up by name on its declaring class:
//
//	ldc <declaring type>
//	ldc "<field name>"
//	invokevirtual java/lang/Class.getDeclaredField
type Field struct {
	field descr.Field
}

var _ Recipe = Field{}

// NewField returns the recipe of the reflective Field object of f. It fails
// if f is missing its declaring type, its name or its type. The recipe is
// identified by the declaring type, name and type of f, its modifiers are
// ignored.
func NewField(f descr.Field) (Field, error) {
	var errs []error
	if err := checkOwner(f.Owner); err != nil {
		errs = append(errs, err)
	}
	if f.Name == "" {
		errs = append(errs, errors.New("missing name"))
	}
	if f.Type.IsZero() {
		errs = append(errs, errors.New("missing type"))
	} else if f.Type == descr.Void {
		errs = append(errs, errors.New("invalid type: void"))
	}
	if err := errors.Join(errs...); err != nil {
		return Field{}, fmt.Errorf("invalid field constant %s: %w", f, err)
	}
	// the modifiers play no part in the lookup
	f.Modifiers = 0
	return Field{field: f}, nil
}

// MustField is like NewField but panics if f is invalid.
func MustField(f descr.Field) Field {
	fc, err := NewField(f)
	if err != nil {
		panic(err)
	}
	return fc
}

// Field returns the description of the field looked up by the recipe,
// without modifiers.
func (f Field) Field() descr.Field { return f.field }

// Type returns java.lang.reflect.Field.
func (f Field) Type() descr.Type { return descr.ReflectField }

// Apply emits the lookup of the field.
func (f Field) Apply(e asm.Emitter, ctx stack.Context) stack.Size {
	return stack.Compound{
		stack.ClassConstant(f.field.Owner),
		stack.TextConstant(f.field.Name),
		stack.Invoke(getDeclaredField),
	}.Apply(e, ctx)
}

// Cached returns the cached variant of the recipe.
func (f Field) Cached() stack.Manipulation { return Cache(f) }

func (f Field) String() string { return "field " + f.field.String() }
