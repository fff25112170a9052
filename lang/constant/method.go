package constant

import (
	"errors"
	"fmt"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
	"github.com/mna/classgen/lang/stack"
)

var (
	getDeclaredMethod = descr.MustMethod(descr.Class, "getDeclaredMethod",
		"(Ljava/lang/String;[Ljava/lang/Class;)Ljava/lang/reflect/Method;", descr.Public)
	getDeclaredConstructor = descr.MustMethod(descr.Class, "getDeclaredConstructor",
		"([Ljava/lang/Class;)Ljava/lang/reflect/Constructor;", descr.Public)
)

// Method is the recipe of the java.lang.reflect.Method (or Constructor)
// object of a method. It is looked up on its declaring class by name and
// parameter types:
//
//	ldc <declaring type>
//	ldc "<method name>"         (not for constructors)
//	<new Class[] of the parameter types>
//	invokevirtual java/lang/Class.getDeclaredMethod (or getDeclaredConstructor)
type Method struct {
	method descr.Method
}

var _ Recipe = Method{}

// NewMethod returns the recipe of the reflective object of m. It fails if m
// is missing its declaring type, its name or its descriptor, or if it is a
// class initializer, which cannot be looked up. Like for NewField, only the
// declaring type, name and descriptor identify the recipe.
func NewMethod(m descr.Method) (Method, error) {
	var errs []error
	if err := checkOwner(m.Owner); err != nil {
		errs = append(errs, err)
	}
	switch m.Name {
	case "":
		errs = append(errs, errors.New("missing name"))
	case "<clinit>":
		errs = append(errs, errors.New("class initializer cannot be looked up"))
	}
	if m.Descriptor() == "" {
		errs = append(errs, errors.New("missing descriptor"))
	}
	if err := errors.Join(errs...); err != nil {
		return Method{}, fmt.Errorf("invalid method constant %s: %w", m, err)
	}
	m.Modifiers = 0
	m.Interface = false
	return Method{method: m}, nil
}

// MustMethod is like NewMethod but panics if m is invalid.
func MustMethod(m descr.Method) Method {
	mc, err := NewMethod(m)
	if err != nil {
		panic(err)
	}
	return mc
}

// Method returns the description of the method looked up by the recipe,
// without modifiers.
func (m Method) Method() descr.Method { return m.method }

// Type returns java.lang.reflect.Constructor for constructors,
// java.lang.reflect.Method otherwise.
func (m Method) Type() descr.Type {
	if m.method.IsConstructor() {
		return descr.ReflectConstructor
	}
	return descr.ReflectMethod
}

// Apply emits the lookup of the method.
func (m Method) Apply(e asm.Emitter, ctx stack.Context) stack.Size {
	params := m.method.Params()
	classes := make([]stack.Manipulation, len(params))
	for i, p := range params {
		classes[i] = stack.ClassConstant(p)
	}
	paramTypes := stack.ArrayOf{Component: descr.Class, Values: classes}

	if m.method.IsConstructor() {
		return stack.Compound{
			stack.ClassConstant(m.method.Owner),
			paramTypes,
			stack.Invoke(getDeclaredConstructor),
		}.Apply(e, ctx)
	}
	return stack.Compound{
		stack.ClassConstant(m.method.Owner),
		stack.TextConstant(m.method.Name),
		paramTypes,
		stack.Invoke(getDeclaredMethod),
	}.Apply(e, ctx)
}

// Cached returns the cached variant of the recipe.
func (m Method) Cached() stack.Manipulation { return Cache(m) }

func (m Method) String() string { return "method " + m.method.String() }
