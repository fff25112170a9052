package classfile

import (
	"errors"
	"fmt"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
	"github.com/mna/classgen/lang/gen"
	"github.com/mna/classgen/lang/stack"
)

// InitializerName is the name of the class initializer method.
const InitializerName = "<clinit>"

// Builder generates the methods of a class. Each method body is a stack
// manipulation applied with the generation context of the class, and Build
// merges the synthetic fields and the initializer code of that context into
// the class.
type Builder struct {
	name  descr.Type
	super descr.Type
	ctx   *gen.Context

	fields  []asm.FieldDecl
	methods []*asm.Function
	sigs    map[string]bool // name+descriptor of defined methods
	init    *asm.Recorder
	initSz  stack.Size
	built   bool
}

// NewBuilder returns a builder of the class name that extends super (or
// java.lang.Object if super is the zero Type). The options configure the
// generation context of the class.
func NewBuilder(name, super descr.Type, opts ...gen.Option) *Builder {
	if super.IsZero() {
		super = descr.Object
	}
	return &Builder{
		name:  name,
		super: super,
		ctx:   gen.NewContext(name, opts...),
		sigs:  make(map[string]bool),
	}
}

// Context returns the generation context of the class.
func (b *Builder) Context() *gen.Context { return b.ctx }

// DefineField declares a field of the class. The field is not initialized.
func (b *Builder) DefineField(name string, typ descr.Type, mods descr.Modifiers) error {
	if b.built {
		return fmt.Errorf("%s: class already built", b.name.InternalName())
	}
	if name == "" {
		return errors.New("missing field name")
	}
	if typ.IsZero() || typ == descr.Void {
		return fmt.Errorf("invalid type for field %s: %q", name, typ.Descriptor())
	}
	if err := b.ctx.Declare(name); err != nil {
		return err
	}
	b.fields = append(b.fields, asm.FieldDecl{Modifiers: mods, Name: name, Desc: typ.Descriptor()})
	return nil
}

// DefineMethod defines a method of the class with the given body. The body
// must leave the stack balanced and end with a return instruction. The max
// stack of the method is the maximal size of the body, and its max locals
// the size of its parameters (including the receiver of instance methods).
//
// It returns a *gen.CollisionError if caching a constant of the body
// produces a synthetic field with the name of an existing member.
func (b *Builder) DefineMethod(name, desc string, mods descr.Modifiers, body stack.Manipulation) (err error) {
	if b.built {
		return fmt.Errorf("%s: class already built", b.name.InternalName())
	}
	m, err := descr.NewMethod(b.name, name, desc, mods)
	if err != nil {
		return err
	}
	switch {
	case name == "":
		return errors.New("missing method name")
	case name == InitializerName:
		return fmt.Errorf("%s: use DefineInitializer to define the class initializer", b.name.InternalName())
	case b.sigs[name+desc]:
		return fmt.Errorf("%s: method %s%s already defined", b.name.InternalName(), name, desc)
	}

	defer catchCollision(&err)

	var rec asm.Recorder
	size := body.Apply(&rec, b.ctx)
	locals := m.ParamsSize()
	if !m.IsStatic() {
		locals++
	}
	b.sigs[name+desc] = true
	b.methods = append(b.methods, &asm.Function{
		Name:      name,
		Desc:      desc,
		Modifiers: mods,
		MaxStack:  size.Maximal,
		MaxLocals: locals,
		Code:      rec.Insns,
	})
	return nil
}

// DefineInitializer appends body to the class initializer. The code that
// initializes the synthetic fields of the generation context runs before
// it. The body must leave the stack balanced and must not return.
func (b *Builder) DefineInitializer(body stack.Manipulation) (err error) {
	if b.built {
		return fmt.Errorf("%s: class already built", b.name.InternalName())
	}
	defer catchCollision(&err)

	if b.init == nil {
		b.init = new(asm.Recorder)
	}
	b.initSz = b.initSz.Aggregate(body.Apply(b.init, b.ctx))
	return nil
}

// Build finalizes the generation context and returns the listing of the
// class. The synthetic fields of the context are declared after the defined
// fields, and the class initializer stores their values before running the
// code added with DefineInitializer. The Builder cannot be used once Build
// has been called.
func (b *Builder) Build() (c *asm.Class, err error) {
	if b.built {
		return nil, fmt.Errorf("%s: class already built", b.name.InternalName())
	}
	b.built = true
	defer catchCollision(&err)

	var rec asm.Recorder
	synth, size := b.ctx.Finalize(&rec)
	for _, f := range synth {
		b.fields = append(b.fields, asm.FieldDecl{Modifiers: f.Modifiers, Name: f.Name, Desc: f.Descriptor()})
	}

	if b.init != nil {
		b.init.Replay(&rec)
		size = size.Aggregate(b.initSz)
	}
	if len(rec.Insns) > 0 {
		size = size.Aggregate(stack.MethodReturn(descr.Void).Apply(&rec, b.ctx))
		b.methods = append(b.methods, &asm.Function{
			Name:      InitializerName,
			Desc:      "()V",
			Modifiers: descr.Static,
			MaxStack:  size.Maximal,
			Code:      rec.Insns,
		})
	}

	return &asm.Class{
		Name:    b.name.InternalName(),
		Super:   b.super.InternalName(),
		Fields:  b.fields,
		Methods: b.methods,
	}, nil
}

// catchCollision recovers a panic with a *gen.CollisionError and stores it
// in *err. Other panics are propagated.
func catchCollision(err *error) {
	if e := recover(); e != nil {
		ce, ok := e.(*gen.CollisionError)
		if !ok {
			panic(e)
		}
		*err = ce
	}
}
