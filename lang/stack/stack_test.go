package stack

import (
	"fmt"
	"testing"

	"github.com/mna/classgen/lang/asm"
	"github.com/mna/classgen/lang/descr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	getDeclaredField = descr.MustMethod(descr.Class, "getDeclaredField", "(Ljava/lang/String;)Ljava/lang/reflect/Field;", descr.Public)
	currentTime      = descr.MustMethod(descr.ObjectType("java/lang/System"), "currentTimeMillis", "()J", descr.Public|descr.Static)
	listSize         = descr.MustMethod(descr.ObjectType("java/util/List"), "size", "()I", descr.Public)
	privateHelper    = descr.MustMethod(descr.ObjectType("foo/Bar"), "helper", "(JI)V", descr.Private)
	objectInit       = descr.MustMethod(descr.Object, descr.ConstructorName, "()V", descr.Public)
	longField        = descr.Field{Owner: descr.ObjectType("foo/Bar"), Name: "count", Type: descr.Long, Modifiers: descr.Static}
	refField         = descr.Field{Owner: descr.ObjectType("foo/Bar"), Name: "ref", Type: descr.ReflectField, Modifiers: descr.Static}
)

func init() {
	listSize.Interface = true
}

func TestSizeAggregate(t *testing.T) {
	cases := []struct {
		a, b, want Size
	}{
		{Size{}, Size{}, Size{}},
		{Size{1, 1}, Size{}, Size{1, 1}},
		{Size{}, Size{1, 1}, Size{1, 1}},
		{Size{1, 1}, Size{1, 1}, Size{2, 2}},
		{Size{2, 2}, Size{-1, 0}, Size{1, 2}},
		{Size{1, 3}, Size{1, 1}, Size{2, 3}},
		{Size{-2, 0}, Size{1, 1}, Size{-1, 0}},
		{Size{0, 4}, Size{2, 2}, Size{2, 4}},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s then %s", c.a, c.b), func(t *testing.T) {
			assert.Equal(t, c.want, c.a.Aggregate(c.b))
		})
	}
}

func TestLeafSizes(t *testing.T) {
	cases := []struct {
		desc  string
		m     Manipulation
		size  Size
		insns []asm.Insn
	}{
		{"trivial", Trivial{}, Size{0, 0}, nil},
		{"text", TextConstant("foo"), Size{1, 1}, []asm.Insn{{Op: asm.LDC, Const: "foo"}}},
		{"class ref", ClassConstant(descr.String), Size{1, 1}, []asm.Insn{{Op: asm.LDC, Const: descr.String}}},
		{"class primitive", ClassConstant(descr.Int), Size{1, 1}, []asm.Insn{
			{Op: asm.GETSTATIC, Owner: "java/lang/Integer", Name: "TYPE", Desc: "Ljava/lang/Class;"}}},
		{"int -1", IntegerConstant(-1), Size{1, 1}, []asm.Insn{{Op: asm.ICONST_M1}}},
		{"int 5", IntegerConstant(5), Size{1, 1}, []asm.Insn{{Op: asm.ICONST_5}}},
		{"int 6", IntegerConstant(6), Size{1, 1}, []asm.Insn{{Op: asm.BIPUSH, Operand: 6}}},
		{"int -129", IntegerConstant(-129), Size{1, 1}, []asm.Insn{{Op: asm.SIPUSH, Operand: -129}}},
		{"int 40000", IntegerConstant(40000), Size{1, 1}, []asm.Insn{{Op: asm.LDC, Const: int32(40000)}}},
		{"null", NullConstant{}, Size{1, 1}, []asm.Insn{{Op: asm.ACONST_NULL}}},
		{"dup single", Duplication(descr.StackSingle), Size{1, 1}, []asm.Insn{{Op: asm.DUP}}},
		{"dup double", Duplication(descr.StackDouble), Size{2, 2}, []asm.Insn{{Op: asm.DUP2}}},
		{"dup zero", Duplication(descr.StackZero), Size{0, 0}, nil},
		{"pop single", Removal(descr.StackSingle), Size{-1, 0}, []asm.Insn{{Op: asm.POP}}},
		{"pop double", Removal(descr.StackDouble), Size{-2, 0}, []asm.Insn{{Op: asm.POP2}}},
		{"aastore", ArrayStore{}, Size{-3, 0}, []asm.Insn{{Op: asm.AASTORE}}},
		{"return void", MethodReturn(descr.Void), Size{0, 0}, []asm.Insn{{Op: asm.RETURN}}},
		{"return long", MethodReturn(descr.Long), Size{-2, 0}, []asm.Insn{{Op: asm.LRETURN}}},
		{"return ref", MethodReturn(descr.Object), Size{-1, 0}, []asm.Insn{{Op: asm.ARETURN}}},
		{"return boolean", MethodReturn(descr.Boolean), Size{-1, 0}, []asm.Insn{{Op: asm.IRETURN}}},
		{"invoke virtual", Invoke(getDeclaredField), Size{-1, 0}, []asm.Insn{
			{Op: asm.INVOKEVIRTUAL, Owner: "java/lang/Class", Name: "getDeclaredField", Desc: "(Ljava/lang/String;)Ljava/lang/reflect/Field;"}}},
		{"invoke static", Invoke(currentTime), Size{2, 2}, []asm.Insn{
			{Op: asm.INVOKESTATIC, Owner: "java/lang/System", Name: "currentTimeMillis", Desc: "()J"}}},
		{"invoke interface", Invoke(listSize), Size{0, 0}, []asm.Insn{
			{Op: asm.INVOKEINTERFACE, Owner: "java/util/List", Name: "size", Desc: "()I", Interface: true}}},
		{"invoke private", Invoke(privateHelper), Size{-4, 0}, []asm.Insn{
			{Op: asm.INVOKESPECIAL, Owner: "foo/Bar", Name: "helper", Desc: "(JI)V"}}},
		{"invoke constructor", Invoke(objectInit), Size{-1, 0}, []asm.Insn{
			{Op: asm.INVOKESPECIAL, Owner: "java/lang/Object", Name: "<init>", Desc: "()V"}}},
		{"get static double", FieldAccess(longField).Read(), Size{2, 2}, []asm.Insn{
			{Op: asm.GETSTATIC, Owner: "foo/Bar", Name: "count", Desc: "J"}}},
		{"put static double", FieldAccess(longField).Write(), Size{-2, 0}, []asm.Insn{
			{Op: asm.PUTSTATIC, Owner: "foo/Bar", Name: "count", Desc: "J"}}},
		{"get static single", FieldAccess(refField).Read(), Size{1, 1}, []asm.Insn{
			{Op: asm.GETSTATIC, Owner: "foo/Bar", Name: "ref", Desc: "Ljava/lang/reflect/Field;"}}},
		{"new array", NewArray{Component: descr.Class, Length: 2}, Size{1, 1}, []asm.Insn{
			{Op: asm.ICONST_2}, {Op: asm.ANEWARRAY, Owner: "java/lang/Class"}}},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			var rec asm.Recorder
			size := c.m.Apply(&rec, nil)
			assert.Equal(t, c.size, size)
			assert.Equal(t, c.insns, rec.Insns)
			assert.GreaterOrEqual(t, size.Maximal, 0)
			assert.GreaterOrEqual(t, size.Maximal, size.Impact)
		})
	}
}

func TestArrayOf(t *testing.T) {
	var rec asm.Recorder
	size := ArrayOf{
		Component: descr.Class,
		Values:    []Manipulation{ClassConstant(descr.Long), ClassConstant(descr.String)},
	}.Apply(&rec, nil)

	// array, array dup, index, value
	assert.Equal(t, Size{1, 4}, size)
	want := []asm.Insn{
		{Op: asm.ICONST_2},
		{Op: asm.ANEWARRAY, Owner: "java/lang/Class"},
		{Op: asm.DUP},
		{Op: asm.ICONST_0},
		{Op: asm.GETSTATIC, Owner: "java/lang/Long", Name: "TYPE", Desc: "Ljava/lang/Class;"},
		{Op: asm.AASTORE},
		{Op: asm.DUP},
		{Op: asm.ICONST_1},
		{Op: asm.LDC, Const: descr.String},
		{Op: asm.AASTORE},
	}
	assert.Equal(t, want, rec.Insns)
}

func TestCompound(t *testing.T) {
	var rec asm.Recorder
	assert.Equal(t, Size{}, Compound{}.Apply(&rec, nil))
	assert.Equal(t, Size{}, Compound(nil).Apply(&rec, nil))
	assert.Empty(t, rec.Insns)

	size := Compound{
		ClassConstant(descr.ObjectType("foo/Bar")),
		TextConstant("baz"),
		Invoke(getDeclaredField),
	}.Apply(&rec, nil)
	assert.Equal(t, Size{1, 2}, size)
	require.Len(t, rec.Insns, 3)
	assert.Equal(t, asm.INVOKEVIRTUAL, rec.Insns[2].Op)
}

func TestCompoundAssociativity(t *testing.T) {
	parts := []Manipulation{
		Trivial{},
		TextConstant("a"),
		Removal(descr.StackSingle),
		Removal(descr.StackDouble),
		Duplication(descr.StackDouble),
		Invoke(getDeclaredField),
		Invoke(currentTime),
		FieldAccess(longField).Write(),
		Compound{TextConstant("x"), TextConstant("y"), Removal(descr.StackDouble)},
	}
	for _, a := range parts {
		for _, b := range parts {
			for _, c := range parts {
				var r1, r2, r3 asm.Recorder
				left := Compound{Compound{a, b}, c}.Apply(&r1, nil)
				right := Compound{a, Compound{b, c}}.Apply(&r2, nil)
				flat := Compound{a, b, c}.Apply(&r3, nil)
				require.Equal(t, left, right, "%#v %#v %#v", a, b, c)
				require.Equal(t, left, flat, "%#v %#v %#v", a, b, c)
				require.Equal(t, r1.Insns, r2.Insns)
			}
		}
	}
}
