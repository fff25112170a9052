package descr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	cases := []struct {
		in       string
		internal string
		name     string
		size     StackSize
		err      string // error "contains" this err string, no error if empty
	}{
		{"V", "V", "void", StackZero, ""},
		{"I", "I", "int", StackSingle, ""},
		{"J", "J", "long", StackDouble, ""},
		{"D", "D", "double", StackDouble, ""},
		{"Ljava/lang/String;", "java/lang/String", "java.lang.String", StackSingle, ""},
		{"[I", "[I", "int[]", StackSingle, ""},
		{"[[Ljava/lang/Object;", "[[Ljava/lang/Object;", "java.lang.Object[][]", StackSingle, ""},
		{"", "", "", 0, "unexpected end"},
		{"X", "", "", 0, "unexpected character"},
		{"L;", "", "", 0, "unterminated or empty"},
		{"Ljava/lang/String", "", "", 0, "unterminated or empty"},
		{"Ljava.lang.String;", "", "", 0, "invalid class name"},
		{"II", "", "", 0, "trailing characters"},
		{"[", "", "", 0, "unexpected end"},
		{"[V", "", "", 0, "unexpected character"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			typ, err := ParseType(c.in)
			if c.err != "" {
				require.ErrorContains(t, err, c.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.in, typ.Descriptor())
			assert.Equal(t, c.internal, typ.InternalName())
			assert.Equal(t, c.name, typ.Name())
			assert.Equal(t, c.size, typ.StackSize())
		})
	}
}

func TestTypeEquality(t *testing.T) {
	assert.Equal(t, String, MustType("Ljava/lang/String;"))
	assert.True(t, ObjectType("java/lang/String") == String)
	assert.True(t, ObjectType("[I") == ArrayOf(Int))
	assert.True(t, ObjectType("").IsZero())
	assert.False(t, Object == String)
	assert.True(t, Type{}.IsZero())

	assert.Equal(t, "java/lang/Integer", Int.Wrapper())
	assert.Equal(t, "java/lang/Void", Void.Wrapper())
	assert.Equal(t, "", String.Wrapper())
}

func TestNewMethod(t *testing.T) {
	cases := []struct {
		desc   string
		params []Type
		ret    Type
		size   int
		err    string
	}{
		{"()V", nil, Void, 0, ""},
		{"(Ljava/lang/String;)Ljava/lang/reflect/Field;", []Type{String}, ReflectField, 1, ""},
		{"(IJ[Ljava/lang/Class;)D", []Type{Int, Long, ArrayOf(Class)}, Double, 4, ""},
		{"V", nil, Type{}, 0, "missing '('"},
		{"(I", nil, Type{}, 0, "missing ')'"},
		{"(V)V", nil, Type{}, 0, "unexpected character"},
		{"()", nil, Type{}, 0, "unexpected end"},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			m, err := NewMethod(Class, "m", c.desc, Public)
			if c.err != "" {
				require.ErrorContains(t, err, c.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.desc, m.Descriptor())
			assert.Equal(t, c.params, m.Params())
			assert.Equal(t, c.ret, m.Return())
			assert.Equal(t, c.size, m.ParamsSize())
		})
	}
}

func TestMemberEquality(t *testing.T) {
	f1 := Field{Owner: ObjectType("foo/Bar"), Name: "baz", Type: Int}
	f2 := Field{Owner: ObjectType("foo/Bar"), Name: "baz", Type: Int}
	f3 := Field{Owner: ObjectType("foo/Bar"), Name: "qux", Type: Int}
	assert.True(t, f1 == f2)
	assert.False(t, f1 == f3)
	assert.Equal(t, "foo/Bar.baz:I", f1.String())

	m1 := MustMethod(String, "valueOf", "(I)Ljava/lang/String;", Public|Static)
	m2 := MustMethod(String, "valueOf", "(I)Ljava/lang/String;", Public|Static)
	m3 := MustMethod(String, "valueOf", "(J)Ljava/lang/String;", Public|Static)
	assert.True(t, m1 == m2)
	assert.False(t, m1 == m3)
	assert.True(t, m1.IsStatic())
	assert.False(t, m1.IsConstructor())
	assert.Equal(t, "java/lang/String.valueOf(I)Ljava/lang/String;", m1.String())
}

func TestModifiersString(t *testing.T) {
	assert.Equal(t, "private static final synthetic", (Private | Static | Final | Synthetic).String())
	assert.Equal(t, "", Modifiers(0).String())
}
