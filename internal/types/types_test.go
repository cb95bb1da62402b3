package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tempo/internal/diag"
)

func point() *Record {
	return &Record{Name: "Point", Fields: []Field{{Name: "x", Type: Number}, {Name: "y", Type: Number}}}
}

func TestString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Number, "number"},
		{OptionalOf(String), "string?"},
		{ArrayOf(OptionalOf(Boolean)), "[boolean?]"},
		{FunctionOf(Void, Number, String), "(number,string)->void"},
		{OptionalOf(FunctionOf(Number)), "(()->number)?"},
		{point(), "Point"},
		{Nil, "nil"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Number, Number))
	assert.False(t, Equal(Number, String))
	assert.True(t, Equal(ArrayOf(Number), ArrayOf(Number)))
	assert.False(t, Equal(ArrayOf(Number), ArrayOf(String)))
	assert.True(t, Equal(OptionalOf(ArrayOf(Number)), OptionalOf(ArrayOf(Number))))
	assert.True(t, Equal(FunctionOf(Number, Number), FunctionOf(Number, Number)))
	assert.False(t, Equal(FunctionOf(Number, Number), FunctionOf(Number, Number, Number)))
	assert.False(t, Equal(FunctionOf(Number), FunctionOf(String)))
	assert.False(t, Equal(Number, OptionalOf(Number)))
	assert.True(t, Equal(Nil, Nil))

	// Records are nominal: same name matches regardless of fields.
	other := &Record{Name: "Point"}
	assert.True(t, Equal(point(), other))
	assert.False(t, Equal(point(), &Record{Name: "Vec"}))
}

func TestIsAssignable(t *testing.T) {
	tests := []struct {
		name string
		from Type
		to   Type
		want bool
	}{
		{"anything to any", ArrayOf(Number), Any, true},
		{"nil to any", Nil, Any, true},
		{"same primitive", Number, Number, true},
		{"different primitive", Number, String, false},
		{"nil to optional", Nil, OptionalOf(Number), true},
		{"nil to non-optional", Nil, Number, false},
		{"nil to array", Nil, ArrayOf(Number), false},
		{"value to its optional", Number, OptionalOf(Number), true},
		{"value to other optional", String, OptionalOf(Number), false},
		{"optional to value", OptionalOf(Number), Number, false},
		{"optional to same optional", OptionalOf(Number), OptionalOf(Number), true},
		{"array same element", ArrayOf(Number), ArrayOf(Number), true},
		{"array number to array string", ArrayOf(Number), ArrayOf(String), false},
		{"array is not covariant", ArrayOf(Number), ArrayOf(Any), false},
		{"identical functions", FunctionOf(Number, String), FunctionOf(Number, String), true},
		{"functions differ in return", FunctionOf(Number, String), FunctionOf(String, String), false},
		{"record by name", point(), &Record{Name: "Point"}, true},
		{"record to other record", point(), &Record{Name: "Vec"}, false},
		{"any is not assignable to number", Any, Number, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAssignable(tt.from, tt.to))
		})
	}
}

func TestElementType(t *testing.T) {
	el, err := ElementType(ArrayOf(String))
	require.NoError(t, err)
	assert.Equal(t, String, el)

	_, err = ElementType(Number)
	require.Error(t, err)
	assert.True(t, diag.IsTypeError(err))
	assert.Equal(t, diag.ErrExpectedArray, diag.CodeOf(err))
}

func TestInnerType(t *testing.T) {
	in, err := InnerType(OptionalOf(Boolean))
	require.NoError(t, err)
	assert.Equal(t, Boolean, in)

	_, err = InnerType(ArrayOf(Number))
	require.Error(t, err)
	assert.True(t, diag.IsTypeError(err))
	assert.Contains(t, err.Error(), "Expected optional type")
}

func TestLookupPrimitive(t *testing.T) {
	p, ok := LookupPrimitive("boolean")
	require.True(t, ok)
	assert.Equal(t, Boolean, p)

	_, ok = LookupPrimitive("Point")
	assert.False(t, ok)
}

func TestRecordField(t *testing.T) {
	f, ok := point().Field("y")
	require.True(t, ok)
	assert.Equal(t, Number, f.Type)

	_, ok = point().Field("z")
	assert.False(t, ok)
}
