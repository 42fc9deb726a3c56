package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWidths(t *testing.T) {
	tests := []struct {
		kind  Kind
		width int
	}{
		{Bool, 1},
		{Int8, 1},
		{Int16, 2},
		{Int32, 4},
		{Int64, 8},
		{Float32, 4},
		{Float64, 8},
		{Date, 4},
		{Timestamp, 16},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			w, ok := tt.kind.FixedWidth()
			require.True(t, ok)
			assert.Equal(t, tt.width, w)
		})
	}

	for _, k := range []Kind{String, Binary, Decimal, Union, List, Map, Struct} {
		_, ok := k.FixedWidth()
		assert.False(t, ok, "kind %s should have no fixed width", k)
	}
}

func TestScalarsAreShared(t *testing.T) {
	assert.Same(t, BoolType(), BoolType())
	assert.Same(t, Int64Type(), Int64Type())
	assert.Same(t, TimestampType(), TimestampType())
}

func TestEqual(t *testing.T) {
	a := StructOf(
		Field{Name: "a", Type: Int32Type()},
		Field{Name: "b", Type: StringType()},
	)
	b := StructOf(
		Field{Name: "a", Type: Int32Type()},
		Field{Name: "b", Type: StringType()},
	)
	assert.True(t, a.Equal(b))

	renamed := StructOf(
		Field{Name: "a", Type: Int32Type()},
		Field{Name: "c", Type: StringType()},
	)
	assert.False(t, a.Equal(renamed))

	reordered := StructOf(
		Field{Name: "b", Type: StringType()},
		Field{Name: "a", Type: Int32Type()},
	)
	assert.False(t, a.Equal(reordered))

	assert.True(t, ListOf(Int64Type()).Equal(ListOf(Int64Type())))
	assert.False(t, ListOf(Int64Type()).Equal(ListOf(Int32Type())))
	assert.True(t, MapOf(StringType(), Float64Type()).Equal(MapOf(StringType(), Float64Type())))
	assert.False(t, BoolType().Equal(Int8Type()))
}

func TestString(t *testing.T) {
	typ := StructOf(
		Field{Name: "id", Type: Int64Type()},
		Field{Name: "tags", Type: ListOf(StringType())},
		Field{Name: "attrs", Type: MapOf(StringType(), Float64Type())},
	)
	assert.Equal(t, "struct<id:int64, tags:list<string>, attrs:map<string, float64>>", typ.String())
}

func TestMarshalJSON(t *testing.T) {
	typ := StructOf(Field{Name: "a", Type: Int32Type()})
	out, err := typ.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"struct","fields":[{"name":"a","type":{"kind":"int32"}}]}`, string(out))
}

func TestStructOfCopiesFields(t *testing.T) {
	fields := []Field{{Name: "a", Type: Int32Type()}}
	typ := StructOf(fields...)
	fields[0].Name = "mutated"
	assert.Equal(t, "a", typ.NameOf(0))
}
