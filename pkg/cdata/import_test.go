package cdata

import (
	"encoding/binary"
	"sync"
	"testing"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/types"
	"github.com/dataplume/arrowbridge/pkg/vector"
)

func TestImportTypeRoundtripScalars(t *testing.T) {
	for _, typ := range []*types.DataType{
		types.BoolType(),
		types.Int8Type(),
		types.Int16Type(),
		types.Int32Type(),
		types.Int64Type(),
		types.Float32Type(),
		types.Float64Type(),
		types.StringType(),
		types.BinaryType(),
		types.TimestampType(),
		types.DateType(),
	} {
		t.Run(typ.Kind().String(), func(t *testing.T) {
			var node SchemaNode
			require.NoError(t, ExportType(typ, &node))
			defer node.Release(&node)

			got, err := ImportType(&node)
			require.NoError(t, err)
			assert.True(t, got.Equal(typ))
		})
	}
}

func TestImportTypeRoundtripNested(t *testing.T) {
	for _, typ := range []*types.DataType{
		types.ListOf(types.Int64Type()),
		types.MapOf(types.StringType(), types.Float64Type()),
		types.StructOf(
			types.Field{Name: "a", Type: types.Int32Type()},
			types.Field{Name: "b", Type: types.StringType()},
		),
		types.StructOf(
			types.Field{Name: "id", Type: types.Int64Type()},
			types.Field{Name: "attrs", Type: types.MapOf(
				types.StringType(),
				types.ListOf(types.TimestampType()),
			)},
			types.Field{Name: "nested", Type: types.StructOf(
				types.Field{Name: "x", Type: types.DateType()},
			)},
		),
	} {
		t.Run(typ.String(), func(t *testing.T) {
			var node SchemaNode
			require.NoError(t, ExportType(typ, &node))
			defer node.Release(&node)

			got, err := ImportType(&node)
			require.NoError(t, err)
			assert.True(t, got.Equal(typ), "got %s, want %s", got, typ)
		})
	}
}

func TestImportTypeStructFieldOrder(t *testing.T) {
	typ := types.StructOf(
		types.Field{Name: "a", Type: types.Int32Type()},
		types.Field{Name: "b", Type: types.StringType()},
	)

	var node SchemaNode
	require.NoError(t, ExportType(typ, &node))
	defer node.Release(&node)

	got, err := ImportType(&node)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumChildren())
	assert.Equal(t, "a", got.NameOf(0))
	assert.Equal(t, "b", got.NameOf(1))
	assert.Equal(t, types.Int32, got.Child(0).Kind())
	assert.Equal(t, types.String, got.Child(1).Kind())
}

// exportedPair exports v's type and data into fresh foreign nodes.
func exportedPair(t *testing.T, v *vector.FlatVector) (*SchemaNode, *ArrayNode) {
	t.Helper()
	schema := &SchemaNode{}
	array := &ArrayNode{}
	require.NoError(t, ExportType(v.Type(), schema))
	require.NoError(t, ExportVector(v, array))
	return schema, array
}

func buildInt64Vector(t *testing.T, values []int64, nullAt map[int]bool) *vector.FlatVector {
	t.Helper()
	b, err := vector.NewBuilder(memory.NewGoAllocator(), types.Int64Type())
	require.NoError(t, err)
	for i, val := range values {
		if nullAt[i] {
			b.AppendNull()
			continue
		}
		require.NoError(t, b.AppendInt64(val))
	}
	v, err := b.Build()
	require.NoError(t, err)
	return v
}

func TestImportVectorBorrowed(t *testing.T) {
	source := buildInt64Vector(t, []int64{1, 2, 0, 4}, map[int]bool{2: true})
	defer source.Release()
	schema, array := exportedPair(t, source)

	imported, err := ImportVector(schema, array)
	require.NoError(t, err)

	assert.Equal(t, 4, imported.Len())
	assert.Equal(t, int64(1), imported.NullCount())
	assert.Equal(t, int64(1), imported.Int64Value(0))
	assert.Equal(t, int64(2), imported.Int64Value(1))
	assert.True(t, imported.IsNull(2))
	assert.Equal(t, int64(4), imported.Int64Value(3))

	// Borrow mode leaves both nodes with the caller.
	assert.False(t, schema.Released())
	assert.False(t, array.Released())

	imported.Release()
	schema.Release(schema)
	array.Release(array)
}

func TestImportVectorOwned(t *testing.T) {
	source := buildInt64Vector(t, []int64{10, 20, 30}, nil)
	defer source.Release()
	schema, array := exportedPair(t, source)

	var schemaFired, arrayFired int
	origSchemaRelease := schema.Release
	schema.Release = func(n *SchemaNode) { schemaFired++; origSchemaRelease(n) }
	origArrayRelease := array.Release
	array.Release = func(n *ArrayNode) { arrayFired++; origArrayRelease(n) }

	imported, err := ImportVectorOwned(schema, array)
	require.NoError(t, err)

	// The bridge took over: the caller's slots are dead immediately.
	assert.True(t, schema.Released())
	assert.True(t, array.Released())

	// But the original callbacks have not fired yet; the buffers are live.
	assert.Equal(t, 0, schemaFired)
	assert.Equal(t, 0, arrayFired)
	assert.Equal(t, int64(20), imported.Int64Value(1))

	// Dropping the last reference fires each callback exactly once.
	imported.Release()
	assert.Equal(t, 1, schemaFired)
	assert.Equal(t, 1, arrayFired)
}

func TestImportVectorOwnedDeferredAcrossBuffers(t *testing.T) {
	source := buildInt64Vector(t, []int64{1, 0, 3}, map[int]bool{1: true})
	defer source.Release()
	schema, array := exportedPair(t, source)

	var fired int
	origRelease := array.Release
	array.Release = func(n *ArrayNode) { fired++; origRelease(n) }

	imported, err := ImportVectorOwned(schema, array)
	require.NoError(t, err)

	// Hold the values buffer beyond the vector's lifetime: the validity view
	// alone dropping must not trigger the foreign release.
	values := imported.Values()
	values.Retain()
	imported.Release()
	assert.Equal(t, 0, fired)

	values.Release()
	assert.Equal(t, 1, fired)
}

func TestImportVectorOwnedConcurrentRelease(t *testing.T) {
	source := buildInt64Vector(t, []int64{1, 2, 3, 4}, nil)
	defer source.Release()
	schema, array := exportedPair(t, source)

	var fired int
	origRelease := array.Release
	array.Release = func(n *ArrayNode) { fired++; origRelease(n) }

	imported, err := ImportVectorOwned(schema, array)
	require.NoError(t, err)

	const refs = 32
	values := imported.Values()
	for i := 0; i < refs; i++ {
		values.Retain()
	}
	imported.Release()

	var wg sync.WaitGroup
	for i := 0; i < refs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fired)
}

func TestBorrowOwnDivergence(t *testing.T) {
	source := buildInt64Vector(t, []int64{5, 0, 7}, map[int]bool{1: true})
	defer source.Release()

	borrowSchema, borrowArray := exportedPair(t, source)
	ownSchema, ownArray := exportedPair(t, source)

	borrowed, err := ImportVector(borrowSchema, borrowArray)
	require.NoError(t, err)
	owned, err := ImportVectorOwned(ownSchema, ownArray)
	require.NoError(t, err)

	// Identical logical contents.
	require.Equal(t, borrowed.Len(), owned.Len())
	assert.Equal(t, borrowed.NullCount(), owned.NullCount())
	for i := 0; i < borrowed.Len(); i++ {
		require.Equal(t, borrowed.IsNull(i), owned.IsNull(i), "row %d", i)
		if !borrowed.IsNull(i) {
			assert.Equal(t, borrowed.Int64Value(i), owned.Int64Value(i), "row %d", i)
		}
	}

	// Only the owning import consumed its nodes.
	assert.False(t, borrowSchema.Released())
	assert.False(t, borrowArray.Released())
	assert.True(t, ownSchema.Released())
	assert.True(t, ownArray.Released())

	borrowed.Release()
	borrowSchema.Release(borrowSchema)
	borrowArray.Release(borrowArray)
	owned.Release()
}

// liveSchema fabricates a live scalar schema node.
func liveSchema(format string) *SchemaNode {
	return &SchemaNode{Format: format, Release: func(n *SchemaNode) { n.Release = nil }}
}

// liveArray fabricates a live array node over the given buffers.
func liveArray(length, nullCount int64, validity, values []byte) *ArrayNode {
	node := &ArrayNode{
		Length:     length,
		NullCount:  nullCount,
		NumBuffers: 2,
		Release:    func(n *ArrayNode) { n.Release = nil },
	}
	if validity != nil {
		node.Buffers[0] = unsafe.Pointer(&validity[0])
	}
	if values != nil {
		node.Buffers[1] = unsafe.Pointer(&values[0])
	}
	return node
}

func int64Bytes(values ...int64) []byte {
	out := make([]byte, 0, len(values)*8)
	for _, v := range values {
		out = binary.LittleEndian.AppendUint64(out, uint64(v))
	}
	return out
}

func TestImportNullCountContract(t *testing.T) {
	values := int64Bytes(1, 2, 3)
	allValid := []byte{0b111}

	t.Run("unknown sentinel passes through", func(t *testing.T) {
		imported, err := ImportVector(liveSchema("l"), liveArray(3, UnknownNullCount, allValid, values))
		require.NoError(t, err)
		assert.Equal(t, vector.UnknownNullCount, imported.NullCount())
		imported.Release()
	})

	t.Run("unknown sentinel requires bitmap", func(t *testing.T) {
		_, err := ImportVector(liveSchema("l"), liveArray(3, UnknownNullCount, nil, values))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("positive count requires bitmap", func(t *testing.T) {
		_, err := ImportVector(liveSchema("l"), liveArray(3, 1, nil, values))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("zero count forbids bitmap", func(t *testing.T) {
		_, err := ImportVector(liveSchema("l"), liveArray(3, 0, allValid, values))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("zero count with nil bitmap", func(t *testing.T) {
		imported, err := ImportVector(liveSchema("l"), liveArray(3, 0, nil, values))
		require.NoError(t, err)
		assert.Nil(t, imported.Validity())
		assert.Equal(t, int64(0), imported.NullCount())
		imported.Release()
	})

	t.Run("positive count wraps minimal bitmap", func(t *testing.T) {
		bitmap := []byte{0b101}
		imported, err := ImportVector(liveSchema("l"), liveArray(3, 1, bitmap, values))
		require.NoError(t, err)
		require.NotNil(t, imported.Validity())
		// ceil(3/8) = 1 byte.
		assert.Equal(t, 1, imported.Validity().Len())
		assert.True(t, imported.IsNull(1))
		imported.Release()
	})
}

func TestImportMalformedInputs(t *testing.T) {
	values := int64Bytes(1, 2, 3)

	t.Run("wrong buffer count", func(t *testing.T) {
		node := liveArray(3, 0, nil, values)
		node.NumBuffers = 1
		_, err := ImportVector(liveSchema("l"), node)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("released schema", func(t *testing.T) {
		schema := liveSchema("l")
		schema.Release = nil
		_, err := ImportVector(schema, liveArray(3, 0, nil, values))
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
		assert.Contains(t, err.Error(), "already released")
	})

	t.Run("released array", func(t *testing.T) {
		node := liveArray(3, 0, nil, values)
		node.Release = nil
		_, err := ImportVector(liveSchema("l"), node)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	})

	t.Run("dictionary", func(t *testing.T) {
		node := liveArray(3, 0, nil, values)
		node.Dictionary = liveArray(1, 0, nil, values)
		_, err := ImportVector(liveSchema("l"), node)
		require.Error(t, err)
		assert.True(t, errors.IsCapability(err))
	})

	t.Run("children", func(t *testing.T) {
		node := liveArray(3, 0, nil, values)
		node.Children = []*ArrayNode{liveArray(1, 0, nil, values)}
		_, err := ImportVector(liveSchema("l"), node)
		require.Error(t, err)
		assert.True(t, errors.IsCapability(err))
	})

	t.Run("offset", func(t *testing.T) {
		node := liveArray(3, 0, nil, values)
		node.Offset = 8
		_, err := ImportVector(liveSchema("l"), node)
		require.Error(t, err)
		assert.True(t, errors.IsCapability(err))
	})

	t.Run("variable width type", func(t *testing.T) {
		_, err := ImportVector(liveSchema("u"), liveArray(3, 0, nil, values))
		require.Error(t, err)
		assert.True(t, errors.IsCapability(err))
	})

	t.Run("negative length", func(t *testing.T) {
		node := liveArray(3, 0, nil, values)
		node.Length = -1
		require.Panics(t, func() {
			_, _ = ImportVector(liveSchema("l"), node)
		})
	})
}

func TestImportOwnedFailureLeavesCallerOwnership(t *testing.T) {
	values := int64Bytes(1, 2, 3)
	schema := liveSchema("l")
	node := liveArray(3, 0, nil, values)
	node.NumBuffers = 1

	_, err := ImportVectorOwned(schema, node)
	require.Error(t, err)
	assert.False(t, schema.Released())
	assert.False(t, node.Released())
}

func TestImportValueBufferSizing(t *testing.T) {
	// int16: three rows wrap to six bytes.
	raw := []byte{1, 0, 2, 0, 3, 0}
	imported, err := ImportVector(liveSchema("s"), liveArray(3, 0, nil, raw))
	require.NoError(t, err)
	assert.Equal(t, 6, imported.Values().Len())
	assert.Equal(t, int16(2), imported.Int16Value(1))
	imported.Release()
}
