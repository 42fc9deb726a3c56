package cdata

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"go.uber.org/zap"

	"github.com/dataplume/arrowbridge/pkg/buffer"
	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/logger"
	"github.com/dataplume/arrowbridge/pkg/metrics"
	"github.com/dataplume/arrowbridge/pkg/types"
	"github.com/dataplume/arrowbridge/pkg/vector"
)

// ImportType parses a live foreign schema tree into an internal type tree.
func ImportType(node *SchemaNode) (*types.DataType, error) {
	t, err := typeFor(node)
	metrics.RecordConversion("import", "schema", err)
	return t, err
}

// wrapFunc produces a buffer over foreign memory; borrow and owning imports
// differ only in the ownership token behind the views it returns.
type wrapFunc func(data unsafe.Pointer, length int) buffer.Buffer

// ImportVector builds a vector over the foreign array's buffers without
// copying them. The caller keeps responsibility for releasing both nodes;
// the returned vector's buffers are valid only for as long as the caller
// keeps the nodes alive and unreleased.
func ImportVector(schema *SchemaNode, array *ArrayNode) (*vector.FlatVector, error) {
	timer := metrics.NewTimer("import")
	v, err := importVector(schema, array, func(data unsafe.Pointer, length int) buffer.Buffer {
		return buffer.NewView(data, length, buffer.Borrowed{})
	})
	timer.Stop()
	metrics.RecordConversion("import", "array", err)
	return v, err
}

// ImportVectorOwned builds a vector over the foreign array's buffers and
// takes over both nodes' lifetimes: their contents move into reference-
// counted handles wired to the original release callbacks, and the caller's
// node slots are marked dead so they cannot be double-released. The original
// callbacks fire exactly once, when the last buffer view derived from this
// import is dropped — possibly long after this call returns.
//
// On failure the caller's nodes are untouched and remain the caller's to
// release.
func ImportVectorOwned(schema *SchemaNode, array *ArrayNode) (*vector.FlatVector, error) {
	moved := &SchemaNode{}
	*moved = *schema
	movedArray := &ArrayNode{}
	*movedArray = *array
	sh := &schemaHandle{node: moved}
	ah := &arrayHandle{node: movedArray}

	// Every fallible precondition in importVector runs before the first
	// wrap, so a failure here means no view retained the handles and the
	// copies are simply dropped, callbacks unfired.
	timer := metrics.NewTimer("import")
	v, err := importVector(schema, array, func(data unsafe.Pointer, length int) buffer.Buffer {
		sh.retain()
		ah.retain()
		return buffer.NewView(data, length, &owningToken{schema: sh, array: ah})
	})
	timer.Stop()
	metrics.RecordConversion("import", "array", err)
	if err != nil {
		return nil, err
	}

	schema.Release = nil
	schema.PrivateData = nil
	array.Release = nil
	array.PrivateData = nil

	logger.Get().Debug("took ownership of foreign array",
		zap.Stringer("type", v.Type()), zap.Int("length", v.Len()))
	return v, nil
}

// importVector validates the foreign pair and builds the vector. Every check
// that can fail runs before the first wrap call; wrapFunc implementations
// rely on that ordering for their ownership bookkeeping.
func importVector(schema *SchemaNode, array *ArrayNode, wrap wrapFunc) (*vector.FlatVector, error) {
	if schema.Released() {
		return nil, errors.New(errors.ErrorTypeValidation, "schema node was already released")
	}
	if array.Released() {
		return nil, errors.New(errors.ErrorTypeValidation, "array node was already released")
	}
	if array.Dictionary != nil {
		return nil, errors.New(errors.ErrorTypeCapability,
			"dictionary encoded arrays are not supported yet")
	}
	if len(array.Children) != 0 {
		return nil, errors.New(errors.ErrorTypeCapability,
			"nested array data is not supported yet")
	}
	if array.Offset != 0 {
		return nil, errors.New(errors.ErrorTypeCapability,
			"offset'ed arrays are not supported yet")
	}
	errors.Assertf(array.Length >= 0, "array length must be non-negative, got %d", array.Length)

	t, err := typeFor(schema)
	if err != nil {
		return nil, err
	}
	width, ok := t.FixedWidth()
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability,
			"only fixed-width scalar arrays can be imported, got %s", t)
	}

	if array.NumBuffers != MaxBuffers {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"expecting %d buffers, got %d", MaxBuffers, array.NumBuffers)
	}

	// A zero null count requires the validity slot to be empty; any other
	// count, including the unknown sentinel, requires a bitmap covering at
	// least one bit per row.
	if array.NullCount != 0 {
		if array.Buffers[0] == nil {
			return nil, errors.New(errors.ErrorTypeValidation,
				"validity buffer cannot be nil unless null count is zero")
		}
	} else if array.Buffers[0] != nil {
		return nil, errors.New(errors.ErrorTypeValidation,
			"validity buffer must be nil when null count is zero")
	}

	// All preconditions hold; from here on nothing fails.
	var validity buffer.Buffer
	if array.NullCount != 0 {
		validity = wrap(array.Buffers[0], int(bitutil.BytesForBits(array.Length)))
	}
	values := wrap(array.Buffers[1], int(array.Length)*width)

	v, err := vector.NewFlat(t, validity, int(array.Length), values, array.NullCount)
	errors.Assertf(err == nil, "flat vector dispatch rejected vetted kind %s: %v", t.Kind(), err)
	return v, nil
}
