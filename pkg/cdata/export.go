package cdata

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/dataplume/arrowbridge/pkg/buffer"
	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/logger"
	"github.com/dataplume/arrowbridge/pkg/metrics"
	"github.com/dataplume/arrowbridge/pkg/types"
	"github.com/dataplume/arrowbridge/pkg/vector"
)

// schemaExportHolder rides in a schema node's PrivateData slot. It owns the
// recursive child storage the node aliases — one slice serves as both the
// pointer view and the owning storage, so the two can never fall out of
// lockstep. For struct types it also retains the type itself, keeping the
// field-name data valid for the lifetime of the foreign tree.
type schemaExportHolder struct {
	children   []*SchemaNode
	structType *types.DataType
}

// arrayExportHolder rides in an array node's PrivateData slot. It keeps the
// exported vector (and therefore its buffers) alive and carries the raw
// buffer pointers handed to the node.
type arrayExportHolder struct {
	vec     vector.Vector
	buffers [MaxBuffers]unsafe.Pointer
}

func (h *arrayExportHolder) close() {
	if h.vec != nil {
		h.vec.Release()
		h.vec = nil
	}
}

// ExportType populates out with the foreign schema tree for t, transferring
// ownership of the tree to the caller. On failure out is left untouched and
// nothing foreign-owned leaks: children built before the failing one have
// their release callbacks invoked before the error returns.
func ExportType(t *types.DataType, out *SchemaNode) error {
	timer := metrics.NewTimer("export")
	err := exportType(t, out)
	timer.Stop()
	metrics.RecordConversion("export", "schema", err)
	if err == nil {
		logger.Get().Debug("exported schema tree", zap.Stringer("type", t))
	}
	return err
}

func exportType(t *types.DataType, out *SchemaNode) error {
	format, err := formatFor(t)
	if err != nil {
		return err
	}

	holder := &schemaExportHolder{}
	if n := t.NumChildren(); n > 0 {
		holder.children = make([]*SchemaNode, n)
		if t.Kind() == types.Struct {
			holder.structType = t
		}

		for i := 0; i < n; i++ {
			child := &SchemaNode{}
			if err := exportType(t.Child(i), child); err != nil {
				// Unwind exactly the built prefix. The contract does not say
				// what a caller must do with a half-built tree, so nothing
				// already exported may be left for it to clean up.
				for j := 0; j < i; j++ {
					built := holder.children[j]
					built.Release(built)
				}
				return err
			}
			if holder.structType != nil {
				child.Name = t.NameOf(i)
			}
			holder.children[i] = child
		}
	}

	// Every supported type is semantically nullable.
	out.Format = format
	out.Name = ""
	out.Flags = FlagNullable
	out.Children = holder.children
	out.Dictionary = nil
	out.Release = releaseSchema
	out.PrivateData = holder
	return nil
}

// ExportVector populates out with a foreign array node over v's buffers,
// retaining v until the node is released. Only flat vectors of fixed-width
// bool, integer and float kinds can cross; everything else is outside this
// version's scope.
func ExportVector(v vector.Vector, out *ArrayNode) error {
	timer := metrics.NewTimer("export")
	err := exportVector(v, out)
	timer.Stop()
	metrics.RecordConversion("export", "array", err)
	if err == nil {
		logger.Get().Debug("exported array node",
			zap.Stringer("type", v.Type()), zap.Int("length", v.Len()))
	}
	return err
}

func exportVector(v vector.Vector, out *ArrayNode) error {
	if v.Encoding() != vector.Flat {
		return errors.Newf(errors.ErrorTypeCapability,
			"only flat vectors can be exported, got %s", v.Encoding())
	}

	switch v.Type().Kind() {
	case types.Bool, types.Int8, types.Int16, types.Int32, types.Int64,
		types.Float32, types.Float64:
	default:
		return errors.Newf(errors.ErrorTypeCapability,
			"export of flat vectors of %s is not supported", v.Type().Kind())
	}

	// Nothing below can fail; taking the reference here cannot leak.
	holder := &arrayExportHolder{vec: v}
	v.Retain()

	// Slot 0 is always the validity bitmap, nil when the vector tracks no
	// nulls. Slot 1 is the values.
	holder.buffers[0] = rawPointer(v.Validity())
	holder.buffers[1] = rawPointer(v.Values())

	out.Length = int64(v.Len())
	out.NullCount = v.NullCount()
	out.Offset = 0
	out.NumBuffers = MaxBuffers
	out.Buffers = holder.buffers
	out.Children = nil
	out.Dictionary = nil
	out.Release = releaseArray
	out.PrivateData = holder
	return nil
}

// rawPointer exposes a buffer's first byte as a raw pointer. The holder keeps
// the buffer alive for as long as the pointer is visible to the consumer.
func rawPointer(b buffer.Buffer) unsafe.Pointer {
	if b == nil {
		return nil
	}
	bytes := b.Bytes()
	if len(bytes) == 0 {
		return nil
	}
	return unsafe.Pointer(&bytes[0])
}
