package vector

import (
	"encoding/binary"
	"math"

	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dataplume/arrowbridge/pkg/buffer"
	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/types"
)

// Builder accumulates values for a flat vector of a fixed-width scalar type.
// The validity bitmap is materialized lazily: a vector built without a single
// AppendNull carries no validity buffer at all.
type Builder struct {
	alloc  memory.Allocator
	typ    *types.DataType
	width  int
	values []byte
	// validity is bit-per-row, set = valid. Allocated on the first null.
	validity []byte
	length   int
	nulls    int64
}

// NewBuilder creates a builder for the given fixed-width scalar type.
func NewBuilder(alloc memory.Allocator, typ *types.DataType) (*Builder, error) {
	width, ok := typ.FixedWidth()
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeCapability,
			"cannot build flat vectors of kind %s", typ.Kind())
	}
	return &Builder{alloc: alloc, typ: typ, width: width}, nil
}

// Len returns the number of appended rows.
func (b *Builder) Len() int { return b.length }

func (b *Builder) ensureValidity() {
	need := bitutil.BytesForBits(int64(b.length + 1))
	for int64(len(b.validity)) < need {
		b.validity = append(b.validity, 0)
	}
}

func (b *Builder) appendRaw(raw []byte) {
	b.values = append(b.values, raw...)
	if b.validity != nil {
		b.ensureValidity()
		bitutil.SetBit(b.validity, b.length)
	}
	b.length++
}

// AppendNull appends a null row.
func (b *Builder) AppendNull() {
	if b.validity == nil {
		// Backfill: every prior row was valid.
		b.validity = make([]byte, bitutil.BytesForBits(int64(b.length+1)))
		for i := 0; i < b.length; i++ {
			bitutil.SetBit(b.validity, i)
		}
	}
	b.ensureValidity()
	bitutil.ClearBit(b.validity, b.length)
	b.values = append(b.values, make([]byte, b.width)...)
	b.length++
	b.nulls++
}

func (b *Builder) checkKind(k types.Kind) error {
	if b.typ.Kind() != k {
		return errors.Newf(errors.ErrorTypeData,
			"cannot append %s value to %s builder", k, b.typ.Kind())
	}
	return nil
}

// AppendBool appends a bool row, stored one byte per value.
func (b *Builder) AppendBool(v bool) error {
	if err := b.checkKind(types.Bool); err != nil {
		return err
	}
	raw := byte(0)
	if v {
		raw = 1
	}
	b.appendRaw([]byte{raw})
	return nil
}

// AppendInt8 appends an int8 row.
func (b *Builder) AppendInt8(v int8) error {
	if err := b.checkKind(types.Int8); err != nil {
		return err
	}
	b.appendRaw([]byte{byte(v)})
	return nil
}

// AppendInt16 appends an int16 row.
func (b *Builder) AppendInt16(v int16) error {
	if err := b.checkKind(types.Int16); err != nil {
		return err
	}
	b.appendRaw(binary.LittleEndian.AppendUint16(nil, uint16(v)))
	return nil
}

// AppendInt32 appends an int32 row.
func (b *Builder) AppendInt32(v int32) error {
	if err := b.checkKind(types.Int32); err != nil {
		return err
	}
	b.appendRaw(binary.LittleEndian.AppendUint32(nil, uint32(v)))
	return nil
}

// AppendInt64 appends an int64 row.
func (b *Builder) AppendInt64(v int64) error {
	if err := b.checkKind(types.Int64); err != nil {
		return err
	}
	b.appendRaw(binary.LittleEndian.AppendUint64(nil, uint64(v)))
	return nil
}

// AppendFloat32 appends a float32 row.
func (b *Builder) AppendFloat32(v float32) error {
	if err := b.checkKind(types.Float32); err != nil {
		return err
	}
	b.appendRaw(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
	return nil
}

// AppendFloat64 appends a float64 row.
func (b *Builder) AppendFloat64(v float64) error {
	if err := b.checkKind(types.Float64); err != nil {
		return err
	}
	b.appendRaw(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
	return nil
}

// AppendDate appends a date row as days since epoch.
func (b *Builder) AppendDate(days int32) error {
	if err := b.checkKind(types.Date); err != nil {
		return err
	}
	b.appendRaw(binary.LittleEndian.AppendUint32(nil, uint32(days)))
	return nil
}

// AppendTimestamp appends a timestamp row as an epoch-seconds and nanosecond
// pair.
func (b *Builder) AppendTimestamp(seconds, nanos int64) error {
	if err := b.checkKind(types.Timestamp); err != nil {
		return err
	}
	raw := binary.LittleEndian.AppendUint64(nil, uint64(seconds))
	raw = binary.LittleEndian.AppendUint64(raw, uint64(nanos))
	b.appendRaw(raw)
	return nil
}

// Build copies the accumulated rows into allocator-backed buffers and returns
// the finished vector. The builder can be reused afterwards.
func (b *Builder) Build() (*FlatVector, error) {
	values := buffer.NewOwned(b.alloc, len(b.values))
	copy(values.Bytes(), b.values)

	var validity buffer.Buffer
	if b.validity != nil {
		owned := buffer.NewOwned(b.alloc, int(bitutil.BytesForBits(int64(b.length))))
		copy(owned.Bytes(), b.validity)
		validity = owned
	}

	return NewFlat(b.typ, validity, b.length, values, b.nulls)
}
