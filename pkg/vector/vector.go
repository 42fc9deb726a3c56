// Package vector provides the in-process columnar vector representation the
// bridge converts to and from. Only the flat encoding carries data through
// the bridge; the other encodings exist so dispatch stays closed over the
// full enumeration.
package vector

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow/bitutil"

	"github.com/dataplume/arrowbridge/pkg/buffer"
	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/types"
)

// Encoding identifies how a vector lays out its values.
type Encoding int

const (
	// Flat stores values directly and contiguously.
	Flat Encoding = iota
	// Dictionary stores indices into a values dictionary.
	Dictionary
	// Constant repeats a single value.
	Constant
)

func (e Encoding) String() string {
	switch e {
	case Flat:
		return "flat"
	case Dictionary:
		return "dictionary"
	case Constant:
		return "constant"
	default:
		return "unknown"
	}
}

// UnknownNullCount is the sentinel for "not yet computed", distinct from zero.
const UnknownNullCount int64 = -1

// Vector is a reference-counted columnar value sequence. The validity buffer
// follows the usual bitmap convention: bit set means the row is valid, one
// bit per row; a nil validity buffer means the vector tracks no nulls.
type Vector interface {
	Type() *types.DataType
	Encoding() Encoding
	Len() int
	// NullCount returns the number of nulls, or UnknownNullCount when the
	// vector has not computed it.
	NullCount() int64
	// Validity returns the null bitmap buffer, or nil when absent.
	Validity() buffer.Buffer
	// Values returns the value buffer.
	Values() buffer.Buffer
	IsNull(i int) bool
	Retain()
	Release()
}

// FlatVector is the direct, contiguous encoding over a validity bitmap and a
// fixed-width value buffer. It shares (rather than owns) its buffers; the
// last Release drops one reference from each.
type FlatVector struct {
	refs      atomic.Int64
	typ       *types.DataType
	validity  buffer.Buffer
	values    buffer.Buffer
	length    int
	nullCount int64
}

// NewFlat constructs a flat vector for the given scalar type, dispatching on
// the concrete kind. The switch is closed over the whole enumeration:
// variable-width and nested kinds report a capability error rather than
// falling through silently.
func NewFlat(typ *types.DataType, validity buffer.Buffer, length int, values buffer.Buffer, nullCount int64) (*FlatVector, error) {
	switch typ.Kind() {
	case types.Bool, types.Int8, types.Int16, types.Int32, types.Int64,
		types.Float32, types.Float64, types.Timestamp, types.Date:
		v := &FlatVector{
			typ:       typ,
			validity:  validity,
			values:    values,
			length:    length,
			nullCount: nullCount,
		}
		v.refs.Store(1)
		return v, nil

	case types.String, types.Binary:
		return nil, errors.Newf(errors.ErrorTypeCapability,
			"flat vectors over variable-width kind %s are not supported", typ.Kind())

	case types.Decimal, types.Union:
		return nil, errors.Newf(errors.ErrorTypeCapability,
			"flat vectors over kind %s are not supported", typ.Kind())

	case types.List, types.Map, types.Struct:
		return nil, errors.Newf(errors.ErrorTypeCapability,
			"nested kind %s cannot back a flat vector", typ.Kind())

	default:
		return nil, errors.Newf(errors.ErrorTypeCapability,
			"unrecognized kind %s", typ.Kind())
	}
}

func (v *FlatVector) Type() *types.DataType    { return v.typ }
func (v *FlatVector) Encoding() Encoding       { return Flat }
func (v *FlatVector) Len() int                 { return v.length }
func (v *FlatVector) NullCount() int64         { return v.nullCount }
func (v *FlatVector) Validity() buffer.Buffer  { return v.validity }
func (v *FlatVector) Values() buffer.Buffer    { return v.values }

// IsNull reports whether row i is null.
func (v *FlatVector) IsNull(i int) bool {
	if v.validity == nil {
		return false
	}
	return !bitutil.BitIsSet(v.validity.Bytes(), i)
}

// Retain increases the reference count by 1.
func (v *FlatVector) Retain() {
	n := v.refs.Add(1)
	errors.Assertf(n > 1, "retain of a released vector")
}

// Release decreases the reference count by 1, dropping one reference from
// each shared buffer when the count reaches zero.
func (v *FlatVector) Release() {
	n := v.refs.Add(-1)
	errors.Assertf(n >= 0, "too many releases of a vector")
	if n != 0 {
		return
	}
	if v.validity != nil {
		v.validity.Release()
		v.validity = nil
	}
	if v.values != nil {
		v.values.Release()
		v.values = nil
	}
}

func (v *FlatVector) width() int {
	w, _ := v.typ.FixedWidth()
	return w
}

// BoolValue returns row i of a bool vector. Values are stored one byte per
// bool.
func (v *FlatVector) BoolValue(i int) bool {
	return v.values.Bytes()[i] != 0
}

// Int8Value returns row i of an int8 vector.
func (v *FlatVector) Int8Value(i int) int8 {
	return int8(v.values.Bytes()[i])
}

// Int16Value returns row i of an int16 vector.
func (v *FlatVector) Int16Value(i int) int16 {
	return int16(binary.LittleEndian.Uint16(v.values.Bytes()[i*2:]))
}

// Int32Value returns row i of an int32 vector.
func (v *FlatVector) Int32Value(i int) int32 {
	return int32(binary.LittleEndian.Uint32(v.values.Bytes()[i*4:]))
}

// Int64Value returns row i of an int64 vector.
func (v *FlatVector) Int64Value(i int) int64 {
	return int64(binary.LittleEndian.Uint64(v.values.Bytes()[i*8:]))
}

// Float32Value returns row i of a float32 vector.
func (v *FlatVector) Float32Value(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v.values.Bytes()[i*4:]))
}

// Float64Value returns row i of a float64 vector.
func (v *FlatVector) Float64Value(i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(v.values.Bytes()[i*8:]))
}

// DateValue returns row i of a date vector as days since epoch.
func (v *FlatVector) DateValue(i int) int32 {
	return int32(binary.LittleEndian.Uint32(v.values.Bytes()[i*4:]))
}

// TimestampValue returns row i of a timestamp vector as its epoch-seconds
// and nanosecond pair.
func (v *FlatVector) TimestampValue(i int) (seconds, nanos int64) {
	b := v.values.Bytes()[i*16:]
	return int64(binary.LittleEndian.Uint64(b)), int64(binary.LittleEndian.Uint64(b[8:]))
}
