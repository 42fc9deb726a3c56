// Package types defines the internal columnar type system: a closed kind
// enumeration and an immutable, shareable DataType tree. Many vectors may
// reference the same DataType, so instances are never mutated after
// construction and are passed around by pointer.
package types

import "fmt"

// Kind identifies a type in the closed enumeration. Scalar kinds come first,
// nested kinds last. Decimal and Union exist in the host system but are not
// mapped by the interchange bridge.
type Kind int

const (
	Bool Kind = iota
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	String
	Binary
	Timestamp
	Date
	Decimal
	Union
	List
	Map
	Struct
)

var kindNames = map[Kind]string{
	Bool:      "bool",
	Int8:      "int8",
	Int16:     "int16",
	Int32:     "int32",
	Int64:     "int64",
	Float32:   "float32",
	Float64:   "float64",
	String:    "string",
	Binary:    "binary",
	Timestamp: "timestamp",
	Date:      "date",
	Decimal:   "decimal",
	Union:     "union",
	List:      "list",
	Map:       "map",
	Struct:    "struct",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsNested reports whether the kind carries child types.
func (k Kind) IsNested() bool {
	return k == List || k == Map || k == Struct
}

// IsScalar reports whether the kind is a leaf type.
func (k Kind) IsScalar() bool {
	return !k.IsNested()
}

// FixedWidth returns the in-memory width in bytes of one value of this kind
// and whether the kind has a fixed width at all. Timestamps occupy sixteen
// bytes: an epoch-seconds int64 followed by a nanosecond int64.
func (k Kind) FixedWidth() (int, bool) {
	switch k {
	case Bool, Int8:
		return 1, true
	case Int16:
		return 2, true
	case Int32, Float32, Date:
		return 4, true
	case Int64, Float64:
		return 8, true
	case Timestamp:
		return 16, true
	default:
		return 0, false
	}
}

// Field is a named child of a nested type. Names are meaningful only for
// struct children; list and map children carry empty names.
type Field struct {
	Name string
	Type *DataType
}

// DataType is an immutable tagged variant over Kind. Nested kinds carry an
// ordered child list; struct children are named.
type DataType struct {
	kind   Kind
	fields []Field
}

// Shared scalar instances. Scalars carry no per-instance state, so every
// constructor call returns the same pointer.
var scalarTypes = func() map[Kind]*DataType {
	m := make(map[Kind]*DataType)
	for _, k := range []Kind{Bool, Int8, Int16, Int32, Int64, Float32, Float64, String, Binary, Timestamp, Date, Decimal, Union} {
		m[k] = &DataType{kind: k}
	}
	return m
}()

func scalar(k Kind) *DataType { return scalarTypes[k] }

func BoolType() *DataType      { return scalar(Bool) }
func Int8Type() *DataType      { return scalar(Int8) }
func Int16Type() *DataType     { return scalar(Int16) }
func Int32Type() *DataType     { return scalar(Int32) }
func Int64Type() *DataType     { return scalar(Int64) }
func Float32Type() *DataType   { return scalar(Float32) }
func Float64Type() *DataType   { return scalar(Float64) }
func StringType() *DataType    { return scalar(String) }
func BinaryType() *DataType    { return scalar(Binary) }
func TimestampType() *DataType { return scalar(Timestamp) }
func DateType() *DataType      { return scalar(Date) }

// DecimalType returns the variable-precision decimal placeholder. The bridge
// cannot map it; it exists so unsupported-kind paths stay reachable.
func DecimalType() *DataType { return scalar(Decimal) }

// ListOf returns a list type with the given element type.
func ListOf(elem *DataType) *DataType {
	return &DataType{kind: List, fields: []Field{{Type: elem}}}
}

// MapOf returns a map type with the given key and value types.
func MapOf(key, value *DataType) *DataType {
	return &DataType{kind: Map, fields: []Field{{Type: key}, {Type: value}}}
}

// StructOf returns a struct type over the given named fields. The field slice
// is copied so the result stays immutable.
func StructOf(fields ...Field) *DataType {
	owned := make([]Field, len(fields))
	copy(owned, fields)
	return &DataType{kind: Struct, fields: owned}
}

// Kind returns the type tag.
func (t *DataType) Kind() Kind { return t.kind }

// NumChildren returns the number of child types.
func (t *DataType) NumChildren() int { return len(t.fields) }

// Child returns the i-th child type.
func (t *DataType) Child(i int) *DataType { return t.fields[i].Type }

// NameOf returns the i-th child's field name. Empty for unnamed children.
func (t *DataType) NameOf(i int) string { return t.fields[i].Name }

// Fields returns a copy of the child field slice.
func (t *DataType) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// IsPrimitive reports whether the type is a scalar leaf.
func (t *DataType) IsPrimitive() bool { return t.kind.IsScalar() }

// FixedWidth returns the byte width of one value, if the type has one.
func (t *DataType) FixedWidth() (int, bool) { return t.kind.FixedWidth() }

// Equal reports deep structural equality, including field names and order.
func (t *DataType) Equal(other *DataType) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.kind != other.kind || len(t.fields) != len(other.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i].Name != other.fields[i].Name {
			return false
		}
		if !t.fields[i].Type.Equal(other.fields[i].Type) {
			return false
		}
	}
	return true
}

// String renders the type tree, e.g. struct<a:int32, b:string>.
func (t *DataType) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.kind {
	case List:
		return fmt.Sprintf("list<%s>", t.Child(0))
	case Map:
		return fmt.Sprintf("map<%s, %s>", t.Child(0), t.Child(1))
	case Struct:
		s := "struct<"
		for i, f := range t.fields {
			if i > 0 {
				s += ", "
			}
			s += fmt.Sprintf("%s:%s", f.Name, f.Type)
		}
		return s + ">"
	default:
		return t.kind.String()
	}
}
