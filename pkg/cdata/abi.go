// Package cdata implements the bidirectional bridge between the in-process
// vector/type representation and the C data interface shape: a schema
// descriptor tree and an array/buffer descriptor tree, each with its own
// release callback and opaque private state.
//
// Field semantics mirror the interchange contract exactly. A node is live
// while its Release callback is non-nil; once Release is nil the node is
// dead and every other field except PrivateData must be treated as
// unreadable. Export installs the release callbacks; import either leaves
// teardown with the caller (borrow mode) or takes it over through
// reference-counted handles (owning mode).
package cdata

import "unsafe"

// Schema flag bits, matching the interchange contract's flag word.
const (
	// FlagNullable marks the described type as semantically nullable.
	// Export sets it unconditionally.
	FlagNullable int64 = 1 << 1
)

// UnknownNullCount is the sentinel for a null count that has not been
// computed, distinct from zero.
const UnknownNullCount int64 = -1

// MaxBuffers is the number of buffer slots an array node carries: the
// validity bitmap and the value buffer. More will be needed once strings and
// nested array data are transferred.
const MaxBuffers = 2

// SchemaNode describes one type in the foreign schema tree.
type SchemaNode struct {
	// Format is the type tag; required on a live node.
	Format string
	// Name is the display name, meaningful only when this node is a named
	// field of a parent struct node.
	Name string
	// Flags carries the nullability bit among others.
	Flags int64
	// Children are the child type nodes, in order. The slice is owned by the
	// node's export holder; node and holder always see the same storage.
	Children []*SchemaNode
	// Dictionary must be nil; dictionary types are not supported.
	Dictionary *SchemaNode
	// Release tears the node down. Nil means the node is dead.
	Release func(*SchemaNode)
	// PrivateData is the opaque state slot owned by whoever produced the
	// node. The bridge stores its export holder here.
	PrivateData any
}

// Released reports whether the node is dead.
func (n *SchemaNode) Released() bool { return n == nil || n.Release == nil }

// ArrayNode describes one array in the foreign array tree.
type ArrayNode struct {
	// Length is the logical row count.
	Length int64
	// NullCount is the number of nulls, or UnknownNullCount.
	NullCount int64
	// Offset must be zero; offset'ed arrays are not supported.
	Offset int64
	// NumBuffers is the number of populated buffer slots.
	NumBuffers int64
	// Buffers holds the raw buffer pointers: slot 0 the validity bitmap (nil
	// when the producer tracks no nulls), slot 1 the values.
	Buffers [MaxBuffers]unsafe.Pointer
	// Children must be empty; nested array data is not transferred.
	Children []*ArrayNode
	// Dictionary must be nil.
	Dictionary *ArrayNode
	// Release tears the node down. Nil means the node is dead.
	Release func(*ArrayNode)
	// PrivateData is the opaque state slot owned by the producer.
	PrivateData any
}

// Released reports whether the node is dead.
func (n *ArrayNode) Released() bool { return n == nil || n.Release == nil }
