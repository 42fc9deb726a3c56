// Package buffer provides reference-counted byte buffers for vectors: owned
// buffers backed by an allocator, and zero-copy views over foreign memory
// whose teardown is delegated to an ownership token.
package buffer

import (
	"sync/atomic"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/dataplume/arrowbridge/pkg/errors"
)

// Buffer is an immutable, reference-counted byte range. Retain and Release
// may be called concurrently from multiple goroutines; the last Release
// reclaims the underlying storage (or runs the ownership token) exactly once.
type Buffer interface {
	// Bytes returns the described byte range without copying. The bytes must
	// be treated as immutable for the lifetime of the buffer.
	Bytes() []byte
	// Len returns the length of the byte range.
	Len() int
	// Retain increases the reference count by 1.
	Retain()
	// Release decreases the reference count by 1, reclaiming at zero.
	Release()
}

// Releaser is the ownership token behind a View. It runs when the view's
// reference count drops to zero.
type Releaser interface {
	Release()
}

// Borrowed is the stateless no-op ownership token. A view built with it
// performs no lifetime tracking at all; the caller contractually guarantees
// the memory outlives every such view.
type Borrowed struct{}

// Release implements Releaser.
func (Borrowed) Release() {}

// Owned is an allocator-backed buffer. It delegates reference counting to
// the arrow memory.Buffer underneath, which returns the storage to the
// allocator when the count reaches zero.
type Owned struct {
	buf *memory.Buffer
}

// NewOwned allocates a zeroed buffer of the given size.
func NewOwned(alloc memory.Allocator, size int) *Owned {
	b := memory.NewResizableBuffer(alloc)
	b.Resize(size)
	return &Owned{buf: b}
}

func (o *Owned) Bytes() []byte { return o.buf.Bytes() }
func (o *Owned) Len() int      { return o.buf.Len() }
func (o *Owned) Retain()       { o.buf.Retain() }
func (o *Owned) Release()      { o.buf.Release() }

// View is a zero-copy buffer over foreign memory. It never duplicates the
// byte range; when its reference count drops to zero it runs the ownership
// token and drops the pointer.
type View struct {
	refs   atomic.Int64
	data   unsafe.Pointer
	length int
	token  Releaser
}

// NewView wraps (pointer, length) with the given ownership token. The
// returned view starts with a reference count of one.
func NewView(data unsafe.Pointer, length int, token Releaser) *View {
	v := &View{data: data, length: length, token: token}
	v.refs.Store(1)
	return v
}

// Bytes returns the viewed range. Nil for an empty or zero-length view.
func (v *View) Bytes() []byte {
	if v.data == nil || v.length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.data), v.length)
}

// Len returns the length of the viewed range.
func (v *View) Len() int { return v.length }

// Retain increases the reference count by 1.
func (v *View) Retain() {
	n := v.refs.Add(1)
	errors.Assertf(n > 1, "retain of a released buffer view")
}

// Release decreases the reference count by 1. The ownership token runs when
// the count reaches zero, no matter which goroutine's release is last.
func (v *View) Release() {
	n := v.refs.Add(-1)
	errors.Assertf(n >= 0, "too many releases of a buffer view")
	if n == 0 {
		v.data = nil
		v.token.Release()
	}
}
