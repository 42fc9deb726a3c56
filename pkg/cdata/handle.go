package cdata

import (
	"sync/atomic"

	"github.com/dataplume/arrowbridge/pkg/errors"
)

// schemaHandle reference-counts a schema node whose lifetime the bridge has
// taken over. When the count drops to zero the node's original release
// callback runs, exactly once, on whichever goroutine dropped last. Routing
// every owning-mode teardown through a handle also guarantees a node's
// release callback is never invoked concurrently with itself.
type schemaHandle struct {
	refs atomic.Int64
	node *SchemaNode
}

func (h *schemaHandle) retain() { h.refs.Add(1) }

func (h *schemaHandle) release() {
	n := h.refs.Add(-1)
	errors.Assertf(n >= 0, "too many releases of a schema handle")
	if n == 0 && h.node.Release != nil {
		h.node.Release(h.node)
	}
}

// arrayHandle is the array-node counterpart of schemaHandle.
type arrayHandle struct {
	refs atomic.Int64
	node *ArrayNode
}

func (h *arrayHandle) retain() { h.refs.Add(1) }

func (h *arrayHandle) release() {
	n := h.refs.Add(-1)
	errors.Assertf(n >= 0, "too many releases of an array handle")
	if n == 0 && h.node.Release != nil {
		h.node.Release(h.node)
	}
}

// owningToken backs the buffer views of an owning-mode import. Every view
// produced for the same imported array shares the same handle pair, so the
// foreign release callbacks fire only after the last view across all the
// array's buffers is dropped.
type owningToken struct {
	schema *schemaHandle
	array  *arrayHandle
}

func (t *owningToken) Release() {
	t.schema.release()
	t.array.release()
}
