package cdata

import (
	"github.com/dataplume/arrowbridge/pkg/errors"
	"github.com/dataplume/arrowbridge/pkg/metrics"
)

// releaseSchema is the release callback installed on every exported schema
// node. The contract requires it to recurse into children and the dictionary
// first, then mark the node dead. Calling it on an already-dead node is a
// no-op, so repeated releases are safe.
func releaseSchema(n *SchemaNode) {
	if n == nil || n.Release == nil {
		return
	}

	for _, child := range n.Children {
		if child != nil && child.Release != nil {
			child.Release(child)
			errors.Assertf(child.Release == nil, "schema child release did not mark the node dead")
		}
	}

	if dict := n.Dictionary; dict != nil && dict.Release != nil {
		dict.Release(dict)
		errors.Assertf(dict.Release == nil, "schema dictionary release did not mark the node dead")
	}

	// Drop the holder, then mark the node dead. The holder is the only thing
	// keeping the children storage and any retained type alive.
	n.PrivateData = nil
	n.Release = nil
	metrics.RecordRelease("schema")
}

// releaseArray is the release callback installed on every exported array
// node. Same shape as releaseSchema: children and dictionary first, then the
// holder, then the liveness markers.
func releaseArray(n *ArrayNode) {
	if n == nil || n.Release == nil {
		return
	}

	for _, child := range n.Children {
		if child != nil && child.Release != nil {
			child.Release(child)
			errors.Assertf(child.Release == nil, "array child release did not mark the node dead")
		}
	}

	if dict := n.Dictionary; dict != nil && dict.Release != nil {
		dict.Release(dict)
		errors.Assertf(dict.Release == nil, "array dictionary release did not mark the node dead")
	}

	if holder, ok := n.PrivateData.(*arrayExportHolder); ok {
		holder.close()
	}
	n.PrivateData = nil
	n.Release = nil
	metrics.RecordRelease("array")
}
