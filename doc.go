// Package arrowbridge provides a zero-copy, bidirectional bridge between an
// in-process columnar vector/type representation and the C data interchange
// shape: a schema descriptor tree and an array descriptor tree, each carrying
// a release callback and an opaque private-state slot.
//
// The bridge never duplicates buffer memory. Exported nodes alias the
// vector's buffers and keep the vector alive through a holder stored in the
// node's private-state slot; imported vectors alias the foreign buffers
// through reference-counted views whose ownership token decides what happens
// when the last reference drops.
//
// # Quick Start
//
// Export a vector and import it back, handing the foreign structures'
// lifetime to the bridge:
//
//	import (
//	    "github.com/apache/arrow-go/v18/arrow/memory"
//	    "github.com/dataplume/arrowbridge/pkg/cdata"
//	    "github.com/dataplume/arrowbridge/pkg/types"
//	    "github.com/dataplume/arrowbridge/pkg/vector"
//	)
//
//	b, _ := vector.NewBuilder(memory.NewGoAllocator(), types.Int64Type())
//	_ = b.AppendInt64(42)
//	b.AppendNull()
//	v, _ := b.Build()
//
//	var schema cdata.SchemaNode
//	var array cdata.ArrayNode
//	_ = cdata.ExportType(v.Type(), &schema)
//	_ = cdata.ExportVector(v, &array)
//
//	imported, _ := cdata.ImportVectorOwned(&schema, &array)
//	defer imported.Release() // fires the foreign release callbacks
//
// # Ownership Modes
//
// ImportVector borrows: the caller keeps responsibility for releasing the
// foreign nodes, and the returned vector is valid only while they stay
// alive. ImportVectorOwned takes over: the caller's nodes are marked dead
// immediately and the original release callbacks fire exactly once, when the
// last buffer view derived from the import is dropped.
//
// # Scope
//
// Schema export and import are fully recursive over the supported scalar and
// nested kinds. Array data transfer is restricted to flat vectors of
// fixed-width scalars; dictionary encodings, offsets, and nested or
// variable-width array data are outside this version's scope.
//
// # Key Packages
//
//	pkg/cdata   - the bridge: foreign nodes, export, import, release protocol
//	pkg/types   - internal type system (kind enumeration, shared DataType)
//	pkg/vector  - flat vectors and builders
//	pkg/buffer  - reference-counted buffers and zero-copy views
//	pkg/errors  - structured error handling
//	pkg/logger  - structured logging (zap)
//	pkg/metrics - Prometheus counters for bridge operations
package arrowbridge
