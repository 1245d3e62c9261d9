// Package index models the read side of an index segment as seen by the
// query-execution layer: per-field inverted indexes with sorted postings,
// field norms, a deletion bitmap, and a Searcher snapshot carrying the
// corpus statistics scoring needs.
//
// Segments are immutable once built by a SegmentWriter and are safe for
// concurrent readers.
package index

import "math"

// DocID identifies a document within one segment.
type DocID = uint32

// TerminatedDoc is returned by doc sets that have no current document.
const TerminatedDoc DocID = math.MaxUint32

// Document is a set of named text fields.
type Document map[string]string
