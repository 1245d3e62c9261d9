package index

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// Searcher is a point-in-time view over a list of segments. It carries the
// corpus statistics that weights compute their scoring constants from.
type Searcher struct {
	schema   Schema
	segments []*SegmentReader
}

// NewSearcher returns a searcher over segments.
func NewSearcher(schema Schema, segments ...*SegmentReader) *Searcher {
	return &Searcher{schema: schema, segments: segments}
}

// Schema returns the indexed fields.
func (s *Searcher) Schema() Schema {
	return s.schema
}

// Segments returns the segment readers in ordinal order.
func (s *Searcher) Segments() []*SegmentReader {
	return s.segments
}

// Segment returns the reader at ord.
func (s *Searcher) Segment(ord int) (*SegmentReader, error) {
	if ord < 0 || ord >= len(s.segments) {
		return nil, apperrors.Newf(apperrors.ErrSegmentUnavailable, "segment ordinal %d of %d", ord, len(s.segments))
	}
	return s.segments[ord], nil
}

// NumDocs returns the number of live documents over all segments.
func (s *Searcher) NumDocs() uint64 {
	var n uint64
	for _, seg := range s.segments {
		n += uint64(seg.NumDocs())
	}
	return n
}

// MaxDocs returns the number of documents over all segments, deleted ones
// included.
func (s *Searcher) MaxDocs() uint64 {
	var n uint64
	for _, seg := range s.segments {
		n += uint64(seg.MaxDoc())
	}
	return n
}

// DocFreq returns the number of documents containing term over all
// segments. Segments that do not index the field contribute nothing.
func (s *Searcher) DocFreq(term Term) uint64 {
	var n uint64
	for _, seg := range s.segments {
		ii, err := seg.InvertedIndex(term.Field)
		if err != nil {
			continue
		}
		n += uint64(ii.DocFreq(term.Text))
	}
	return n
}

// AvgFieldNorm returns the average number of tokens per document in field.
func (s *Searcher) AvgFieldNorm(field string) float64 {
	var tokens, docs uint64
	for _, seg := range s.segments {
		ii, err := seg.InvertedIndex(field)
		if err != nil {
			continue
		}
		tokens += ii.TotalTokens()
		docs += uint64(seg.MaxDoc())
	}
	if docs == 0 {
		return 0
	}
	return float64(tokens) / float64(docs)
}

// HasField reports whether at least one segment indexes field.
func (s *Searcher) HasField(field string) bool {
	for _, seg := range s.segments {
		if _, err := seg.InvertedIndex(field); err == nil {
			return true
		}
	}
	return false
}
