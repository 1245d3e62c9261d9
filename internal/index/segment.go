package index

import (
	"fmt"
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// SegmentID names a segment.
type SegmentID string

// Postings is the sorted list of documents containing a term along with the
// term frequency in each.
type Postings struct {
	Docs  []DocID
	Freqs []uint32
}

// Len returns the document frequency.
func (p *Postings) Len() int {
	return len(p.Docs)
}

// FieldData is the raw material of one field of a segment. A nil Terms map
// on an indexed field means the term dictionary is missing.
type FieldData struct {
	Indexed bool
	Terms   map[string]*Postings
	Norms   []uint32
}

// InvertedIndexReader gives access to the term dictionary and postings of
// one field of one segment.
type InvertedIndexReader struct {
	field       string
	terms       []string
	postings    map[string]*Postings
	norms       []uint32
	totalTokens uint64
}

// Field returns the field name.
func (ii *InvertedIndexReader) Field() string {
	return ii.field
}

// Postings returns the postings of text, or false when the term is absent.
func (ii *InvertedIndexReader) Postings(text string) (*Postings, bool) {
	p, ok := ii.postings[text]
	return p, ok
}

// DocFreq returns the number of documents containing text.
func (ii *InvertedIndexReader) DocFreq(text string) uint32 {
	if p, ok := ii.postings[text]; ok {
		return uint32(p.Len())
	}
	return 0
}

// NumTerms returns the size of the dictionary.
func (ii *InvertedIndexReader) NumTerms() int {
	return len(ii.terms)
}

// FieldNorm returns the number of tokens doc has in this field.
func (ii *InvertedIndexReader) FieldNorm(doc DocID) uint32 {
	if int(doc) >= len(ii.norms) {
		return 0
	}
	return ii.norms[doc]
}

// TotalTokens returns the number of tokens over all documents, deleted ones
// included.
func (ii *InvertedIndexReader) TotalTokens() uint64 {
	return ii.totalTokens
}

// Bound is one end of a dictionary range.
type Bound struct {
	Value     string
	Inclusive bool
	Open      bool
}

// TermsInRange returns the dictionary terms between lower and upper in
// lexicographic order.
func (ii *InvertedIndexReader) TermsInRange(lower, upper Bound) []string {
	start := 0
	if !lower.Open {
		start = sort.SearchStrings(ii.terms, lower.Value)
		if !lower.Inclusive && start < len(ii.terms) && ii.terms[start] == lower.Value {
			start++
		}
	}
	end := len(ii.terms)
	if !upper.Open {
		end = sort.SearchStrings(ii.terms, upper.Value)
		if upper.Inclusive && end < len(ii.terms) && ii.terms[end] == upper.Value {
			end++
		}
	}
	if start >= end {
		return nil
	}
	return ii.terms[start:end]
}

// SegmentReader is the immutable read view of one segment.
type SegmentReader struct {
	id      SegmentID
	maxDoc  uint32
	fields  map[string]*InvertedIndexReader
	missing map[string]bool
	stored  []Document
	deletes *DeleteBitSet
}

// NewSegmentReader validates the given field data and assembles a reader.
// Postings must be strictly increasing and below maxDoc; any violation is
// reported as ErrIndexCorrupted. stored may be nil.
func NewSegmentReader(id SegmentID, maxDoc uint32, fields map[string]FieldData, stored []Document, deletes *DeleteBitSet) (*SegmentReader, error) {
	r := &SegmentReader{
		id:      id,
		maxDoc:  maxDoc,
		fields:  make(map[string]*InvertedIndexReader, len(fields)),
		missing: make(map[string]bool),
		stored:  stored,
	}
	if !deletes.IsEmpty() {
		r.deletes = deletes
	}
	for name, data := range fields {
		if !data.Indexed {
			continue
		}
		if data.Terms == nil {
			r.missing[name] = true
			continue
		}
		ii, err := buildInvertedIndex(name, maxDoc, data)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrIndexCorrupted, "segment %s: %v", id, err)
		}
		r.fields[name] = ii
	}
	return r, nil
}

func buildInvertedIndex(field string, maxDoc uint32, data FieldData) (*InvertedIndexReader, error) {
	ii := &InvertedIndexReader{
		field:    field,
		terms:    make([]string, 0, len(data.Terms)),
		postings: data.Terms,
		norms:    data.Norms,
	}
	for text, p := range data.Terms {
		if len(p.Docs) != len(p.Freqs) {
			return nil, fmt.Errorf("field %s term %q: %d docs but %d freqs", field, text, len(p.Docs), len(p.Freqs))
		}
		for i, doc := range p.Docs {
			if doc >= maxDoc {
				return nil, fmt.Errorf("field %s term %q: doc %d out of range (max %d)", field, text, doc, maxDoc)
			}
			if i > 0 && doc <= p.Docs[i-1] {
				return nil, fmt.Errorf("field %s term %q: postings not strictly increasing at %d", field, text, i)
			}
		}
		ii.terms = append(ii.terms, text)
	}
	sort.Strings(ii.terms)
	for _, n := range data.Norms {
		ii.totalTokens += uint64(n)
	}
	return ii, nil
}

// ID returns the segment id.
func (r *SegmentReader) ID() SegmentID {
	return r.id
}

// MaxDoc returns one more than the highest doc id, deleted documents
// included.
func (r *SegmentReader) MaxDoc() uint32 {
	return r.maxDoc
}

// NumDocs returns the number of live documents.
func (r *SegmentReader) NumDocs() uint32 {
	return r.maxDoc - r.deletes.Len()
}

// NumDeletedDocs returns the number of deleted documents.
func (r *SegmentReader) NumDeletedDocs() uint32 {
	return r.deletes.Len()
}

// DeleteBitSet returns the deletion bitmap, or nil when the segment has no
// deletions.
func (r *SegmentReader) DeleteBitSet() *DeleteBitSet {
	return r.deletes
}

// IsDeleted reports whether doc is deleted.
func (r *SegmentReader) IsDeleted(doc DocID) bool {
	return r.deletes.IsDeleted(doc)
}

// InvertedIndex returns the inverted index of field.
func (r *SegmentReader) InvertedIndex(field string) (*InvertedIndexReader, error) {
	if ii, ok := r.fields[field]; ok {
		return ii, nil
	}
	if r.missing[field] {
		return nil, apperrors.Newf(apperrors.ErrMissingTermDictionary, "segment %s field %q", r.id, field)
	}
	return nil, apperrors.Newf(apperrors.ErrFieldNotIndexed, "segment %s field %q", r.id, field)
}

// Fields returns the names of the indexed fields in sorted order.
func (r *SegmentReader) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doc returns the stored fields of doc.
func (r *SegmentReader) Doc(doc DocID) (Document, error) {
	if int(doc) >= len(r.stored) {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "segment %s has no stored doc %d", r.id, doc)
	}
	return r.stored[doc], nil
}
