package index

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// FieldOptions describes how a field is indexed. Raw fields index the whole
// case-folded value as a single term, which makes them usable for range
// queries over dates, codes and similar values.
type FieldOptions struct {
	Name string
	Raw  bool
}

// Schema lists the indexed fields. Fields of a document that are not in the
// schema are stored but not indexed.
type Schema []FieldOptions

// Field returns the options of name.
func (s Schema) Field(name string) (FieldOptions, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return FieldOptions{}, false
}

// TextSchema indexes every named field with the tokenizer.
func TextSchema(names ...string) Schema {
	s := make(Schema, len(names))
	for i, name := range names {
		s[i] = FieldOptions{Name: name}
	}
	return s
}

// SegmentWriter accumulates documents in memory and produces an immutable
// SegmentReader. Doc ids are assigned in insertion order starting at 0.
type SegmentWriter struct {
	mu       sync.Mutex
	id       SegmentID
	schema   Schema
	postings map[string]map[string]*Postings
	norms    map[string][]uint32
	stored   []Document
	deletes  *DeleteBitSet
	finished bool
	logger   *slog.Logger
}

// NewSegmentWriter returns an empty writer for segment id.
func NewSegmentWriter(id SegmentID, schema Schema) *SegmentWriter {
	w := &SegmentWriter{
		id:       id,
		schema:   schema,
		postings: make(map[string]map[string]*Postings, len(schema)),
		norms:    make(map[string][]uint32, len(schema)),
		deletes:  NewDeleteBitSet(),
		logger:   slog.Default().With("component", "segment-writer", "segment", string(id)),
	}
	for _, f := range schema {
		w.postings[f.Name] = make(map[string]*Postings)
	}
	return w
}

// AddDocument indexes doc and returns its id.
func (w *SegmentWriter) AddDocument(doc Document) (DocID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return 0, apperrors.Newf(apperrors.ErrInvalidArgument, "segment %s already finished", w.id)
	}
	docID := DocID(len(w.stored))
	w.stored = append(w.stored, doc)
	for _, f := range w.schema {
		terms := analyze(f, doc[f.Name])
		w.norms[f.Name] = append(w.norms[f.Name], uint32(len(terms)))
		field := w.postings[f.Name]
		for _, term := range terms {
			p, exists := field[term]
			if !exists {
				p = &Postings{}
				field[term] = p
			}
			if n := len(p.Docs); n > 0 && p.Docs[n-1] == docID {
				p.Freqs[n-1]++
				continue
			}
			p.Docs = append(p.Docs, docID)
			p.Freqs = append(p.Freqs, 1)
		}
	}
	w.logger.Debug("document added", "doc", docID, "fields", len(doc))
	return docID, nil
}

// Delete marks doc as deleted.
func (w *SegmentWriter) Delete(doc DocID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if int(doc) >= len(w.stored) {
		return apperrors.Newf(apperrors.ErrInvalidArgument, "segment %s has no doc %d", w.id, doc)
	}
	w.deletes.add(doc)
	return nil
}

// NumDocs returns the number of documents added so far, deleted ones
// included.
func (w *SegmentWriter) NumDocs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stored)
}

// Finish seals the writer and returns the segment reader.
func (w *SegmentWriter) Finish() (*SegmentReader, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "segment %s already finished", w.id)
	}
	w.finished = true
	fields := make(map[string]FieldData, len(w.schema))
	for _, f := range w.schema {
		fields[f.Name] = FieldData{
			Indexed: true,
			Terms:   w.postings[f.Name],
			Norms:   w.norms[f.Name],
		}
	}
	reader, err := NewSegmentReader(w.id, uint32(len(w.stored)), fields, w.stored, w.deletes)
	if err != nil {
		return nil, fmt.Errorf("finishing segment %s: %w", w.id, err)
	}
	w.logger.Info("segment finished",
		"docs", reader.MaxDoc(),
		"deleted", reader.NumDeletedDocs(),
		"fields", len(w.schema),
	)
	return reader, nil
}

// AnalyzeField returns the terms the writer would index for text in field.
// Query compilation uses it so that query terms match indexed terms.
func AnalyzeField(schema Schema, field, text string) []string {
	f, ok := schema.Field(field)
	if !ok {
		f = FieldOptions{Name: field}
	}
	return analyze(f, text)
}

func analyze(f FieldOptions, text string) []string {
	if text == "" {
		return nil
	}
	if f.Raw {
		return []string{tokenizer.Normalize(text)}
	}
	return tokenizer.Terms(text)
}
