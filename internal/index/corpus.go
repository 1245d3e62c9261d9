package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
)

// DeletedField marks a corpus line as deleted when set to "true". The
// document still takes a doc id so that ids stay stable.
const DeletedField = "_deleted"

// LoadCorpus reads one JSON object of string fields per line and splits the
// documents into segments of at most maxDocs documents.
func LoadCorpus(r io.Reader, schema Schema, maxDocs int) ([]*SegmentReader, error) {
	if maxDocs <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "segment max docs must be positive, got %d", maxDocs)
	}
	logger := slog.Default().With("component", "corpus")
	var (
		segments []*SegmentReader
		writer   *SegmentWriter
	)
	flush := func() error {
		if writer == nil {
			return nil
		}
		reader, err := writer.Finish()
		if err != nil {
			return err
		}
		segments = append(segments, reader)
		writer = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "corpus line %d: %v", line, err)
		}
		if writer == nil {
			writer = NewSegmentWriter(SegmentID(fmt.Sprintf("seg-%04d", len(segments))), schema)
		}
		deleted := doc[DeletedField] == "true"
		delete(doc, DeletedField)
		id, err := writer.AddDocument(doc)
		if err != nil {
			return nil, err
		}
		if deleted {
			if err := writer.Delete(id); err != nil {
				return nil, err
			}
		}
		if writer.NumDocs() >= maxDocs {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	logger.Info("corpus loaded", "lines", line, "segments", len(segments))
	return segments, nil
}

// LoadCorpusFile is LoadCorpus over the file at path.
func LoadCorpusFile(path string, schema Schema, maxDocs int) ([]*SegmentReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()
	return LoadCorpus(f, schema, maxDocs)
}
