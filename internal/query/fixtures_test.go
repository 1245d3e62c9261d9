package query

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
)

var fixtureDocs = []index.Document{
	{"title": "rust search engine", "body": "fast full text search", "year": "2019"},
	{"title": "go search", "body": "search engines in go are fast", "year": "2020"},
	{"title": "cooking pasta", "body": "boil water add pasta", "year": "2021"},
	{"title": "search pasta", "body": "find the best pasta recipes", "year": "2022"},
	{"title": "gardening", "body": "grow tomatoes", "year": "2020"},
}

func fixtureSchema() index.Schema {
	return index.Schema{{Name: "title"}, {Name: "body"}, {Name: "year", Raw: true}}
}

func buildReader(t testing.TB, id index.SegmentID, deleted []index.DocID, docs ...index.Document) *index.SegmentReader {
	t.Helper()
	w := index.NewSegmentWriter(id, fixtureSchema())
	for _, doc := range docs {
		_, err := w.AddDocument(doc)
		require.NoError(t, err)
	}
	for _, doc := range deleted {
		require.NoError(t, w.Delete(doc))
	}
	reader, err := w.Finish()
	require.NoError(t, err)
	return reader
}

// fixture returns a searcher over one segment holding fixtureDocs.
func fixture(t testing.TB, deleted ...index.DocID) (*index.Searcher, *index.SegmentReader) {
	t.Helper()
	reader := buildReader(t, "seg-0", deleted, fixtureDocs...)
	return index.NewSearcher(fixtureSchema(), reader), reader
}

func term(field, text string) *TermQuery {
	return NewTermQuery(index.NewTerm(field, text))
}

func scorerFor(t testing.TB, q Query, searcher *index.Searcher, reader *index.SegmentReader, scoring bool) Scorer {
	t.Helper()
	w, err := q.Weight(searcher, scoring)
	require.NoError(t, err)
	s, err := w.Scorer(reader)
	require.NoError(t, err)
	return s
}

func collect(ds DocSet) []index.DocID {
	docs := []index.DocID{}
	for ds.Advance() {
		docs = append(docs, ds.Doc())
	}
	return docs
}

func collectScores(s Scorer) map[index.DocID]Score {
	scores := map[index.DocID]Score{}
	for s.Advance() {
		scores[s.Doc()] = s.Score()
	}
	return scores
}

func vec(docs ...index.DocID) Scorer {
	return NewConstScorer(NewVecDocSet(docs...), 1)
}

func randomDocs(rng *rand.Rand, maxDoc int, density float64) []index.DocID {
	docs := []index.DocID{}
	for d := 0; d < maxDoc; d++ {
		if rng.Float64() < density {
			docs = append(docs, index.DocID(d))
		}
	}
	return docs
}

func toSet(docs []index.DocID) map[index.DocID]bool {
	set := make(map[index.DocID]bool, len(docs))
	for _, d := range docs {
		set[d] = true
	}
	return set
}

func fromSet(set map[index.DocID]bool) []index.DocID {
	docs := make([]index.DocID, 0, len(set))
	for d := range set {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })
	return docs
}

// model replays the documented DocSet behaviour over a sorted slice.
type model struct {
	docs []index.DocID
	pos  int
}

func newModel(docs []index.DocID) *model {
	return &model{docs: docs, pos: -1}
}

func (m *model) advance() (bool, index.DocID) {
	if m.pos < len(m.docs) {
		m.pos++
	}
	if m.pos >= len(m.docs) {
		return false, 0
	}
	return true, m.docs[m.pos]
}

func (m *model) skipNext(target index.DocID) (SkipResult, index.DocID) {
	for {
		ok, doc := m.advance()
		if !ok {
			return SkipEnd, 0
		}
		if doc == target {
			return SkipReached, doc
		}
		if doc > target {
			return SkipOverStep, doc
		}
	}
}

type op struct {
	skip   bool
	target index.DocID
}

func randomOps(rng *rand.Rand, n, maxDoc int) []op {
	ops := make([]op, n)
	for i := range ops {
		ops[i] = op{skip: rng.Intn(2) == 0, target: index.DocID(rng.Intn(maxDoc + 2))}
	}
	return ops
}
