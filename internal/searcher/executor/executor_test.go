package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/query"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/querygrammar"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/compiler"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
)

var schema = index.TextSchema("title", "body")

const corpus = `{"title": "distributed search", "body": "search engines index documents"}
{"title": "pasta recipes", "body": "fresh pasta with basil"}
{"title": "search tips", "body": "boolean search operators", "_deleted": "true"}
{"title": "gardening", "body": "growing basil at home"}
{"title": "search ranking", "body": "bm25 ranks search results by relevance"}
{"title": "italian food", "body": "pasta and pizza"}
{"title": "full text search", "body": "inverted index and postings"}
`

const segmentSize = 3

func load(t *testing.T, maxDocs int) *index.Searcher {
	t.Helper()
	segments, err := index.LoadCorpus(strings.NewReader(corpus), schema, maxDocs)
	require.NoError(t, err)
	return index.NewSearcher(schema, segments...)
}

func compile(t *testing.T, text string) query.Query {
	t.Helper()
	ast, err := querygrammar.NewParser(
		querygrammar.UserInputField{Name: "title"},
		querygrammar.UserInputField{Name: "body"},
	).Parse(text)
	require.NoError(t, err)
	q, err := compiler.New(schema).Compile(ast)
	require.NoError(t, err)
	return q
}

func newExecutor(searcher *index.Searcher, m *metrics.Metrics) *Executor {
	cfg := config.Default().Search
	cfg.SegmentParallelism = 2
	return New(searcher, cfg, m)
}

func globalDoc(addr merger.DocAddress, segmentSize int) index.DocID {
	return index.DocID(int(addr.Segment)*segmentSize) + addr.Doc
}

func TestSearch_SegmentedMatchesSingleSegment(t *testing.T) {
	single := newExecutor(load(t, 100), nil)
	split := newExecutor(load(t, segmentSize), nil)
	require.Len(t, split.Searcher().Segments(), 3)

	for _, text := range []string{"search", "pasta OR basil", "search -ranking", "title:search body:search", "*"} {
		t.Run(text, func(t *testing.T) {
			want, err := single.Search(context.Background(), compile(t, text), 10)
			require.NoError(t, err)
			got, err := split.Search(context.Background(), compile(t, text), 10)
			require.NoError(t, err)

			assert.Equal(t, want.TotalHits, got.TotalHits)
			require.Len(t, got.Hits, len(want.Hits))
			for i := range want.Hits {
				assert.InDelta(t, want.Hits[i].Score, got.Hits[i].Score, 1e-9)
				assert.Equal(t, want.Hits[i].Address.Doc, globalDoc(got.Hits[i].Address, segmentSize))
			}
		})
	}
}

func TestSearch_SkipsDeletedAndRanks(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	res, err := e.Search(context.Background(), compile(t, "search"), 10)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, uint64(3), res.TotalHits)
	for i, hit := range res.Hits {
		assert.NotEqual(t, index.DocID(2), globalDoc(hit.Address, segmentSize))
		if i > 0 {
			assert.GreaterOrEqual(t, res.Hits[i-1].Score, hit.Score)
		}
	}
}

func TestSearch_LimitAndRequestID(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	ctx := logger.WithRequestID(context.Background(), "req-42")
	res, err := e.Search(ctx, compile(t, "*"), 2)
	require.NoError(t, err)
	assert.Equal(t, "req-42", res.RequestID)
	assert.Len(t, res.Hits, 2)
	assert.Equal(t, uint64(6), res.TotalHits)

	assert.Equal(t, 10, e.Limit(0))
	assert.Equal(t, 100, e.Limit(5000))
}

func TestCount_MatchesSearch(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	for _, text := range []string{"search", "pasta basil", "* -pasta", "nothing"} {
		q := compile(t, text)
		res, err := e.Search(context.Background(), q, 100)
		require.NoError(t, err)
		n, err := e.Count(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, res.TotalHits, n, text)
	}
}

func TestExplain_AgreesWithSearch(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	q := compile(t, "search OR pasta")
	res, err := e.Search(context.Background(), q, 10)
	require.NoError(t, err)
	for _, hit := range res.Hits {
		ex, err := e.Explain(context.Background(), q, hit.Address)
		require.NoError(t, err)
		assert.InDelta(t, hit.Score, ex.Value, 1e-9)
	}

	_, err = e.Explain(context.Background(), compile(t, "pasta"), merger.DocAddress{Segment: 0, Doc: 0})
	assert.ErrorIs(t, err, apperrors.ErrDocNotMatched)

	_, err = e.Explain(context.Background(), q, merger.DocAddress{Segment: 9, Doc: 0})
	assert.ErrorIs(t, err, apperrors.ErrSegmentUnavailable)

	_, err = e.Explain(context.Background(), q, merger.DocAddress{Segment: 0, Doc: 99})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestDocument(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	doc, err := e.Document(merger.DocAddress{Segment: 1, Doc: 1})
	require.NoError(t, err)
	assert.Equal(t, "search ranking", doc["title"])
}

func TestSearch_SegmentFailureFailsQuery(t *testing.T) {
	healthy := load(t, segmentSize).Segments()
	broken, err := index.NewSegmentReader("seg-broken", 1, map[string]index.FieldData{
		"title": {Indexed: true},
		"body":  {Indexed: true},
	}, nil, nil)
	require.NoError(t, err)
	e := newExecutor(index.NewSearcher(schema, append(healthy, broken)...), nil)

	_, err = e.Search(context.Background(), compile(t, "search"), 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMissingTermDictionary)
	assert.Contains(t, err.Error(), "seg-broken")
	assert.True(t, apperrors.IsIndexFault(err))

	_, err = e.Count(context.Background(), compile(t, "search"))
	assert.ErrorIs(t, err, apperrors.ErrMissingTermDictionary)
}

func TestSearch_Cancelled(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Search(ctx, compile(t, "search"), 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_UnknownFieldFailsBeforeSegments(t *testing.T) {
	e := newExecutor(load(t, segmentSize), nil)
	_, err := e.Search(context.Background(), query.NewTermQuery(index.NewTerm("author", "x")), 10)
	assert.ErrorIs(t, err, apperrors.ErrFieldNotIndexed)
}

func TestExecutor_RecordsMetrics(t *testing.T) {
	m := metrics.New(nil)
	e := newExecutor(load(t, segmentSize), m)
	_, err := e.Search(context.Background(), compile(t, "search"), 10)
	require.NoError(t, err)
	_, err = e.Search(context.Background(), compile(t, "zzz"), 10)
	require.NoError(t, err)
	_, err = e.Count(context.Background(), compile(t, "search"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("search", "zero_result")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("count", "ok")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.SegmentsSearched))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DocsScored))
}

func BenchmarkSearch(b *testing.B) {
	var sb strings.Builder
	words := []string{"search", "pasta", "index", "query", "basil", "ranking", "segment", "posting"}
	for i := 0; i < 5000; i++ {
		sb.WriteString(`{"title": "` + words[i%len(words)] + ` ` + words[(i/3)%len(words)] + `", "body": "` + words[(i/7)%len(words)] + ` ` + words[(i*5)%len(words)] + `"}` + "\n")
	}
	segments, err := index.LoadCorpus(strings.NewReader(sb.String()), schema, 1000)
	require.NoError(b, err)
	e := New(index.NewSearcher(schema, segments...), config.Default().Search, nil)
	q, err := compiler.New(schema).Compile(querygrammar.Or([]querygrammar.UserInputAST{
		querygrammar.NewLiteral(nil, "search"),
		querygrammar.NewLiteral(nil, "pasta"),
	}))
	require.NoError(b, err)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Search(context.Background(), q, 10); err != nil {
			b.Fatal(err)
		}
	}
}
