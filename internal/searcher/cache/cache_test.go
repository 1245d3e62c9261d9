package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/querygrammar"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/resilience"
)

type fakeRemote struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	gets   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRemote) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeRemote) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRemote) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func result(total uint64) *executor.SearchResult {
	return &executor.SearchResult{
		RequestID: "r",
		Query:     "Term(title:x)",
		TotalHits: total,
		Hits:      []merger.Hit{{Address: merger.DocAddress{Segment: 1, Doc: 2}, Score: 1.5}},
	}
}

func TestKey(t *testing.T) {
	a, err := querygrammar.Parse("title:pasta")
	require.NoError(t, err)
	b, err := querygrammar.Parse("title:pasta ")
	require.NoError(t, err)
	c, err := querygrammar.Parse("title:pizza")
	require.NoError(t, err)

	assert.Equal(t, Key("ns", a, 10), Key("ns", b, 10))
	assert.NotEqual(t, Key("ns", a, 10), Key("ns", a, 20))
	assert.NotEqual(t, Key("ns", a, 10), Key("ns", c, 10))
	assert.NotEqual(t, Key("ns", a, 10), Key("other", a, 10))
	assert.Regexp(t, `^search:[0-9a-f]{32}$`, Key("ns", a, 10))
}

func TestQueryCache_LocalTier(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, ok := c.Get(ctx, "k1")
	assert.False(t, ok)
	c.Set(ctx, "k1", result(1))
	c.Set(ctx, "k2", result(2))
	got, ok := c.Get(ctx, "k1")
	require.True(t, ok)
	assert.Equal(t, uint64(1), got.TotalHits)

	c.Set(ctx, "k3", result(3))
	_, ok = c.Get(ctx, "k2")
	assert.False(t, ok, "least recently used entry is evicted")

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestQueryCache_RemoteTier(t *testing.T) {
	remote := newFakeRemote()
	m := metrics.New(nil)
	writer, err := New(4, WithRemote(remote, time.Minute))
	require.NoError(t, err)
	ctx := context.Background()
	writer.Set(ctx, "k", result(7))
	assert.Equal(t, time.Minute, remote.ttls["k"])

	reader, err := New(4, WithRemote(remote, time.Minute), WithMetrics(m))
	require.NoError(t, err)
	got, ok := reader.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, result(7), got)
	assert.Equal(t, 1, reader.Len(), "remote hit populates the local tier")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("remote")))

	_, ok = reader.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("local")))
}

func TestQueryCache_RemoteFailuresAreMisses(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errors.New("connection refused")
	c, err := New(4, WithRemote(remote, time.Minute))
	require.NoError(t, err)
	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)

	remote.getErr = nil
	remote.data["bad"] = []byte("{not json")
	_, ok = c.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestQueryCache_BreakerSkipsFailingRemote(t *testing.T) {
	remote := newFakeRemote()
	remote.getErr = errors.New("connection refused")
	breaker := resilience.NewBreaker("test-remote", 2, time.Hour)
	c, err := New(4, WithRemote(remote, time.Minute), WithRemoteBreaker(breaker))
	require.NoError(t, err)
	ctx := context.Background()

	for range 5 {
		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	}
	assert.Equal(t, 2, remote.gets, "remote is not called once the breaker opens")
	assert.Equal(t, resilience.StateOpen, breaker.State())

	c.Set(ctx, "k", result(1))
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok, "local tier still serves")
	assert.Empty(t, remote.data)
}

func TestQueryCache_NamespacesDoNotShareRemoteEntries(t *testing.T) {
	remote := newFakeRemote()
	ctx := context.Background()
	ast, err := querygrammar.Parse("pasta")
	require.NoError(t, err)

	cacheA, err := New(4, WithRemote(remote, time.Minute))
	require.NoError(t, err)
	cacheB, err := New(4, WithRemote(remote, time.Minute))
	require.NoError(t, err)

	got, cached, err := cacheA.GetOrCompute(ctx, Key("corpus-a", ast, 10), func(context.Context) (*executor.SearchResult, error) {
		return result(7), nil
	})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, uint64(7), got.TotalHits)

	got, cached, err = cacheB.GetOrCompute(ctx, Key("corpus-b", ast, 10), func(context.Context) (*executor.SearchResult, error) {
		return &executor.SearchResult{Query: "Term(title:pasta)"}, nil
	})
	require.NoError(t, err)
	assert.False(t, cached, "entry from another corpus is not reused")
	assert.Zero(t, got.TotalHits)
	assert.Len(t, remote.data, 2)

	got, cached, err = cacheB.GetOrCompute(ctx, Key("corpus-a", ast, 10), func(context.Context) (*executor.SearchResult, error) {
		t.Fatal("same namespace must hit the shared tier")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, uint64(7), got.TotalHits)
}

func TestQueryCache_GetOrComputeCollapsesConcurrentMisses(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return result(5), nil
	}

	var wg sync.WaitGroup
	results := make([]*executor.SearchResult, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _, err := c.GetOrCompute(context.Background(), "k", compute)
			assert.NoError(t, err)
			results[i] = r
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	for _, r := range results {
		assert.Equal(t, uint64(5), r.TotalHits)
	}

	r, cached, err := c.GetOrCompute(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, uint64(5), r.TotalHits)
}

func TestQueryCache_ErrorsAreNotCached(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	boom := errors.New("boom")
	_, _, err = c.GetOrCompute(context.Background(), "k", func(context.Context) (*executor.SearchResult, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestQueryCache_Invalidate(t *testing.T) {
	remote := newFakeRemote()
	remote.data["other:1"] = []byte("x")
	c, err := New(8, WithRemote(remote, time.Minute))
	require.NoError(t, err)
	ctx := context.Background()
	c.Set(ctx, "search:a", result(1))
	c.Set(ctx, "search:b", result(2))

	require.NoError(t, c.Invalidate(ctx))
	assert.Equal(t, 0, c.Len())
	assert.Len(t, remote.data, 1)
	_, ok := c.Get(ctx, "search:a")
	assert.False(t, ok)
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}
