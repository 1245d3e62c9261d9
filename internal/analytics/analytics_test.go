package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Message
	fail    bool
}

func (p *fakePublisher) Publish(_ context.Context, messages ...kafka.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	batch := make([]kafka.Message, len(messages))
	copy(batch, messages)
	p.batches = append(p.batches, batch)
	return nil
}

func (p *fakePublisher) published() []SearchEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []SearchEvent
	for _, b := range p.batches {
		for _, m := range b {
			out = append(out, m.Value.(SearchEvent))
		}
	}
	return out
}

func event(id, query string, hits uint64) SearchEvent {
	return NewSearchEvent(id, query, hits, int(hits), 3*time.Millisecond, false, nil)
}

func TestNewSearchEvent_Classifies(t *testing.T) {
	assert.Equal(t, EventSearch, event("a", "q", 2).Type)
	assert.Equal(t, EventZeroResult, event("a", "q", 0).Type)
	assert.Equal(t, EventError, NewSearchEvent("a", "q", 0, 0, 0, false, errors.New("x")).Type)
	assert.Equal(t, int64(3), event("a", "q", 1).LatencyMs)
}

func TestCollector_BatchesAndFlushesOnClose(t *testing.T) {
	pub := &fakePublisher{}
	m := metrics.New(nil)
	c := NewCollector(pub, CollectorOptions{BatchSize: 2, FlushInterval: time.Hour}, m)
	c.Start(context.Background())
	for _, id := range []string{"r1", "r2", "r3"} {
		require.True(t, c.Track(event(id, "pasta", 1)))
	}
	c.Close()

	got := pub.published()
	require.Len(t, got, 3)
	assert.Equal(t, "r1", got[0].RequestID)
	assert.Equal(t, "r3", got[2].RequestID)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("published")))
	assert.False(t, c.Track(event("late", "x", 1)), "closed collector drops events")
}

func TestCollector_FlushesOnInterval(t *testing.T) {
	pub := &fakePublisher{}
	c := NewCollector(pub, CollectorOptions{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, nil)
	c.Start(context.Background())
	defer c.Close()
	c.Track(event("r1", "q", 1))
	assert.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestCollector_FlushesOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCollector(pub, CollectorOptions{BatchSize: 100, FlushInterval: time.Hour}, nil)
	c.Track(event("r1", "q", 1))
	c.Track(event("r2", "q", 1))
	c.Start(ctx)
	cancel()
	c.Close()
	assert.Len(t, pub.published(), 2)
}

func TestCollector_DropsWhenFull(t *testing.T) {
	m := metrics.New(nil)
	c := NewCollector(&fakePublisher{}, CollectorOptions{BufferSize: 1}, m)
	assert.True(t, c.Track(event("r1", "q", 1)))
	assert.False(t, c.Track(event("r2", "q", 1)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("dropped")))
	c.Close()
}

func TestCollector_FailedBatchesAreBounded(t *testing.T) {
	pub := &fakePublisher{fail: true}
	m := metrics.New(nil)
	c := NewCollector(pub, CollectorOptions{BatchSize: 1}, m)
	pending := []kafka.Message{{Key: "a"}, {Key: "b"}, {Key: "c"}, {Key: "d"}, {Key: "e"}}
	rest := c.flush(context.Background(), pending)
	require.Len(t, rest, 3)
	assert.Equal(t, "c", rest[0].Key)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("dropped")))

	pub.fail = false
	assert.Empty(t, c.flush(context.Background(), rest))
}

func TestAggregator_Stats(t *testing.T) {
	a := NewAggregator()
	a.Record(event("1", "pasta", 3))
	a.Record(event("2", "pasta", 1))
	a.Record(event("3", "nothing here", 0))
	cached := event("4", "pasta", 3)
	cached.CacheHit = true
	a.Record(cached)
	a.Record(NewSearchEvent("5", "bad:[", 0, 0, 0, false, errors.New("parse")))

	s := a.Stats()
	assert.Equal(t, int64(5), s.TotalSearches)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(1), s.ZeroResultCount)
	assert.Equal(t, []QueryCount{{Query: "pasta", Count: 3}, {Query: "bad:[", Count: 1}, {Query: "nothing here", Count: 1}}, s.TopQueries)
	assert.Equal(t, []QueryCount{{Query: "nothing here", Count: 1}}, s.ZeroResultQueries)
	assert.Equal(t, int64(3), s.P50LatencyMs)
	assert.InDelta(t, 3.0, s.AvgLatencyMs, 1e-9)
}

func TestAggregator_PercentilesAndRate(t *testing.T) {
	a := NewAggregator()
	start := a.since
	a.now = func() time.Time { return start.Add(2 * time.Minute) }
	for i := 1; i <= 100; i++ {
		a.Record(NewSearchEvent("id", "q", 1, 1, time.Duration(i)*time.Millisecond, false, nil))
	}
	s := a.Stats()
	assert.Equal(t, int64(50), s.P50LatencyMs)
	assert.Equal(t, int64(95), s.P95LatencyMs)
	assert.Equal(t, int64(99), s.P99LatencyMs)
	assert.InDelta(t, 50.0, s.QueriesPerMinute, 1e-9)
}

func TestRing_KeepsMostRecentWindow(t *testing.T) {
	var r ring
	for i := range latencyWindow + 5 {
		r.add(int64(i))
	}
	sorted := r.sorted()
	require.Len(t, sorted, latencyWindow)
	assert.Equal(t, int64(5), sorted[0])
	assert.Equal(t, int64(latencyWindow+4), sorted[len(sorted)-1])
}

func TestAggregator_Handler(t *testing.T) {
	a := NewAggregator()
	raw, err := json.Marshal(event("1", "pasta", 2))
	require.NoError(t, err)
	h := a.Handler()
	require.NoError(t, h(context.Background(), []byte("1"), raw))
	require.NoError(t, h(context.Background(), []byte("2"), []byte("not json")))
	assert.Equal(t, int64(1), a.Stats().TotalSearches)
}

type fakeInvalidator struct {
	calls int
	err   error
}

func (f *fakeInvalidator) Invalidate(context.Context) error {
	f.calls++
	return f.err
}

func TestInvalidationHandler(t *testing.T) {
	inv := &fakeInvalidator{}
	h := InvalidationHandler(inv)
	raw, err := json.Marshal(InvalidationNotice{Reason: "reindex"})
	require.NoError(t, err)
	require.NoError(t, h(context.Background(), nil, raw))
	require.NoError(t, h(context.Background(), nil, []byte("garbage")))
	assert.Equal(t, 2, inv.calls)

	inv.err = errors.New("redis down")
	assert.Error(t, h(context.Background(), nil, raw))
}
