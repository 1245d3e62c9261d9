package analytics

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/kafka"
)

const (
	latencyWindow = 10000
	topQueries    = 10
)

// Stats is a snapshot of the search events seen by an Aggregator.
// Latency figures cover successful searches only.
type Stats struct {
	TotalSearches     int64        `json:"total_searches"`
	Errors            int64        `json:"errors"`
	CacheHits         int64        `json:"cache_hits"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// ring keeps the most recent latencyWindow samples.
type ring struct {
	samples []int64
	pos     int
}

func (r *ring) add(v int64) {
	if len(r.samples) < latencyWindow {
		r.samples = append(r.samples, v)
		return
	}
	r.samples[r.pos] = v
	r.pos = (r.pos + 1) % latencyWindow
}

func (r *ring) sorted() []int64 {
	out := slices.Clone(r.samples)
	slices.Sort(out)
	return out
}

type frequencies map[string]int64

// top returns the n most frequent queries. Equal counts order by query.
func (f frequencies) top(n int) []QueryCount {
	out := make([]QueryCount, 0, len(f))
	for q, c := range f {
		out = append(out, QueryCount{Query: q, Count: c})
	}
	slices.SortFunc(out, func(a, b QueryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Query, b.Query)
	})
	return out[:min(n, len(out))]
}

// Aggregator folds search events into running statistics. It is safe for
// concurrent use.
type Aggregator struct {
	now    func() time.Time
	since  time.Time
	logger *slog.Logger

	mu        sync.Mutex
	total     int64
	failed    int64
	cached    int64
	empty     int64
	latencies ring
	queries   frequencies
	zero      frequencies
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		now:     time.Now,
		since:   time.Now(),
		logger:  slog.Default().With("component", "analytics-aggregator"),
		queries: frequencies{},
		zero:    frequencies{},
	}
}

func (a *Aggregator) Record(ev SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.queries[ev.Query]++
	if ev.CacheHit {
		a.cached++
	}
	if ev.Type == EventError {
		a.failed++
		return
	}
	if ev.Type == EventZeroResult {
		a.empty++
		a.zero[ev.Query]++
	}
	a.latencies.add(ev.LatencyMs)
}

// Handler records every decodable search event. Malformed records are
// logged and acknowledged so they are not redelivered.
func (a *Aggregator) Handler() kafka.MessageHandler {
	return func(_ context.Context, key, value []byte) error {
		ev, err := kafka.DecodeJSON[SearchEvent](value)
		if err != nil {
			a.logger.Warn("skipping malformed search event", "key", string(key), "error", err)
			return nil
		}
		a.Record(ev)
		return nil
	}
}

func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		TotalSearches:     a.total,
		Errors:            a.failed,
		CacheHits:         a.cached,
		ZeroResultCount:   a.empty,
		TopQueries:        a.queries.top(topQueries),
		ZeroResultQueries: a.zero.top(topQueries),
	}
	if sorted := a.latencies.sorted(); len(sorted) > 0 {
		var sum int64
		for _, v := range sorted {
			sum += v
		}
		s.AvgLatencyMs = float64(sum) / float64(len(sorted))
		s.P50LatencyMs = nearestRank(sorted, 50)
		s.P95LatencyMs = nearestRank(sorted, 95)
		s.P99LatencyMs = nearestRank(sorted, 99)
	}
	if minutes := a.now().Sub(a.since).Minutes(); minutes > 0 {
		s.QueriesPerMinute = float64(a.total) / minutes
	}
	return s
}

// nearestRank returns the pct-th percentile of a sorted, non-empty sample.
func nearestRank(sorted []int64, pct int) int64 {
	rank := (pct*len(sorted) + 99) / 100
	return sorted[max(rank, 1)-1]
}
