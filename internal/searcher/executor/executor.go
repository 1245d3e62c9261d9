// Package executor runs compiled queries against a searcher. Segments are
// searched concurrently, each producing a local top-k, and the results are
// merged into a global ranking.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/query"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/merger"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/tracing"
)

// cancelCheckInterval is how many docs a segment scan visits between
// context checks.
const cancelCheckInterval = 1024

// SearchResult is the outcome of one search.
type SearchResult struct {
	RequestID string       `json:"request_id"`
	Query     string       `json:"query"`
	TotalHits uint64       `json:"total_hits"`
	Hits      []merger.Hit `json:"hits"`
}

// Executor searches every segment of one searcher. It is safe for
// concurrent use.
type Executor struct {
	searcher *index.Searcher
	cfg      config.SearchConfig
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New returns an executor over searcher. m may be nil.
func New(searcher *index.Searcher, cfg config.SearchConfig, m *metrics.Metrics) *Executor {
	if cfg.SegmentParallelism <= 0 {
		cfg.SegmentParallelism = 1
	}
	return &Executor{
		searcher: searcher,
		cfg:      cfg,
		metrics:  m,
		logger:   slog.Default().With("component", "query-executor"),
	}
}

// Searcher returns the snapshot the executor searches.
func (e *Executor) Searcher() *index.Searcher {
	return e.searcher
}

// Limit clamps a requested result count to the configured bounds.
func (e *Executor) Limit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxResults > 0 && limit > e.cfg.MaxResults {
		limit = e.cfg.MaxResults
	}
	if limit <= 0 {
		limit = 10
	}
	return limit
}

// begin tags ctx with a request id and opens the root span.
func (e *Executor) begin(ctx context.Context, operation string) (context.Context, *tracing.Span, string) {
	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logger.WithRequestID(ctx, requestID)
	}
	ctx, span := tracing.StartSpan(ctx, operation, requestID)
	return ctx, span, requestID
}

func (e *Executor) finish(ctx context.Context, span *tracing.Span, operation, outcome string, err error) {
	span.End(err)
	e.metrics.ObserveQuery(operation, outcome, span.Duration)
	span.Log(logger.FromContext(ctx))
}

// Search returns the best limit live documents for q.
func (e *Executor) Search(ctx context.Context, q query.Query, limit int) (result *SearchResult, err error) {
	ctx, span, requestID := e.begin(ctx, "search")
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = "error"
		}
		e.finish(ctx, span, "search", outcome, err)
	}()

	limit = e.Limit(limit)
	w, err := q.Weight(e.searcher, e.cfg.ScoringEnabled)
	if err != nil {
		return nil, err
	}

	segments := e.searcher.Segments()
	perSegment := make([][]merger.Hit, len(segments))
	totals := make([]uint64, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.SegmentParallelism)
	for ord, reader := range segments {
		g.Go(func() error {
			hits, total, err := e.searchSegment(gctx, w, uint32(ord), reader, limit)
			if err != nil {
				return err
			}
			perSegment[ord] = hits
			totals[ord] = total
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result = &SearchResult{
		RequestID: requestID,
		Query:     fmt.Sprint(q),
		Hits:      merger.Merge(perSegment, limit),
	}
	for _, t := range totals {
		result.TotalHits += t
	}
	if result.TotalHits == 0 {
		outcome = "zero_result"
	}
	span.SetAttr("total_hits", result.TotalHits)
	logger.FromContext(ctx).Info("search executed",
		"query", result.Query,
		"segments", len(segments),
		"total_hits", result.TotalHits,
		"returned", len(result.Hits),
	)
	return result, nil
}

func (e *Executor) searchSegment(ctx context.Context, w query.Weight, ord uint32, reader *index.SegmentReader, limit int) (hits []merger.Hit, total uint64, err error) {
	ctx, span := tracing.StartChildSpan(ctx, "segment")
	span.SetAttr("segment", string(reader.ID()))
	defer func() { span.End(err) }()

	fail := func(err error) error {
		logger.FromContext(ctx).Error("segment search failed", "segment", reader.ID(), "error", err)
		return fmt.Errorf("segment %s: %w", reader.ID(), err)
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, fail(err)
	}
	scorer, err := w.Scorer(reader)
	if err != nil {
		return nil, 0, fail(err)
	}
	top := merger.NewTopK(limit)
	visited := 0
	for scorer.Advance() {
		visited++
		if visited%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, fail(err)
			}
		}
		doc := scorer.Doc()
		if reader.IsDeleted(doc) {
			continue
		}
		total++
		top.Push(merger.Hit{
			Address: merger.DocAddress{Segment: ord, Doc: doc},
			Score:   scorer.Score(),
		})
	}
	e.metrics.ObserveSegment(int(total))
	span.SetAttr("hits", total)
	return top.Sorted(), total, nil
}

// Count returns the number of live documents matching q. Scoring is
// disabled.
func (e *Executor) Count(ctx context.Context, q query.Query) (count uint64, err error) {
	ctx, span, _ := e.begin(ctx, "count")
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.finish(ctx, span, "count", outcome, err)
	}()

	w, err := q.Weight(e.searcher, false)
	if err != nil {
		return 0, err
	}
	segments := e.searcher.Segments()
	counts := make([]uint32, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.SegmentParallelism)
	for ord, reader := range segments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := w.Count(reader)
			if err != nil {
				logger.FromContext(gctx).Error("segment count failed", "segment", reader.ID(), "error", err)
				return fmt.Errorf("segment %s: %w", reader.ID(), err)
			}
			counts[ord] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	for _, n := range counts {
		count += uint64(n)
	}
	span.SetAttr("count", count)
	return count, nil
}

// Explain describes how q scores the document at addr. A document q does
// not match fails with ErrDocNotMatched.
func (e *Executor) Explain(ctx context.Context, q query.Query, addr merger.DocAddress) (ex *query.Explanation, err error) {
	ctx, span, _ := e.begin(ctx, "explain")
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.finish(ctx, span, "explain", outcome, err)
	}()

	reader, err := e.searcher.Segment(int(addr.Segment))
	if err != nil {
		return nil, err
	}
	if addr.Doc >= reader.MaxDoc() {
		return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "doc %d out of range for segment %s", addr.Doc, reader.ID())
	}
	w, err := q.Weight(e.searcher, e.cfg.ScoringEnabled)
	if err != nil {
		return nil, err
	}
	return w.Explain(reader, addr.Doc)
}

// Document returns the stored fields of the document at addr.
func (e *Executor) Document(addr merger.DocAddress) (index.Document, error) {
	reader, err := e.searcher.Segment(int(addr.Segment))
	if err != nil {
		return nil, err
	}
	return reader.Doc(addr.Doc)
}
