package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/boost"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/index"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/query"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/querygrammar"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/compiler"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/resilience"
)

// engine wires the query pipeline for one corpus: parser, compiler,
// executor and the optional cache, analytics and boost tiers.
type engine struct {
	cfg       *config.Config
	schema    index.Schema
	parser    *querygrammar.Parser
	compiler  *compiler.Compiler
	executor  *executor.Executor
	cache     *cache.QueryCache
	namespace string
	collector *analytics.Collector
	metrics   *metrics.Metrics
	closers   []func() error
	logger    *slog.Logger
}

func schemaFor(cfg config.IndexConfig) index.Schema {
	schema := index.TextSchema(cfg.Fields...)
	for _, name := range cfg.RawFields {
		schema = append(schema, index.FieldOptions{Name: name, Raw: true})
	}
	return schema
}

func parserFor(schema index.Schema) *querygrammar.Parser {
	fields := make([]querygrammar.UserInputField, len(schema))
	for i, f := range schema {
		fields[i] = querygrammar.UserInputField{Name: f.Name, Rank: uint32(i)}
	}
	return querygrammar.NewParser(fields...)
}

func openEngine(ctx context.Context, cfg *config.Config, corpusPath string) (*engine, error) {
	if corpusPath == "" {
		return nil, apperrors.New(apperrors.ErrInvalidArgument, "--corpus is required")
	}
	schema := schemaFor(cfg.Index)
	for _, name := range cfg.Search.DefaultFields {
		if _, ok := schema.Field(name); !ok {
			return nil, apperrors.Newf(apperrors.ErrInvalidArgument, "default field %q is not in the index schema", name)
		}
	}
	segments, err := index.LoadCorpusFile(corpusPath, schema, cfg.Index.SegmentMaxDocs)
	if err != nil {
		return nil, err
	}

	e := &engine{
		cfg:     cfg,
		schema:  schema,
		parser:  parserFor(schema),
		metrics: metrics.New(nil),
		logger:  logger.WithComponent("engine"),
	}
	rules, err := e.loadBoostRules(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.compiler = compiler.New(schema,
		compiler.WithDefaultFields(cfg.Search.DefaultFields...),
		compiler.WithEmptyQueryMatchAll(cfg.Search.EmptyQueryMatchAll),
		compiler.WithBoostRules(rules),
		compiler.WithExplainOffsets(cfg.Search.ExplainOffsets),
	)
	e.executor = executor.New(index.NewSearcher(schema, segments...), cfg.Search, e.metrics)
	if e.namespace, err = fingerprint(corpusPath, cfg, schema, rules); err != nil {
		e.Close()
		return nil, err
	}

	if cfg.Cache.Enabled {
		if e.cache, err = e.openCache(ctx); err != nil {
			e.Close()
			return nil, err
		}
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		e.collector = analytics.NewCollector(producer, analytics.CollectorOptions{}, e.metrics)
		e.collector.Start(context.WithoutCancel(ctx))
		e.closers = append(e.closers, producer.Close, func() error {
			e.collector.Close()
			return nil
		})
	}
	e.logger.Info("engine ready",
		"segments", len(segments),
		"docs", e.executor.Searcher().NumDocs(),
		"boost_rules", len(rules),
		"cache", e.cache != nil,
		"analytics", e.collector != nil,
	)
	return e, nil
}

func (e *engine) loadBoostRules(ctx context.Context) (boost.Rules, error) {
	if !e.cfg.Postgres.Enabled {
		return nil, nil
	}
	var client *postgres.Client
	err := resilience.Retry(ctx, "postgres-connect", resilience.Backoff{Attempts: 3, Initial: 200 * time.Millisecond}, func(ctx context.Context) error {
		var err error
		client, err = postgres.New(ctx, e.cfg.Postgres)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, client.Close)
	store, err := boost.NewStore(client.DB, client.BoostTable())
	if err != nil {
		return nil, err
	}
	var rules boost.Rules
	err = resilience.Retry(ctx, "boost-rules-load", resilience.Backoff{Attempts: 3, Initial: 200 * time.Millisecond}, func(ctx context.Context) error {
		var err error
		rules, err = store.Load(ctx)
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	e.metrics.SetBoostRules(len(rules))
	return rules, nil
}

// openCache builds the LRU tier and, when Redis is enabled and reachable,
// the remote tier. An unreachable Redis only disables the remote tier.
func (e *engine) openCache(ctx context.Context) (*cache.QueryCache, error) {
	opts := []cache.Option{cache.WithMetrics(e.metrics)}
	if e.cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, e.cfg.Redis)
		if err != nil {
			e.logger.Warn("redis unavailable, remote cache tier disabled", "error", err)
		} else {
			e.closers = append(e.closers, client.Close)
			opts = append(opts, cache.WithRemote(cache.RedisRemote(client), e.cfg.Redis.CacheTTL))
		}
	}
	return cache.New(e.cfg.Cache.LRUSize, opts...)
}

// fingerprint identifies everything a cached result depends on besides the
// query itself: corpus content, schema, segmentation, boost rules and the
// compiler and scoring settings.
func fingerprint(corpusPath string, cfg *config.Config, schema index.Schema, rules boost.Rules) (string, error) {
	f, err := os.Open(corpusPath)
	if err != nil {
		return "", fmt.Errorf("opening corpus %s: %w", corpusPath, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing corpus %s: %w", corpusPath, err)
	}
	settings, err := json.Marshal(struct {
		Schema         index.Schema
		SegmentMaxDocs int
		Rules          boost.Rules
		DefaultFields  []string
		EmptyMatchAll  bool
		ExplainOffsets bool
		Scoring        bool
	}{
		Schema:         schema,
		SegmentMaxDocs: cfg.Index.SegmentMaxDocs,
		Rules:          rules,
		DefaultFields:  cfg.Search.DefaultFields,
		EmptyMatchAll:  cfg.Search.EmptyQueryMatchAll,
		ExplainOffsets: cfg.Search.ExplainOffsets,
		Scoring:        cfg.Search.ScoringEnabled,
	})
	if err != nil {
		return "", fmt.Errorf("encoding engine settings: %w", err)
	}
	h.Write(settings)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Close releases resources in reverse order of acquisition.
func (e *engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *engine) compile(text string) (querygrammar.UserInputAST, query.Query, error) {
	ast, err := e.parser.Parse(text)
	if err != nil {
		return nil, nil, apperrors.Newf(apperrors.ErrInvalidArgument, "parsing query: %v", err)
	}
	q, err := e.compiler.Compile(ast)
	if err != nil {
		return nil, nil, err
	}
	return ast, q, nil
}

// search runs text through the cache when present and tracks the outcome.
func (e *engine) search(ctx context.Context, text string, limit int) (res *executor.SearchResult, cached bool, err error) {
	requestID := uuid.NewString()
	ctx = logger.WithRequestID(ctx, requestID)
	start := time.Now()
	defer func() {
		if e.collector == nil {
			return
		}
		var total uint64
		var returned int
		if res != nil {
			total, returned = res.TotalHits, len(res.Hits)
		}
		event := analytics.NewSearchEvent(requestID, text, total, returned, time.Since(start), cached, err)
		event.Segments = len(e.executor.Searcher().Segments())
		e.collector.Track(event)
	}()

	ast, q, err := e.compile(text)
	if err != nil {
		return nil, false, err
	}
	limit = e.executor.Limit(limit)
	if e.cache == nil {
		res, err = e.executor.Search(ctx, q, limit)
		return res, false, err
	}
	return e.cache.GetOrCompute(ctx, cache.Key(e.namespace, ast, limit), func(ctx context.Context) (*executor.SearchResult, error) {
		return e.executor.Search(ctx, q, limit)
	})
}
