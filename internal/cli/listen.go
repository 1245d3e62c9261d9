package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/internal/searcher/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/resilience"
)

func newInvalidateCommand(opts *RootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Ask every listener to drop cached search results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.cfg.Kafka.Enabled {
				return apperrors.New(apperrors.ErrInvalidArgument, "kafka is disabled")
			}
			producer := kafka.NewProducer(opts.cfg.Kafka, opts.cfg.Kafka.Topics.CacheInvalidate)
			defer producer.Close()
			notice := analytics.InvalidationNotice{Reason: reason, Timestamp: time.Now().UTC()}
			if err := producer.Publish(cmd.Context(), kafka.Message{Key: "invalidate", Value: notice}); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "invalidation published")
			return err
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual", "reason recorded with the notice")
	return cmd
}

func newListenCommand(opts *RootOptions) *cobra.Command {
	var statsEvery time.Duration
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Consume invalidation notices and search events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if !cfg.Kafka.Enabled {
				return apperrors.New(apperrors.ErrInvalidArgument, "kafka is disabled")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := slog.Default().With("component", "listener")

			m := metrics.New(nil)
			checker := health.NewChecker()
			checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
				return health.FromError(kafka.Ping(ctx, cfg.Kafka))
			})

			cacheOpts := []cache.Option{cache.WithMetrics(m)}
			if cfg.Redis.Enabled {
				client, err := pkgredis.NewClient(ctx, cfg.Redis)
				if err != nil {
					return err
				}
				defer client.Close()
				cacheOpts = append(cacheOpts, cache.WithRemote(cache.RedisRemote(client), cfg.Redis.CacheTTL))
				checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
					return health.FromError(client.Ping(ctx))
				})
			}
			queryCache, err := cache.New(cfg.Cache.LRUSize, cacheOpts...)
			if err != nil {
				return err
			}
			checker.Register("cache", cacheHealth(queryCache))

			if cfg.Metrics.Enabled {
				shutdown := metrics.StartServer(cfg.Metrics.Port, m, map[string]http.Handler{
					"/readyz": checker.ReadyHandler(5 * time.Second),
				})
				defer shutdown(context.Background())
			}

			agg := analytics.NewAggregator()
			invalidations := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate, analytics.InvalidationHandler(queryCache))
			events := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, agg.Handler())

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return invalidations.Run(gctx) })
			g.Go(func() error { return events.Run(gctx) })
			g.Go(func() error {
				ticker := time.NewTicker(statsEvery)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						logStats(logger, agg.Stats())
					case <-gctx.Done():
						return nil
					}
				}
			})
			logger.Info("listening",
				"invalidate_topic", cfg.Kafka.Topics.CacheInvalidate,
				"events_topic", cfg.Kafka.Topics.SearchEvents,
			)
			err = g.Wait()
			logStats(logger, agg.Stats())
			if opts.Format == "json" {
				if werr := writeJSON(cmd.OutOrStdout(), agg.Stats()); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&statsEvery, "stats-every", time.Minute, "interval between logged analytics snapshots")
	return cmd
}

// cacheHealth reports the cache degraded while its remote tier is skipped.
func cacheHealth(c *cache.QueryCache) health.Check {
	return func(context.Context) health.ComponentHealth {
		state, ok := c.RemoteState()
		switch {
		case !ok:
			return health.ComponentHealth{Status: health.StatusUp, Message: "local tier only"}
		case state == resilience.StateClosed:
			return health.ComponentHealth{Status: health.StatusUp}
		default:
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "remote tier breaker " + state.String()}
		}
	}
}

func logStats(logger *slog.Logger, s analytics.Stats) {
	logger.Info("search analytics",
		"total_searches", s.TotalSearches,
		"zero_results", s.ZeroResultCount,
		"errors", s.Errors,
		"cache_hits", s.CacheHits,
		"p95_latency_ms", s.P95LatencyMs,
		"queries_per_minute", s.QueriesPerMinute,
	)
}
