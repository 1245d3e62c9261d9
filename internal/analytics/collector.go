package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/metrics"
)

// Publisher delivers batches of messages. *kafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, messages ...kafka.Message) error
}

type CollectorOptions struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers search events and publishes them in batches from a
// background goroutine. Track never blocks the search path.
type Collector struct {
	publisher     Publisher
	events        chan SearchEvent
	batchSize     int
	flushInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
}

func NewCollector(publisher Publisher, opts CollectorOptions, m *metrics.Metrics) *Collector {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 10000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	return &Collector{
		publisher:     publisher,
		events:        make(chan SearchEvent, opts.BufferSize),
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		metrics:       m,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the publish loop. It runs until ctx is cancelled or Close
// is called, flushing what is buffered before returning.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.events),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	pending := make([]kafka.Message, 0, c.batchSize)
	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				c.finalFlush(pending)
				return
			}
			pending = append(pending, kafka.Message{Key: event.RequestID, Value: event})
			if len(pending) >= c.batchSize {
				pending = c.flush(ctx, pending)
			}
		case <-ticker.C:
			pending = c.flush(ctx, pending)
		case <-ctx.Done():
		drain:
			for {
				select {
				case event, ok := <-c.events:
					if !ok {
						break drain
					}
					pending = append(pending, kafka.Message{Key: event.RequestID, Value: event})
				default:
					break drain
				}
			}
			c.finalFlush(pending)
			return
		}
	}
}

func (c *Collector) finalFlush(pending []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if rest := c.flush(ctx, pending); len(rest) > 0 {
		c.logger.Warn("analytics events lost on shutdown", "count", len(rest))
		c.count("dropped", len(rest))
	}
}

// flush publishes pending and returns what must be retried. Failed batches
// are kept up to three batch sizes; older events beyond that are dropped.
func (c *Collector) flush(ctx context.Context, pending []kafka.Message) []kafka.Message {
	if len(pending) == 0 {
		return pending
	}
	if err := c.publisher.Publish(ctx, pending...); err != nil {
		c.logger.Error("analytics flush failed", "batch_size", len(pending), "error", err)
		c.count("failed", len(pending))
		if limit := c.batchSize * 3; len(pending) > limit {
			dropped := len(pending) - limit
			c.count("dropped", dropped)
			c.logger.Warn("analytics retry buffer full, events dropped", "dropped", dropped)
			pending = pending[dropped:]
		}
		return pending
	}
	c.count("published", len(pending))
	c.logger.Debug("analytics batch published", "events", len(pending))
	return pending[:0]
}

func (c *Collector) count(status string, n int) {
	for i := 0; i < n; i++ {
		c.metrics.Event(status)
	}
}

// Track queues event. It reports false when the event was dropped because
// the buffer is full or the collector is closed.
func (c *Collector) Track(event SearchEvent) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- event:
		return true
	default:
		c.metrics.Event("dropped")
		c.logger.Warn("analytics event dropped (buffer full)", "request_id", event.RequestID)
		return false
	}
}

// Close stops accepting events and waits for the publish loop to finish.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	started := c.started
	c.mu.Unlock()
	if started {
		<-c.done
	}
}
