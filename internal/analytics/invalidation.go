package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/search-query-core/pkg/kafka"
)

// Invalidator drops cached search results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// InvalidationHandler clears inv for every notice consumed, malformed ones
// included.
func InvalidationHandler(inv Invalidator) kafka.MessageHandler {
	logger := slog.Default().With("component", "cache-invalidation")
	return func(ctx context.Context, key []byte, value []byte) error {
		notice, err := kafka.DecodeJSON[InvalidationNotice](value)
		if err != nil {
			logger.Warn("malformed invalidation notice", "key", string(key), "error", err)
		}
		if err := inv.Invalidate(ctx); err != nil {
			return fmt.Errorf("invalidating cache: %w", err)
		}
		logger.Info("cache invalidated", "reason", notice.Reason)
		return nil
	}
}
