package inventory

import (
	"context"
	"time"

	"github.com/erp/supplier-service/internal/application/procurement"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// IdempotentNotifier skips adjustments whose key already succeeded and
// remembers keys after a successful call. Requests without a key pass
// straight through.
type IdempotentNotifier struct {
	next    procurement.InventoryNotifier
	store   shared.IdempotencyStore
	ttl     time.Duration
	metrics MetricsRecorder
}

// NewIdempotentNotifier wraps next with the given ledger
func NewIdempotentNotifier(next procurement.InventoryNotifier, store shared.IdempotencyStore, ttl time.Duration, metrics MetricsRecorder) *IdempotentNotifier {
	return &IdempotentNotifier{next: next, store: store, ttl: ttl, metrics: metrics}
}

// Adjust implements procurement.InventoryNotifier
func (n *IdempotentNotifier) Adjust(ctx context.Context, req procurement.AdjustmentRequest) error {
	if req.IdempotencyKey == "" {
		return n.next.Adjust(ctx, req)
	}

	done, err := n.store.IsProcessed(ctx, req.IdempotencyKey)
	if err != nil {
		// fall through; the remote side also deduplicates on Idempotency-Key
		logger.L(ctx).Warn("Idempotency lookup failed", zap.String("key", req.IdempotencyKey), zap.Error(err))
	} else if done {
		if n.metrics != nil {
			n.metrics.RecordInventoryAdjustment(ctx, OutcomeDuplicate, 0, 0)
		}
		logger.L(ctx).Debug("Inventory adjustment already applied", zap.String("key", req.IdempotencyKey))
		return nil
	}

	if err := n.next.Adjust(ctx, req); err != nil {
		return err
	}

	if _, err := n.store.MarkProcessed(ctx, req.IdempotencyKey, n.ttl); err != nil {
		logger.L(ctx).Warn("Failed to record inventory adjustment", zap.String("key", req.IdempotencyKey), zap.Error(err))
	}
	return nil
}

var _ procurement.InventoryNotifier = (*IdempotentNotifier)(nil)
