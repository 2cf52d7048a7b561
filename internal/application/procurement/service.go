package procurement

import (
	"context"
	"time"

	"github.com/erp/supplier-service/internal/domain/audit"
	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// base carries what every procurement service shares
type base struct {
	txScope   TransactionScope
	publisher shared.EventPublisher
	now       func() time.Time
}

func newBase(txScope TransactionScope) base {
	return base{txScope: txScope, now: time.Now}
}

// SetEventPublisher sets the publisher that receives domain events after commit
func (b *base) SetEventPublisher(publisher shared.EventPublisher) {
	b.publisher = publisher
}

// SetClock replaces the time source
func (b *base) SetClock(now func() time.Time) {
	b.now = now
}

// publish hands committed events to the publisher. The change is already
// durable, so a publisher error is logged only.
func (b *base) publish(ctx context.Context, events []shared.DomainEvent) {
	if b.publisher == nil || len(events) == 0 {
		return
	}
	if err := b.publisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// record appends one audit entry inside the transaction of repos
func record(ctx context.Context, repos TransactionalRepositories, supplierID uuid.UUID, action string, details audit.Details) error {
	entry, err := audit.NewEntry(ctx, supplierID, action, details)
	if err != nil {
		return err
	}
	return repos.Audit().Append(ctx, entry)
}
