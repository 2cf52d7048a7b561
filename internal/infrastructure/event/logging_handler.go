package event

import (
	"context"
	"encoding/json"

	"github.com/erp/supplier-service/internal/domain/shared"
	"github.com/erp/supplier-service/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingHandler writes every event with its JSON payload at debug level
type LoggingHandler struct{}

// EventTypes returns nil: the handler receives every event
func (LoggingHandler) EventTypes() []string { return nil }

// Handle logs the event
func (LoggingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	logger.L(ctx).Debug("Domain event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("supplier_id", event.SupplierID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}
