package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chargemap/backend/services/stations-service/internal/events"
	"chargemap/backend/services/stations-service/internal/metrics"
)

// notifier delivers events without ever failing the calling operation.
type notifier struct {
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func (n notifier) publish(ctx context.Context, event events.Event) {
	if n.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.Int64("station_id", event.StationID),
			zap.Error(err),
		)
		if n.metrics != nil {
			n.metrics.EventFailures.WithLabelValues(event.Type).Inc()
		}
	}
}
