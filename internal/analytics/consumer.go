package analytics

import (
	"context"

	"go.uber.org/zap"
)

// NewClickHandler returns a stream handler that persists click events.
// Returned errors nack the message so it is redelivered.
func NewClickHandler(store ClickStore, logger *zap.Logger) func(ctx context.Context, event *ClickEvent) error {
	return func(ctx context.Context, event *ClickEvent) error {
		if err := store.RecordClick(ctx, event); err != nil {
			return err
		}

		logger.Debug("click persisted",
			zap.String("code", event.Code),
			zap.String("country", event.Country),
			zap.String("device", event.DeviceType),
		)

		return nil
	}
}
