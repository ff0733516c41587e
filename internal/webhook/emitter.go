package webhook

import (
	"context"
	"log/slog"
	"time"

	"github.com/lousa-digital/chamada/internal/domain"
)

// Emitter fans engine events out to the subscribed webhooks. It
// satisfies the engine's Notifier interface; every delivery is best
// effort and never blocks or fails the triggering operation.
type Emitter struct {
	service *Service
	logger  *slog.Logger
}

func NewEmitter(service *Service, logger *slog.Logger) *Emitter {
	return &Emitter{service: service, logger: logger}
}

func (e *Emitter) ModelTrained(ctx context.Context, info *domain.ModelInfo) {
	e.emit(ctx, EventModelTrained, info)
}

func (e *Emitter) BulkCompleted(ctx context.Context, result *domain.BulkEnrollmentResult) {
	e.emit(ctx, EventBulkCompleted, result)
}

func (e *Emitter) emit(ctx context.Context, eventType string, data interface{}) {
	hooks, err := e.service.GetWebhooksByEvent(ctx, eventType)
	if err != nil {
		e.logger.Error("failed to list webhooks for event", "event", eventType, "error", err)
		return
	}

	event := EventPayload{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	for _, hook := range hooks {
		if err := e.service.Send(ctx, hook, event); err != nil {
			e.logger.Error("webhook delivery failed",
				"webhook_id", hook.ID,
				"event", eventType,
				"error", err,
			)
		}
	}
}
