package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/pubsub"
	pubsubRouter "github.com/youngchun/callforward/internal/pubsub/router"
	"github.com/youngchun/callforward/internal/sentry"
	"github.com/youngchun/callforward/internal/types"
)

// Processor performs the deliveries of a call task
type Processor interface {
	ProcessCallTask(ctx context.Context, task *CallTask) error
}

// Handler consumes call tasks from the notification topic
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub    pubsub.PubSub
	config    *config.NotificationConfig
	processor Processor
	logger    *logger.Logger
	sentry    *sentry.Service
}

func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	processor Processor,
	logger *logger.Logger,
	sentry *sentry.Service,
) Handler {
	return &handler{
		pubSub:    pubSub,
		config:    &cfg.Notification,
		processor: processor,
		logger:    logger,
		sentry:    sentry,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"call_notification_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()
	if correlationID := middleware.MessageCorrelationID(msg); correlationID != "" {
		ctx = types.SetRequestID(ctx, correlationID)
	}

	var task CallTask
	if err := json.Unmarshal(msg.Payload, &task); err != nil {
		h.logger.Errorw("failed to unmarshal call task",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}
	if err := task.Validate(); err != nil {
		h.logger.Errorw("dropping invalid call task",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	span, ctx := h.sentry.MonitorTaskProcessing(ctx, "call_notification", task.OccurredAt, map[string]interface{}{
		"task_id":  task.ID,
		"call_sid": task.CallSid,
	})
	if span != nil {
		defer span.Finish()
	}

	return h.processor.ProcessCallTask(ctx, &task)
}
