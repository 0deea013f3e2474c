package notification

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/youngchun/callforward/internal/config"
	"github.com/youngchun/callforward/internal/logger"
	"github.com/youngchun/callforward/internal/pubsub"
	"github.com/youngchun/callforward/internal/types"
)

// Publisher hands call tasks to the notification router
type Publisher interface {
	PublishCallTask(ctx context.Context, task *CallTask) error
}

type publisher struct {
	pubSub pubsub.PubSub
	config *config.NotificationConfig
	logger *logger.Logger
}

func NewPublisher(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) Publisher {
	return &publisher{
		pubSub: pubSub,
		config: &cfg.Notification,
		logger: logger,
	}
}

func (p *publisher) PublishCallTask(ctx context.Context, task *CallTask) error {
	if task.ID == "" {
		task.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TASK)
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	msg := message.NewMessage(task.ID, payload)
	msg.Metadata.Set("call_sid", task.CallSid)
	if requestID := types.GetRequestID(ctx); requestID != "" {
		middleware.SetCorrelationID(requestID, msg)
	}

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish call task",
			"error", err,
			"task_id", task.ID,
			"call_sid", task.CallSid,
		)
		return err
	}

	p.logger.Infow("published call task",
		"task_id", task.ID,
		"call_sid", task.CallSid,
		"topic", p.config.Topic,
	)
	return nil
}
