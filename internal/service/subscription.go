package service

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/subscription"
)

// SubscriptionService maintains the subscription ledger
type SubscriptionService interface {
	// ApplyEvent upserts the ledger row the event describes and returns the merged state
	ApplyEvent(ctx context.Context, event *subscription.LifecycleEvent) (*subscription.Subscription, error)

	// ListEntitled returns the subscriptions whose user should hold a number right now
	ListEntitled(ctx context.Context) ([]*subscription.Subscription, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) ApplyEvent(ctx context.Context, event *subscription.LifecycleEvent) (*subscription.Subscription, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubscriptionRepo.Upsert(ctx, event.ToSubscription(s.now()))
	if err != nil {
		s.Logger.Errorw("failed to upsert subscription",
			"error", err,
			"event_id", event.EventID,
			"subscription_id", event.SubscriptionID,
		)
		return nil, err
	}

	s.Logger.Infow("applied subscription event",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscription_id", sub.ID,
		"status", sub.Status,
		"user_id", sub.GetUserID(),
		"current_period_end", sub.CurrentPeriodEnd,
	)
	return sub, nil
}

func (s *subscriptionService) ListEntitled(ctx context.Context) ([]*subscription.Subscription, error) {
	return s.SubscriptionRepo.ListEntitled(ctx, s.now())
}
