package service

import (
	"context"

	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/processedevent"
	stripeintegration "github.com/youngchun/callforward/internal/integration/stripe"
	"github.com/youngchun/callforward/internal/types"
)

const (
	webhookResultProcessed = "processed"
	webhookResultDuplicate = "duplicate"
	webhookResultIgnored   = "ignored"
	webhookResultFailed    = "failed"
)

// StripeWebhookService turns verified Stripe events into ledger updates and number assignments
type StripeWebhookService interface {
	// Handle verifies the payload signature and processes the event once.
	// Only a signature failure is returned as an error, processing failures
	// are reported through the result warning.
	Handle(ctx context.Context, payload []byte, signature string) (*dto.StripeWebhookResult, error)
}

type stripeWebhookService struct {
	ServiceParams
	subscriptionService SubscriptionService
	assignmentService   AssignmentService
}

func NewStripeWebhookService(
	params ServiceParams,
	subscriptionService SubscriptionService,
	assignmentService AssignmentService,
) StripeWebhookService {
	return &stripeWebhookService{
		ServiceParams:       params,
		subscriptionService: subscriptionService,
		assignmentService:   assignmentService,
	}
}

func (s *stripeWebhookService) Handle(ctx context.Context, payload []byte, signature string) (*dto.StripeWebhookResult, error) {
	event, err := s.Stripe.ParseWebhookEvent(payload, signature)
	if err != nil {
		s.Logger.Warnw("rejected stripe webhook",
			"error", err,
		)
		return nil, err
	}

	eventType := string(event.Type)
	result := &dto.StripeWebhookResult{
		EventID:   event.ID,
		EventType: eventType,
	}

	fail := func(err error, msg string) (*dto.StripeWebhookResult, error) {
		s.Metrics.RecordWebhookEvent(eventType, webhookResultFailed)
		s.Logger.Errorw(msg,
			"error", err,
			"event_id", event.ID,
			"event_type", eventType,
		)
		result.Warning = err.Error()
		return result, nil
	}

	processed, err := s.ProcessedEventRepo.Exists(ctx, types.EventSourceStripe, event.ID)
	if err != nil {
		return fail(err, "failed to check processed stripe event")
	}
	if processed {
		s.Metrics.RecordWebhookEvent(eventType, webhookResultDuplicate)
		s.Logger.Infow("skipping already processed stripe event",
			"event_id", event.ID,
			"event_type", eventType,
		)
		result.Duplicate = true
		return result, nil
	}

	lifecycle, err := stripeintegration.DecodeLifecycleEvent(event)
	if err != nil {
		return fail(err, "failed to decode stripe event")
	}

	if lifecycle == nil {
		result.Ignored = true
		s.Metrics.RecordWebhookEvent(eventType, webhookResultIgnored)
	} else {
		sub, err := s.subscriptionService.ApplyEvent(ctx, lifecycle)
		if err != nil {
			return fail(err, "failed to apply stripe event to ledger")
		}
		result.Subscription = sub

		if sub.IsEntitled(s.now()) {
			assignment, err := s.assignmentService.Assign(ctx, sub.GetUserID(), s.now(), *sub.CurrentPeriodEnd)
			if err != nil {
				return fail(err, "failed to assign number for stripe event")
			}
			result.Assignment = assignment
		}
		s.Metrics.RecordWebhookEvent(eventType, webhookResultProcessed)
	}

	if _, err := s.ProcessedEventRepo.Record(ctx, &processedevent.ProcessedEvent{
		Source:    types.EventSourceStripe,
		EventID:   event.ID,
		EventType: eventType,
		CreatedAt: s.now(),
	}); err != nil {
		s.Logger.Warnw("failed to record processed stripe event",
			"error", err,
			"event_id", event.ID,
		)
	}

	s.Logger.Infow("handled stripe event",
		"event_id", event.ID,
		"event_type", eventType,
		"ignored", result.Ignored,
	)
	return result, nil
}
