package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/samber/lo"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/push"
	"github.com/youngchun/callforward/internal/types"
)

const (
	pushTestReasonDisabled       = "push_disabled"
	pushTestReasonNoSubscription = "no_subscription"
)

// PushService manages browser web-push subscriptions and deliveries
type PushService interface {
	// Subscribe stores the subscription. Registering a known endpoint again is a no-op.
	Subscribe(ctx context.Context, req dto.CreatePushSubscriptionRequest) (*dto.CreatePushSubscriptionResponse, error)

	// NotifyUser sends payload to every subscription of the user and drops the ones the push service no longer knows
	NotifyUser(ctx context.Context, userID string, payload push.Payload) (*dto.NotifyResult, error)

	// SendTest pushes a test notification to the newest subscription of the user, or of anyone
	SendTest(ctx context.Context, req dto.SendTestPushRequest) (*dto.SendTestPushResponse, error)
}

type pushService struct {
	ServiceParams
}

func NewPushService(params ServiceParams) PushService {
	return &pushService{
		ServiceParams: params,
	}
}

func (s *pushService) Subscribe(ctx context.Context, req dto.CreatePushSubscriptionRequest) (*dto.CreatePushSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub := &pushsubscription.Subscription{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PUSH_SUBSCRIPTION),
		UserID:    lo.EmptyableToPtr(strings.TrimSpace(req.UserID)),
		Endpoint:  strings.TrimSpace(req.Endpoint),
		P256dh:    req.Keys.P256dh,
		Auth:      req.Keys.Auth,
		UserAgent: lo.EmptyableToPtr(req.UserAgent),
		CreatedAt: s.now(),
	}

	created, err := s.PushSubscriptionRepo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("registered push subscription",
		"subscription_id", sub.ID,
		"user_id", req.UserID,
		"created", created,
	)
	return &dto.CreatePushSubscriptionResponse{
		Success: true,
		Created: created,
	}, nil
}

func (s *pushService) NotifyUser(ctx context.Context, userID string, payload push.Payload) (*dto.NotifyResult, error) {
	result := &dto.NotifyResult{}
	if !s.PushSender.Enabled() {
		s.Logger.Warnw("skipping push notification, vapid keys are not configured",
			"user_id", userID,
		)
		return result, nil
	}

	subs, err := s.PushSubscriptionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode push payload").
			Mark(ierr.ErrSystem)
	}

	for _, sub := range subs {
		result.Attempted++
		if err := s.deliver(ctx, sub, body); err != nil {
			if push.IsGone(err) {
				result.Removed++
			} else {
				result.Failed++
			}
			continue
		}
		result.Delivered++
	}
	return result, nil
}

// deliver sends one push and removes the subscription when the push service reports it gone
func (s *pushService) deliver(ctx context.Context, sub *pushsubscription.Subscription, body []byte) error {
	err := s.PushSender.Send(ctx, sub, body)
	if err == nil {
		s.Metrics.RecordNotification(metrics.ChannelPush, metrics.StatusSent)
		return nil
	}

	if push.IsGone(err) {
		s.Metrics.RecordNotification(metrics.ChannelPush, metrics.StatusGone)
		if delErr := s.PushSubscriptionRepo.DeleteByEndpoint(ctx, sub.Endpoint); delErr != nil {
			s.Logger.Warnw("failed to delete expired push subscription",
				"error", delErr,
				"subscription_id", sub.ID,
			)
		} else {
			s.Logger.Infow("deleted expired push subscription",
				"subscription_id", sub.ID,
			)
		}
		return err
	}

	s.Metrics.RecordNotification(metrics.ChannelPush, metrics.StatusFailed)
	s.Logger.Warnw("push notification failed",
		"error", err,
		"subscription_id", sub.ID,
	)
	return err
}

func (s *pushService) SendTest(ctx context.Context, req dto.SendTestPushRequest) (*dto.SendTestPushResponse, error) {
	if s.Config.IsProduction() {
		return nil, ierr.NewError("test push is disabled in production").
			WithHint("Test notifications are not available").
			Mark(ierr.ErrPermissionDenied)
	}
	if !s.PushSender.Enabled() {
		return &dto.SendTestPushResponse{Reason: pushTestReasonDisabled}, nil
	}

	var (
		sub *pushsubscription.Subscription
		err error
	)
	if userID := strings.TrimSpace(req.UserID); userID != "" {
		var subs []*pushsubscription.Subscription
		subs, err = s.PushSubscriptionRepo.ListByUserID(ctx, userID)
		if err == nil && len(subs) > 0 {
			sub = subs[0]
		}
	} else {
		sub, err = s.PushSubscriptionRepo.Latest(ctx)
	}
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if sub == nil {
		return &dto.SendTestPushResponse{Reason: pushTestReasonNoSubscription}, nil
	}

	body, err := json.Marshal(push.Payload{
		Title: "Test notification",
		Body:  "Push notifications are working",
		URL:   "/",
	})
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, sub, body); err != nil {
		return &dto.SendTestPushResponse{
			Attempted: true,
			Reason:    err.Error(),
		}, nil
	}
	return &dto.SendTestPushResponse{
		Attempted: true,
		Success:   true,
	}, nil
}
