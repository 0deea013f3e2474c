package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/messageattempt"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/idempotency"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/notification"
	"github.com/youngchun/callforward/internal/push"
	"github.com/youngchun/callforward/internal/telephony"
	"github.com/youngchun/callforward/internal/types"
)

const smsStatusCallbackPath = "/v1/twilio/sms-status"

// NotificationService delivers the side effects of an inbound call
type NotificationService interface {
	notification.Processor

	// RecordDeliveryStatus stores a Twilio status callback on its message attempt
	RecordDeliveryStatus(ctx context.Context, callback dto.SMSStatusCallback) error
}

type notificationService struct {
	ServiceParams
	pushService PushService
	idempotency *idempotency.Generator
}

func NewNotificationService(params ServiceParams, pushService PushService) NotificationService {
	return &notificationService{
		ServiceParams: params,
		pushService:   pushService,
		idempotency:   idempotency.NewGenerator(),
	}
}

// ProcessCallTask sends the caller reply, the operator alert and the subscriber push
// in parallel. SMS failures are returned so the router retries the task; attempts
// already sent are not sent again.
func (s *notificationService) ProcessCallTask(ctx context.Context, task *notification.CallTask) error {
	ctx = types.SetTraceID(ctx, task.CallSid)

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		return s.sendCallerReply(ctx, task)
	})
	p.Go(func(ctx context.Context) error {
		return s.sendOperatorAlert(ctx, task)
	})
	p.Go(func(ctx context.Context) error {
		s.notifySubscriber(ctx, task)
		return nil
	})
	return p.Wait()
}

func (s *notificationService) sendCallerReply(ctx context.Context, task *notification.CallTask) error {
	if task.From == "" {
		s.Metrics.RecordNotification(metrics.ChannelCallerSMS, metrics.StatusSkipped)
		s.Logger.Warnw("skipping caller reply, caller number unknown",
			"call_sid", task.CallSid,
		)
		return nil
	}

	attemptID := s.idempotency.GenerateKey(idempotency.ScopeCallerReply, map[string]interface{}{
		"call_sid": task.CallSid,
	})
	body := fmt.Sprintf("Sorry we missed your call. Leave a message here: %s", s.leaveURL(task.LeaveToken))

	return s.sendTracked(ctx, attemptID, types.MessageAttemptKindCallerReply, metrics.ChannelCallerSMS, task, task.From, body)
}

func (s *notificationService) sendOperatorAlert(ctx context.Context, task *notification.CallTask) error {
	target := s.Config.Twilio.AlertTarget
	if target == "" {
		return nil
	}

	attemptID := s.idempotency.GenerateKey(idempotency.ScopeOperatorAlert, map[string]interface{}{
		"call_sid": task.CallSid,
	})
	body := fmt.Sprintf("Missed call from %s to %s", lo.Ternary(task.From != "", task.From, "unknown"), lo.Ternary(task.To != "", task.To, "unknown"))
	if task.UserID != "" {
		body += fmt.Sprintf(" (user %s)", task.UserID)
	}

	return s.sendTracked(ctx, attemptID, types.MessageAttemptKindOperatorAlert, metrics.ChannelOperatorAlert, task, target, body)
}

// sendTracked sends one SMS through a message attempt keyed by attemptID
func (s *notificationService) sendTracked(
	ctx context.Context,
	attemptID string,
	kind types.MessageAttemptKind,
	channel string,
	task *notification.CallTask,
	to, body string,
) error {
	if s.Config.Twilio.MessagingServiceSID == "" {
		s.Metrics.RecordNotification(channel, metrics.StatusSkipped)
		s.Logger.Warnw("skipping sms, messaging service sid not configured",
			"call_sid", task.CallSid,
			"kind", kind,
		)
		return nil
	}

	attempt, err := s.MessageAttemptRepo.Get(ctx, attemptID)
	switch {
	case err == nil:
		if attempt.Stage != types.MessageAttemptStageRequested && attempt.Stage != types.MessageAttemptStageFailed {
			s.Logger.Infow("sms already sent for call",
				"call_sid", task.CallSid,
				"attempt_id", attemptID,
				"kind", kind,
			)
			return nil
		}
	case ierr.IsNotFound(err):
		attempt = &messageattempt.Attempt{
			ID:        attemptID,
			CallSid:   &task.CallSid,
			Kind:      kind,
			ToNumber:  to,
			Stage:     types.MessageAttemptStageRequested,
			BaseModel: types.NewBaseModel(s.now()),
		}
		if err := s.MessageAttemptRepo.Create(ctx, attempt); err != nil {
			return err
		}
	default:
		return err
	}

	sent, err := s.Telephony.SendSMS(ctx, telephony.SMS{
		To:                to,
		Body:              body,
		StatusCallbackURL: s.statusCallbackURL(attemptID),
	})
	if err != nil {
		s.Metrics.RecordNotification(channel, metrics.StatusFailed)
		if markErr := s.MessageAttemptRepo.MarkFailed(ctx, attemptID, err.Error()); markErr != nil {
			s.Logger.Warnw("failed to mark message attempt failed",
				"error", markErr,
				"attempt_id", attemptID,
			)
		}
		s.Logger.Errorw("failed to send sms",
			"error", err,
			"call_sid", task.CallSid,
			"attempt_id", attemptID,
			"kind", kind,
		)
		return err
	}

	s.Metrics.RecordNotification(channel, metrics.StatusSent)
	if err := s.MessageAttemptRepo.MarkSent(ctx, attemptID, sent.Sid); err != nil {
		s.Logger.Warnw("failed to mark message attempt sent",
			"error", err,
			"attempt_id", attemptID,
		)
	}
	s.Logger.Infow("sent sms",
		"call_sid", task.CallSid,
		"attempt_id", attemptID,
		"message_sid", sent.Sid,
		"kind", kind,
	)
	return nil
}

func (s *notificationService) notifySubscriber(ctx context.Context, task *notification.CallTask) {
	if task.UserID == "" {
		return
	}

	result, err := s.pushService.NotifyUser(ctx, task.UserID, push.Payload{
		Title: "Missed call",
		Body:  fmt.Sprintf("Missed call from %s", lo.Ternary(task.From != "", task.From, "unknown caller")),
		URL:   "/",
	})
	if err != nil {
		s.Logger.Warnw("failed to push missed call",
			"error", err,
			"call_sid", task.CallSid,
			"user_id", task.UserID,
		)
		return
	}
	s.Logger.Debugw("pushed missed call",
		"call_sid", task.CallSid,
		"user_id", task.UserID,
		"delivered", result.Delivered,
		"removed", result.Removed,
	)
}

// leaveURL points at the caller's leave link, or the debug form when no link exists
func (s *notificationService) leaveURL(token string) string {
	base := strings.TrimRight(s.Config.Leave.PublicBaseURL, "/")
	if token == "" {
		return base + "/leave/debug"
	}
	return base + "/leave/" + url.PathEscape(token)
}

func (s *notificationService) statusCallbackURL(attemptID string) string {
	base := strings.TrimRight(s.Config.Twilio.PublicBaseURL, "/")
	if base == "" {
		return ""
	}
	return base + smsStatusCallbackPath + "?attempt_id=" + url.QueryEscape(attemptID)
}

func (s *notificationService) RecordDeliveryStatus(ctx context.Context, callback dto.SMSStatusCallback) error {
	status := callback.Status()
	s.Metrics.RecordNotification(metrics.ChannelSMSCallback, lo.Ternary(status != "", status, "unknown"))

	if callback.AttemptID == "" {
		s.Logger.Warnw("sms status callback without attempt id",
			"message_sid", callback.Sid(),
			"status", status,
		)
		return nil
	}

	if err := s.MessageAttemptRepo.RecordCallback(ctx, messageattempt.DeliveryStatus{
		AttemptID:  callback.AttemptID,
		MessageSid: callback.Sid(),
		Status:     status,
		ErrorCode:  callback.ErrorCode,
	}); err != nil {
		s.Logger.Warnw("failed to record sms status",
			"error", err,
			"attempt_id", callback.AttemptID,
			"status", status,
		)
		return err
	}

	s.Logger.Infow("recorded sms status",
		"attempt_id", callback.AttemptID,
		"message_sid", callback.Sid(),
		"status", status,
		"error_code", callback.ErrorCode,
	)
	return nil
}
