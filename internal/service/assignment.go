package service

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/youngchun/callforward/internal/api/dto"
	"github.com/youngchun/callforward/internal/domain/binding"
	"github.com/youngchun/callforward/internal/domain/processedevent"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/metrics"
	"github.com/youngchun/callforward/internal/telephony"
	"github.com/youngchun/callforward/internal/types"
)

// assignAllConcurrency bounds the parallel assignments of one batch
const assignAllConcurrency = 4

// AssignmentService keeps exactly one unreleased number binding per entitled user
type AssignmentService interface {
	// Assign reuses and extends the user's binding or provisions a new number.
	// The caller has already checked that the user is entitled until expireAt.
	Assign(ctx context.Context, userID string, notBefore, expireAt time.Time) (*dto.AssignResult, error)

	// AssignAllActive runs Assign for every entitled subscription, isolating failures per user
	AssignAllActive(ctx context.Context) (*dto.AssignAllResponse, error)
}

type assignmentService struct {
	ServiceParams
}

func NewAssignmentService(params ServiceParams) AssignmentService {
	return &assignmentService{
		ServiceParams: params,
	}
}

func (s *assignmentService) Assign(ctx context.Context, userID string, notBefore, expireAt time.Time) (*dto.AssignResult, error) {
	if userID == "" {
		return nil, ierr.NewError("user id is required").
			WithHint("A user id is required to assign a number").
			Mark(ierr.ErrValidation)
	}
	if notBefore.IsZero() {
		notBefore = s.now()
	}
	expireAt = expireAt.UTC()

	var (
		result    *dto.AssignResult
		purchased *telephony.PurchasedNumber
	)

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		s.lockUser(ctx, userID)

		existing, err := s.BindingRepo.GetActiveByUserID(ctx, userID)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}
		if existing != nil {
			result, err = s.reuse(ctx, existing, expireAt)
			return err
		}

		purchased, err = s.provision(ctx, userID)
		if err != nil {
			return err
		}

		b := &binding.Binding{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NUMBER_BINDING),
			UserID:      userID,
			PhoneNumber: purchased.PhoneNumber,
			ResourceID:  purchased.ResourceID,
			StartAt:     notBefore.UTC(),
			ExpireAt:    expireAt,
			BaseModel:   types.NewBaseModel(s.now()),
		}

		// savepoint, a failed insert must not abort the outer transaction
		if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
			return s.BindingRepo.Create(ctx, b)
		}); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to store the purchased number").
				WithReportableDetails(map[string]any{
					"user_id":    userID,
					"twilio_sid": purchased.ResourceID,
				}).
				Mark(ierr.ErrLedgerWriteFailed)
		}

		result = &dto.AssignResult{
			UserID:      userID,
			Purchased:   true,
			PhoneNumber: b.PhoneNumber,
			ResourceID:  b.ResourceID,
			ExpireAt:    b.ExpireAt,
		}
		return nil
	})
	if err != nil {
		// the binding was not committed, whatever step failed
		if purchased != nil {
			s.compensate(ctx, userID, purchased, err)
		}
		s.Metrics.RecordAssignment(metrics.OutcomeFailed)
		s.Logger.Errorw("number assignment failed",
			"error", err,
			"user_id", userID,
			"expire_at", expireAt,
		)
		return nil, err
	}

	if result.Purchased {
		s.Metrics.RecordAssignment(metrics.OutcomePurchased)
		s.Logger.Infow("provisioned phone number",
			"user_id", userID,
			"twilio_number", result.PhoneNumber,
			"twilio_sid", result.ResourceID,
			"expire_at", result.ExpireAt,
		)
	} else {
		s.Metrics.RecordAssignment(metrics.OutcomeReused)
		s.Logger.Infow("reused phone number",
			"user_id", userID,
			"twilio_number", result.PhoneNumber,
			"extended", result.Extended,
			"expire_at", result.ExpireAt,
		)
	}
	return result, nil
}

// lockUser takes the per-user advisory lock inside a savepoint. A failed lock
// is rolled back and the assignment continues unlocked.
func (s *assignmentService) lockUser(ctx context.Context, userID string) {
	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		return s.BindingRepo.LockUser(ctx, userID)
	}); err != nil {
		s.Logger.Warnw("continuing without advisory lock",
			"error", err,
			"user_id", userID,
		)
	}
}

func (s *assignmentService) reuse(ctx context.Context, existing *binding.Binding, expireAt time.Time) (*dto.AssignResult, error) {
	result := &dto.AssignResult{
		UserID:      existing.UserID,
		Reused:      true,
		PhoneNumber: existing.PhoneNumber,
		ResourceID:  existing.ResourceID,
		ExpireAt:    existing.ExpireAt,
	}

	if !existing.ExpireAt.Before(expireAt) {
		return result, nil
	}

	extended, err := s.BindingRepo.ExtendExpiry(ctx, existing.ID, expireAt)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to extend the number binding").
			WithReportableDetails(map[string]any{
				"binding_id": existing.ID,
				"user_id":    existing.UserID,
			}).
			Mark(ierr.ErrLedgerUpdateFailed)
	}
	if extended {
		result.Extended = true
		result.ExpireAt = expireAt
	}
	return result, nil
}

func (s *assignmentService) provision(ctx context.Context, userID string) (*telephony.PurchasedNumber, error) {
	voiceURL := s.Config.Twilio.VoiceWebhookURL
	if err := telephony.ValidateVoiceWebhookURL(voiceURL); err != nil {
		return nil, err
	}

	available, err := s.Telephony.SearchAvailable(ctx, s.Config.Twilio.Country)
	if err != nil {
		return nil, err
	}
	if available == nil || available.PhoneNumber == "" {
		return nil, ierr.NewError("no phone numbers available").
			WithHintf("No voice capable numbers available in %s", s.Config.Twilio.Country).
			WithReportableDetails(map[string]any{
				"user_id": userID,
				"country": s.Config.Twilio.Country,
			}).
			Mark(ierr.ErrNoNumbersAvailable)
	}

	purchased, err := s.Telephony.Purchase(ctx, available.PhoneNumber, voiceURL)
	if err != nil {
		if !ierr.Is(err, ierr.ErrProviderPurchaseFailed) {
			err = ierr.WithError(err).
				WithHint("Failed to purchase phone number").
				Mark(ierr.ErrProviderPurchaseFailed)
		}
		return nil, err
	}
	return purchased, nil
}

// compensate releases a number whose binding could not be written. It runs
// after the assignment transaction so the processed event survives the rollback.
func (s *assignmentService) compensate(ctx context.Context, userID string, purchased *telephony.PurchasedNumber, cause error) {
	recorded, err := s.ProcessedEventRepo.Record(ctx, &processedevent.ProcessedEvent{
		Source:    types.EventSourceCompensation,
		EventID:   purchased.ResourceID,
		EventType: "number.compensating_release",
		CreatedAt: s.now(),
	})
	if err != nil {
		s.Logger.Warnw("failed to record compensating release, releasing anyway",
			"error", err,
			"user_id", userID,
			"twilio_sid", purchased.ResourceID,
		)
	} else if !recorded {
		s.Logger.Infow("compensating release already done",
			"user_id", userID,
			"twilio_sid", purchased.ResourceID,
		)
		return
	}

	if err := s.Telephony.Release(ctx, purchased.ResourceID); err != nil {
		s.Metrics.RecordReconciliationGap("compensation")
		s.Sentry.CaptureReconciliationGap(err, userID, purchased.ResourceID, purchased.PhoneNumber)
		s.Logger.Errorw("RECONCILIATION GAP: purchased number is neither bound nor released",
			"error", err,
			"cause", cause,
			"user_id", userID,
			"twilio_sid", purchased.ResourceID,
			"twilio_number", purchased.PhoneNumber,
		)
		return
	}

	s.Logger.Warnw("released purchased number after binding write failed",
		"cause", cause,
		"user_id", userID,
		"twilio_sid", purchased.ResourceID,
	)
}

func (s *assignmentService) AssignAllActive(ctx context.Context) (*dto.AssignAllResponse, error) {
	subs, err := s.SubscriptionRepo.ListEntitled(ctx, s.now())
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		resp = &dto.AssignAllResponse{}
	)

	p := pool.New().WithMaxGoroutines(assignAllConcurrency)
	for _, sub := range subs {
		sub := sub
		p.Go(func() {
			userID := sub.GetUserID()
			result, err := s.Assign(ctx, userID, s.now(), *sub.CurrentPeriodEnd)

			mu.Lock()
			defer mu.Unlock()
			resp.Processed++
			switch {
			case err != nil:
				resp.Failed++
				resp.Failures = append(resp.Failures, dto.AssignFailure{
					UserID: userID,
					Error:  err.Error(),
				})
			case result.Purchased:
				resp.Purchased++
			case result.Reused:
				resp.Reused++
			}
		})
	}
	p.Wait()

	s.Logger.Infow("assigned numbers to active subscriptions",
		"processed", resp.Processed,
		"purchased", resp.Purchased,
		"reused", resp.Reused,
		"failed", resp.Failed,
	)
	return resp, nil
}
