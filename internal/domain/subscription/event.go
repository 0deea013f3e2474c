package subscription

import (
	"strings"
	"time"

	"github.com/samber/lo"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// LifecycleEvent is a payment provider event decoded into the fields the ledger cares about
type LifecycleEvent struct {
	EventID        string
	EventType      string
	SubscriptionID string
	CustomerID     string
	Status         types.SubscriptionStatus
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	// UserID is empty when the event does not carry a user mapping
	UserID     string
	OccurredAt time.Time
}

func (e LifecycleEvent) Validate() error {
	if strings.TrimSpace(e.SubscriptionID) == "" {
		return ierr.NewError("subscription id is required").
			WithHint("The event does not reference a subscription").
			WithReportableDetails(map[string]any{
				"event_id":   e.EventID,
				"event_type": e.EventType,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := e.Status.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Unknown subscription status").
			Mark(ierr.ErrValidation)
	}
	if e.PeriodStart != nil && e.PeriodEnd != nil && e.PeriodEnd.Before(*e.PeriodStart) {
		return ierr.NewError("period end before period start").
			WithHint("Invalid billing period").
			WithReportableDetails(map[string]any{
				"subscription_id": e.SubscriptionID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToSubscription converts the event into the ledger row it upserts
func (e LifecycleEvent) ToSubscription(now time.Time) *Subscription {
	sub := &Subscription{
		ID:                 e.SubscriptionID,
		CustomerID:         e.CustomerID,
		Status:             e.Status,
		CurrentPeriodStart: utcPtr(e.PeriodStart),
		CurrentPeriodEnd:   utcPtr(e.PeriodEnd),
		BaseModel:          types.NewBaseModel(now),
	}
	if userID := strings.TrimSpace(e.UserID); userID != "" {
		sub.UserID = lo.ToPtr(userID)
	}
	return sub
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return lo.ToPtr(t.UTC())
}
