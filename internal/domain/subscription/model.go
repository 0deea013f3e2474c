package subscription

import (
	"time"

	"github.com/youngchun/callforward/internal/types"
)

// Subscription is one row of the subscription ledger, keyed by the Stripe subscription id.
// Rows are never deleted, only status-transitioned.
type Subscription struct {
	// ID is the Stripe subscription id
	ID string `db:"stripe_subscription_id" json:"stripe_subscription_id"`

	// CustomerID is the Stripe customer id
	CustomerID string `db:"stripe_customer_id" json:"stripe_customer_id"`

	Status types.SubscriptionStatus `db:"status" json:"status"`

	CurrentPeriodStart *time.Time `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `db:"current_period_end" json:"current_period_end,omitempty"`

	// UserID is nil until a checkout session or subscription metadata maps the subscription to a user
	UserID *string `db:"user_id" json:"user_id,omitempty"`

	types.BaseModel
}

// IsEntitled reports whether the subscriber should hold a number at now
func (s *Subscription) IsEntitled(now time.Time) bool {
	if s == nil || s.Status != types.SubscriptionStatusActive {
		return false
	}
	if s.UserID == nil || *s.UserID == "" {
		return false
	}
	return s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(now)
}

// GetUserID returns the mapped user id or an empty string
func (s *Subscription) GetUserID() string {
	if s == nil || s.UserID == nil {
		return ""
	}
	return *s.UserID
}

// Merge folds incoming into existing the same way the ledger upsert does:
// status is last-write-wins, period bounds keep the latest non-null value and
// the user id keeps the first non-null value.
func Merge(existing, incoming *Subscription) *Subscription {
	if existing == nil {
		merged := *incoming
		return &merged
	}

	merged := *existing
	merged.Status = incoming.Status
	if incoming.CustomerID != "" {
		merged.CustomerID = incoming.CustomerID
	}
	merged.CurrentPeriodStart = latest(existing.CurrentPeriodStart, incoming.CurrentPeriodStart)
	merged.CurrentPeriodEnd = latest(existing.CurrentPeriodEnd, incoming.CurrentPeriodEnd)
	if merged.UserID == nil || *merged.UserID == "" {
		merged.UserID = incoming.UserID
	}
	merged.UpdatedAt = incoming.UpdatedAt
	return &merged
}

func latest(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
