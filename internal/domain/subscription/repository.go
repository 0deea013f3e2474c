package subscription

import (
	"context"
	"time"
)

type Repository interface {
	// Upsert inserts or merges the row and returns the stored state
	Upsert(ctx context.Context, sub *Subscription) (*Subscription, error)
	Get(ctx context.Context, id string) (*Subscription, error)
	// ListEntitled returns active subscriptions with a user id and a period end after now
	ListEntitled(ctx context.Context, now time.Time) ([]*Subscription, error)
}
