package testutil

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/pushsubscription"
	ierr "github.com/youngchun/callforward/internal/errors"
)

// InMemoryPushSubscriptionStore implements pushsubscription.Repository, keyed by endpoint
type InMemoryPushSubscriptionStore struct {
	*InMemoryStore[*pushsubscription.Subscription]
}

func NewInMemoryPushSubscriptionStore() *InMemoryPushSubscriptionStore {
	return &InMemoryPushSubscriptionStore{
		InMemoryStore: NewInMemoryStore[*pushsubscription.Subscription](),
	}
}

func (s *InMemoryPushSubscriptionStore) Create(ctx context.Context, sub *pushsubscription.Subscription) (bool, error) {
	c := *sub
	err := s.InMemoryStore.Create(ctx, sub.Endpoint, &c)
	if ierr.IsAlreadyExists(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *InMemoryPushSubscriptionStore) ListByUserID(ctx context.Context, userID string) ([]*pushsubscription.Subscription, error) {
	items, err := s.List(ctx, userID, func(_ context.Context, sub *pushsubscription.Subscription, filter interface{}) bool {
		return sub.UserID != nil && *sub.UserID == filter.(string)
	}, func(i, j *pushsubscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*pushsubscription.Subscription, 0, len(items))
	for _, item := range items {
		c := *item
		out = append(out, &c)
	}
	return out, nil
}

func (s *InMemoryPushSubscriptionStore) Latest(ctx context.Context) (*pushsubscription.Subscription, error) {
	items, err := s.List(ctx, nil, nil, func(i, j *pushsubscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("no push subscriptions").
			WithHint("No push subscriptions registered").
			Mark(ierr.ErrNotFound)
	}
	c := *items[0]
	return &c, nil
}

func (s *InMemoryPushSubscriptionStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if err := s.InMemoryStore.Delete(ctx, endpoint); err != nil && !ierr.IsNotFound(err) {
		return err
	}
	return nil
}
