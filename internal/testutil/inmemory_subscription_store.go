package testutil

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/domain/subscription"
	ierr "github.com/youngchun/callforward/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
	failUpsert error
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

// FailUpsert makes every following Upsert return err until reset with nil
func (s *InMemorySubscriptionStore) FailUpsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpsert = err
}

func (s *InMemorySubscriptionStore) Upsert(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpsert != nil {
		return nil, ierr.WithError(s.failUpsert).
			WithHint("Failed to upsert subscription").
			Mark(ierr.ErrDatabase)
	}

	existing := s.items[sub.ID]
	merged := subscription.Merge(existing, sub)
	if existing != nil {
		merged.CreatedAt = existing.CreatedAt
	}
	s.items[sub.ID] = merged

	out := *merged
	return &out, nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Subscription %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	out := *sub
	return &out, nil
}

func (s *InMemorySubscriptionStore) ListEntitled(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	items, err := s.List(ctx, now, func(_ context.Context, sub *subscription.Subscription, filter interface{}) bool {
		return sub.IsEntitled(filter.(time.Time))
	}, func(i, j *subscription.Subscription) bool {
		return i.ID < j.ID
	})
	if err != nil {
		return nil, err
	}

	out := make([]*subscription.Subscription, 0, len(items))
	for _, item := range items {
		c := *item
		out = append(out, &c)
	}
	return out, nil
}
