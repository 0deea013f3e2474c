package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/youngchun/callforward/internal/domain/messageattempt"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// InMemoryMessageAttemptStore implements messageattempt.Repository
type InMemoryMessageAttemptStore struct {
	*InMemoryStore[*messageattempt.Attempt]
}

func NewInMemoryMessageAttemptStore() *InMemoryMessageAttemptStore {
	return &InMemoryMessageAttemptStore{
		InMemoryStore: NewInMemoryStore[*messageattempt.Attempt](),
	}
}

func (s *InMemoryMessageAttemptStore) Create(ctx context.Context, attempt *messageattempt.Attempt) error {
	c := *attempt
	return s.InMemoryStore.Create(ctx, attempt.ID, &c)
}

func (s *InMemoryMessageAttemptStore) Get(ctx context.Context, id string) (*messageattempt.Attempt, error) {
	attempt, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Message attempt %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *attempt
	return &c, nil
}

func (s *InMemoryMessageAttemptStore) update(ctx context.Context, id string, fn func(a *messageattempt.Attempt)) error {
	_, err := s.Mutate(ctx, id, func(a *messageattempt.Attempt) (*messageattempt.Attempt, bool) {
		c := *a
		fn(&c)
		c.UpdatedAt = time.Now().UTC()
		return &c, true
	})
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Message attempt %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryMessageAttemptStore) MarkSent(ctx context.Context, id, messageSid string) error {
	return s.update(ctx, id, func(a *messageattempt.Attempt) {
		a.Stage = types.MessageAttemptStageSent
		a.MessageSid = lo.ToPtr(messageSid)
	})
}

func (s *InMemoryMessageAttemptStore) MarkFailed(ctx context.Context, id, reason string) error {
	return s.update(ctx, id, func(a *messageattempt.Attempt) {
		a.Stage = types.MessageAttemptStageFailed
		a.ErrorMessage = lo.ToPtr(reason)
	})
}

func (s *InMemoryMessageAttemptStore) RecordCallback(ctx context.Context, status messageattempt.DeliveryStatus) error {
	return s.update(ctx, status.AttemptID, func(a *messageattempt.Attempt) {
		a.Stage = types.MessageAttemptStageCallbackReceived
		if a.MessageSid == nil && status.MessageSid != "" {
			a.MessageSid = lo.ToPtr(status.MessageSid)
		}
		if status.Status != "" {
			a.ProviderStatus = lo.ToPtr(status.Status)
		}
		if status.ErrorCode != "" {
			a.ErrorCode = lo.ToPtr(status.ErrorCode)
		}
	})
}

// ByKind returns the stored attempts of kind
func (s *InMemoryMessageAttemptStore) ByKind(ctx context.Context, kind types.MessageAttemptKind) []*messageattempt.Attempt {
	items, _ := s.List(ctx, kind, func(_ context.Context, a *messageattempt.Attempt, filter interface{}) bool {
		return a.Kind == filter.(types.MessageAttemptKind)
	}, func(i, j *messageattempt.Attempt) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	return items
}
