package testutil

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/callevent"
	ierr "github.com/youngchun/callforward/internal/errors"
)

// InMemoryCallEventStore implements callevent.Repository, keyed by call sid
type InMemoryCallEventStore struct {
	*InMemoryStore[*callevent.CallEvent]
}

func NewInMemoryCallEventStore() *InMemoryCallEventStore {
	return &InMemoryCallEventStore{
		InMemoryStore: NewInMemoryStore[*callevent.CallEvent](),
	}
}

func (s *InMemoryCallEventStore) Record(ctx context.Context, event *callevent.CallEvent) (bool, error) {
	c := *event
	err := s.InMemoryStore.Create(ctx, event.CallSid, &c)
	if ierr.IsAlreadyExists(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *InMemoryCallEventStore) GetByCallSid(ctx context.Context, callSid string) (*callevent.CallEvent, error) {
	event, err := s.InMemoryStore.Get(ctx, callSid)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Call %s not found", callSid).
			Mark(ierr.ErrNotFound)
	}
	c := *event
	return &c, nil
}
