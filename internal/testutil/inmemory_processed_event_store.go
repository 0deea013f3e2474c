package testutil

import (
	"context"
	"sync"

	"github.com/youngchun/callforward/internal/domain/processedevent"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// InMemoryProcessedEventStore implements processedevent.Repository
type InMemoryProcessedEventStore struct {
	*InMemoryStore[*processedevent.ProcessedEvent]

	hooksMu    sync.Mutex
	failExists error
	failRecord error
}

func NewInMemoryProcessedEventStore() *InMemoryProcessedEventStore {
	return &InMemoryProcessedEventStore{
		InMemoryStore: NewInMemoryStore[*processedevent.ProcessedEvent](),
	}
}

func processedEventKey(source types.EventSource, eventID string) string {
	return string(source) + ":" + eventID
}

// FailExists makes Exists fail like a broken statement, aborting the transaction in ctx
func (s *InMemoryProcessedEventStore) FailExists(err error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.failExists = err
}

// FailRecord makes Record fail like a broken insert, aborting the transaction in ctx
func (s *InMemoryProcessedEventStore) FailRecord(err error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.failRecord = err
}

func (s *InMemoryProcessedEventStore) hookErr(target *error) error {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	return *target
}

func (s *InMemoryProcessedEventStore) Exists(ctx context.Context, source types.EventSource, eventID string) (bool, error) {
	if err := TxAborted(ctx); err != nil {
		return false, err
	}
	if err := s.hookErr(&s.failExists); err != nil {
		return false, AbortTx(ctx, ierr.WithError(err).
			WithHint("Failed to check processed event").
			Mark(ierr.ErrDatabase))
	}
	_, err := s.InMemoryStore.Get(ctx, processedEventKey(source, eventID))
	if ierr.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (s *InMemoryProcessedEventStore) Record(ctx context.Context, event *processedevent.ProcessedEvent) (bool, error) {
	if err := TxAborted(ctx); err != nil {
		return false, err
	}
	if err := s.hookErr(&s.failRecord); err != nil {
		return false, AbortTx(ctx, ierr.WithError(err).
			WithHint("Failed to record processed event").
			Mark(ierr.ErrDatabase))
	}
	c := *event
	err := s.InMemoryStore.Create(ctx, processedEventKey(event.Source, event.EventID), &c)
	if ierr.IsAlreadyExists(err) {
		return false, nil
	}
	return err == nil, err
}
