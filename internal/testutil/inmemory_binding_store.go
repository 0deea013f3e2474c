package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/youngchun/callforward/internal/domain/binding"
	ierr "github.com/youngchun/callforward/internal/errors"
)

// InMemoryBindingStore implements binding.Repository.
// LockUser emulates pg_advisory_xact_lock: the per-user lock is held until
// the mock transaction in ctx ends.
type InMemoryBindingStore struct {
	*InMemoryStore[*binding.Binding]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	hooksMu          sync.Mutex
	failLock         error
	failCreate       error
	failMarkReleased error
	afterListExpired func()
}

func NewInMemoryBindingStore() *InMemoryBindingStore {
	return &InMemoryBindingStore{
		InMemoryStore: NewInMemoryStore[*binding.Binding](),
		locks:         make(map[string]*sync.Mutex),
	}
}

// FailLock makes LockUser return err until reset with nil
func (s *InMemoryBindingStore) FailLock(err error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.failLock = err
}

// FailCreate makes Create return err until reset with nil
func (s *InMemoryBindingStore) FailCreate(err error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.failCreate = err
}

// FailMarkReleased makes MarkReleased return err until reset with nil
func (s *InMemoryBindingStore) FailMarkReleased(err error) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.failMarkReleased = err
}

// AfterListExpired runs fn once ListExpired has computed its result
func (s *InMemoryBindingStore) AfterListExpired(fn func()) {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	s.afterListExpired = fn
}

func (s *InMemoryBindingStore) hookErr(target *error) error {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	return *target
}

func (s *InMemoryBindingStore) LockUser(ctx context.Context, userID string) error {
	if err := TxAborted(ctx); err != nil {
		return err
	}
	if err := s.hookErr(&s.failLock); err != nil {
		return AbortTx(ctx, ierr.WithError(err).
			WithHint("Could not lock the user's number binding").
			Mark(ierr.ErrLockAcquisitionFailed))
	}
	if !InTx(ctx) {
		return ierr.NewError("advisory xact lock requires a transaction").
			WithHint("Could not lock the user's number binding").
			Mark(ierr.ErrLockAcquisitionFailed)
	}

	s.locksMu.Lock()
	mu, ok := s.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[userID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	RegisterTxRelease(ctx, mu.Unlock)
	return nil
}

func (s *InMemoryBindingStore) Create(ctx context.Context, b *binding.Binding) error {
	if err := s.hookErr(&s.failCreate); err != nil {
		return AbortTx(ctx, ierr.WithError(err).
			WithHint("Failed to create number binding").
			Mark(ierr.ErrDatabase))
	}
	c := *b
	return s.InMemoryStore.Create(ctx, b.ID, &c)
}

func (s *InMemoryBindingStore) Get(ctx context.Context, id string) (*binding.Binding, error) {
	b, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Number binding %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *b
	return &c, nil
}

func (s *InMemoryBindingStore) firstActive(ctx context.Context, match func(b *binding.Binding) bool) (*binding.Binding, error) {
	items, err := s.List(ctx, nil, func(_ context.Context, b *binding.Binding, _ interface{}) bool {
		return !b.IsReleased && match(b)
	}, func(i, j *binding.Binding) bool {
		return i.UpdatedAt.After(j.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("active number binding not found").
			WithHint("No active number binding").
			Mark(ierr.ErrNotFound)
	}
	c := *items[0]
	return &c, nil
}

func (s *InMemoryBindingStore) GetActiveByUserID(ctx context.Context, userID string) (*binding.Binding, error) {
	return s.firstActive(ctx, func(b *binding.Binding) bool { return b.UserID == userID })
}

func (s *InMemoryBindingStore) GetActiveByPhoneNumber(ctx context.Context, phoneNumber string) (*binding.Binding, error) {
	return s.firstActive(ctx, func(b *binding.Binding) bool { return b.PhoneNumber == phoneNumber })
}

func (s *InMemoryBindingStore) ExtendExpiry(ctx context.Context, id string, expireAt time.Time) (bool, error) {
	return s.Mutate(ctx, id, func(b *binding.Binding) (*binding.Binding, bool) {
		if b.IsReleased || !b.ExpireAt.Before(expireAt) {
			return b, false
		}
		c := *b
		c.ExpireAt = expireAt.UTC()
		c.UpdatedAt = time.Now().UTC()
		return &c, true
	})
}

func (s *InMemoryBindingStore) ListExpired(ctx context.Context, now time.Time) ([]*binding.Binding, error) {
	items, err := s.List(ctx, now, func(_ context.Context, b *binding.Binding, filter interface{}) bool {
		return b.IsExpired(filter.(time.Time))
	}, func(i, j *binding.Binding) bool {
		return i.ExpireAt.Before(j.ExpireAt)
	})
	if err != nil {
		return nil, err
	}

	out := make([]*binding.Binding, 0, len(items))
	for _, item := range items {
		c := *item
		out = append(out, &c)
	}

	s.hooksMu.Lock()
	hook := s.afterListExpired
	s.hooksMu.Unlock()
	if hook != nil {
		hook()
	}
	return out, nil
}

func (s *InMemoryBindingStore) MarkReleased(ctx context.Context, id string, releasedAt time.Time) error {
	if err := s.hookErr(&s.failMarkReleased); err != nil {
		return AbortTx(ctx, ierr.WithError(err).
			WithHint("Failed to mark number binding released").
			Mark(ierr.ErrDatabase))
	}
	// releasing twice is a no-op, same as the guarded UPDATE
	_, err := s.Mutate(ctx, id, func(b *binding.Binding) (*binding.Binding, bool) {
		if b.IsReleased {
			return b, false
		}
		c := *b
		c.IsReleased = true
		at := releasedAt.UTC()
		c.ReleasedAt = &at
		c.UpdatedAt = at
		return &c, true
	})
	return err
}

// All returns a copy of every stored binding
func (s *InMemoryBindingStore) All(ctx context.Context) []*binding.Binding {
	items, _ := s.List(ctx, nil, nil, func(i, j *binding.Binding) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	out := make([]*binding.Binding, 0, len(items))
	for _, item := range items {
		c := *item
		out = append(out, &c)
	}
	return out
}
