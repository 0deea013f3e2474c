package testutil

import (
	"context"
	"time"

	"github.com/youngchun/callforward/internal/domain/leave"
	ierr "github.com/youngchun/callforward/internal/errors"
	"github.com/youngchun/callforward/internal/types"
)

// InMemoryLeaveStore implements leave.Repository
type InMemoryLeaveStore struct {
	*InMemoryStore[*leave.Link]
	Messages *InMemoryStore[*leave.Message]
}

func NewInMemoryLeaveStore() *InMemoryLeaveStore {
	return &InMemoryLeaveStore{
		InMemoryStore: NewInMemoryStore[*leave.Link](),
		Messages:      NewInMemoryStore[*leave.Message](),
	}
}

func (s *InMemoryLeaveStore) CreateLink(ctx context.Context, link *leave.Link) error {
	c := *link
	return s.InMemoryStore.Create(ctx, link.Token, &c)
}

func (s *InMemoryLeaveStore) GetLink(ctx context.Context, token string) (*leave.Link, error) {
	link, err := s.InMemoryStore.Get(ctx, token)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Leave link not found").
			Mark(ierr.ErrNotFound)
	}
	c := *link
	return &c, nil
}

func (s *InMemoryLeaveStore) GetLinkByCallSid(ctx context.Context, callSid string) (*leave.Link, error) {
	links, err := s.List(ctx, callSid, func(_ context.Context, l *leave.Link, filter interface{}) bool {
		return l.CallSid != nil && *l.CallSid == filter.(string)
	}, func(i, j *leave.Link) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ierr.NewError("leave link not found").
			WithHint("Leave link not found").
			Mark(ierr.ErrNotFound)
	}
	c := *links[0]
	return &c, nil
}

func (s *InMemoryLeaveStore) MarkUsed(ctx context.Context, token string, usedAt time.Time) error {
	changed, err := s.Mutate(ctx, token, func(l *leave.Link) (*leave.Link, bool) {
		if l.UsedAt != nil {
			return l, false
		}
		c := *l
		at := usedAt.UTC()
		c.UsedAt = &at
		c.Status = types.LeaveLinkStatusUsed
		return &c, true
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Leave link not found").
			Mark(ierr.ErrNotFound)
	}
	if !changed {
		return ierr.NewError("leave link already used").
			WithHint("Leave link was already used").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryLeaveStore) CreateMessage(ctx context.Context, msg *leave.Message) error {
	c := *msg
	return s.Messages.Create(ctx, msg.ID, &c)
}

func (s *InMemoryLeaveStore) GetMessage(ctx context.Context, id string) (*leave.Message, error) {
	msg, err := s.Messages.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Leave message not found").
			Mark(ierr.ErrNotFound)
	}
	c := *msg
	return &c, nil
}

func (s *InMemoryLeaveStore) Clear() {
	s.InMemoryStore.Clear()
	s.Messages.Clear()
}
