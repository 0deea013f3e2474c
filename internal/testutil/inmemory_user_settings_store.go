package testutil

import (
	"context"

	"github.com/youngchun/callforward/internal/domain/usersettings"
	ierr "github.com/youngchun/callforward/internal/errors"
)

// InMemoryUserSettingsStore implements usersettings.Repository. Travel settings are keyed by user.
type InMemoryUserSettingsStore struct {
	*InMemoryStore[*usersettings.TravelSettings]
	PrepareStatuses *InMemoryStore[*usersettings.PrepareStatus]
}

func NewInMemoryUserSettingsStore() *InMemoryUserSettingsStore {
	return &InMemoryUserSettingsStore{
		InMemoryStore:   NewInMemoryStore[*usersettings.TravelSettings](),
		PrepareStatuses: NewInMemoryStore[*usersettings.PrepareStatus](),
	}
}

func (s *InMemoryUserSettingsStore) UpsertTravelSettings(ctx context.Context, settings *usersettings.TravelSettings) error {
	c := *settings
	changed, err := s.Mutate(ctx, settings.UserID, func(existing *usersettings.TravelSettings) (*usersettings.TravelSettings, bool) {
		c.CreatedAt = existing.CreatedAt
		return &c, true
	})
	if err == nil && changed {
		settings.CreatedAt = c.CreatedAt
		return nil
	}
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}
	return s.InMemoryStore.Create(ctx, settings.UserID, &c)
}

func (s *InMemoryUserSettingsStore) GetTravelSettings(ctx context.Context, userID string) (*usersettings.TravelSettings, error) {
	settings, err := s.InMemoryStore.Get(ctx, userID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Travel settings not found").
			Mark(ierr.ErrNotFound)
	}
	c := *settings
	return &c, nil
}

func (s *InMemoryUserSettingsStore) CreatePrepareStatus(ctx context.Context, status *usersettings.PrepareStatus) error {
	c := *status
	return s.PrepareStatuses.Create(ctx, status.ID, &c)
}

func (s *InMemoryUserSettingsStore) GetLatestPrepareStatus(ctx context.Context, userID string) (*usersettings.PrepareStatus, error) {
	items, err := s.PrepareStatuses.List(ctx, userID, func(_ context.Context, p *usersettings.PrepareStatus, filter interface{}) bool {
		return p.UserID == filter.(string)
	}, func(i, j *usersettings.PrepareStatus) bool {
		return i.CompletedAt.After(j.CompletedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ierr.NewError("prepare status not found").
			WithHint("Prepare status not found").
			Mark(ierr.ErrNotFound)
	}
	c := *items[0]
	return &c, nil
}

func (s *InMemoryUserSettingsStore) Clear() {
	s.InMemoryStore.Clear()
	s.PrepareStatuses.Clear()
}
